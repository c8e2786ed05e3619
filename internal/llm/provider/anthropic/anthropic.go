// Package anthropic implements llm.ChatProvider against Anthropic's Claude
// API, classifying failures into the corerr.ProviderKind taxonomy by HTTP
// status / message substring, as a single non-streaming call since
// COMPASS's dialogs are turn-by-turn, not token-streamed.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/llm"
)

// Provider adapts the anthropic-sdk-go client to llm.ChatProvider.
type Provider struct {
	client    sdk.Client
	maxTokens int64
}

// Config configures a Provider.
type Config struct {
	APIKey    string
	BaseURL   string // optional override, e.g. for a proxy
	MaxTokens int64
}

// New builds a Provider from Config.
func New(cfg Config) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Provider{client: sdk.NewClient(opts...), maxTokens: maxTokens}
}

// ChatCompletion implements llm.ChatProvider.
func (p *Provider) ChatCompletion(ctx context.Context, model string, messages llm.Transcript, _ map[string]any) (string, llm.UsageMeta, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: p.maxTokens,
	}

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			params.System = []sdk.TextBlockParam{{Text: m.Content}}
		case llm.RoleUser:
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case llm.RoleAssistant:
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", llm.UsageMeta{}, classify(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	usage := llm.UsageMeta{
		PromptTokens:   msg.Usage.InputTokens,
		ResponseTokens: msg.Usage.OutputTokens,
	}
	return text.String(), usage, nil
}

// classify maps an anthropic-sdk-go error onto the core's provider error
// taxonomy, preferring the SDK's structured status code and falling back to
// a message-substring heuristic for errors the SDK doesn't wrap.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return corerr.NewProviderError(corerr.RateLimit, err)
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return corerr.NewProviderError(corerr.Auth, err)
		case apiErr.StatusCode >= 500:
			return corerr.NewProviderError(corerr.Transient5xx, err)
		case apiErr.StatusCode == 400:
			return corerr.NewProviderError(corerr.BadRequest, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429"):
		return corerr.NewProviderError(corerr.RateLimit, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return corerr.NewProviderError(corerr.Timeout, err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return corerr.NewProviderError(corerr.Transient5xx, err)
	default:
		return corerr.NewProviderError(corerr.BadRequest, err)
	}
}
