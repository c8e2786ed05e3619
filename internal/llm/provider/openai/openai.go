// Package openai implements llm.ChatProvider against the OpenAI (and
// Azure-OpenAI-compatible) chat completions API via go-openai, mirroring
// the original project's default client (an Azure OpenAI deployment) as a
// second concrete provider alongside internal/llm/provider/anthropic.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/llm"
	sdk "github.com/sashabaranov/go-openai"
)

// Provider adapts a go-openai client to llm.ChatProvider.
type Provider struct {
	client *sdk.Client
}

// Config configures a Provider. BaseURL and APIVersion let callers point at
// an Azure OpenAI deployment instead of api.openai.com.
type Config struct {
	APIKey     string
	BaseURL    string
	AzureModel string // if set, builds an Azure-flavored client config
}

// New builds a Provider from Config.
func New(cfg Config) *Provider {
	var clientCfg sdk.ClientConfig
	if cfg.AzureModel != "" {
		clientCfg = sdk.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	} else {
		clientCfg = sdk.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	return &Provider{client: sdk.NewClientWithConfig(clientCfg)}
}

// ChatCompletion implements llm.ChatProvider.
func (p *Provider) ChatCompletion(ctx context.Context, model string, messages llm.Transcript, _ map[string]any) (string, llm.UsageMeta, error) {
	req := sdk.ChatCompletionRequest{Model: model}
	for _, m := range messages {
		req.Messages = append(req.Messages, sdk.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", llm.UsageMeta{}, classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.UsageMeta{}, corerr.NewProviderError(corerr.BadRequest, errors.New("openai: empty choices in response"))
	}

	usage := llm.UsageMeta{
		PromptTokens:   int64(resp.Usage.PromptTokens),
		ResponseTokens: int64(resp.Usage.CompletionTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// classify maps a go-openai error onto the core's provider error taxonomy.
func classify(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return corerr.NewProviderError(corerr.RateLimit, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return corerr.NewProviderError(corerr.Auth, err)
		case apiErr.HTTPStatusCode >= 500:
			return corerr.NewProviderError(corerr.Transient5xx, err)
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			return corerr.NewProviderError(corerr.BadRequest, err)
		}
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 500 {
		return corerr.NewProviderError(corerr.Transient5xx, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return corerr.NewProviderError(corerr.Timeout, err)
	}
	return corerr.NewProviderError(corerr.BadRequest, err)
}
