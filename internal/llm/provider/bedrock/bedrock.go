// Package bedrock implements llm.ChatProvider against AWS Bedrock's
// Converse API, a third concrete provider alongside internal/llm/provider/
// anthropic and internal/llm/provider/openai (spec §6: "multiple
// implementations acceptable"). Bedrock fronts several foundation-model
// families behind one request/response shape, so this provider works for
// any model ID an account has been granted access to, not just Anthropic's.
package bedrock

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/llm"
)

// Provider adapts a bedrockruntime client to llm.ChatProvider. A single
// non-streaming Converse call per ChatCompletion matches the rest of
// COMPASS's turn-by-turn dialogs (spec §4.3); nothing here consumes
// Bedrock's ConverseStream variant.
type Provider struct {
	client    *bedrockruntime.Client
	maxTokens int32
}

// Config configures a Provider. Region and explicit credentials are
// optional: an empty Config falls back to the AWS SDK's default credential
// chain (environment, shared config, IAM role), matching the original
// project's pattern of sourcing provider credentials from the environment
// rather than from config.Config.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	MaxTokens       int32
}

// New builds a Provider from Config, or returns an error if the AWS SDK
// cannot resolve a credential chain.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, corerr.NewServiceError(corerr.Config, "bedrock: loading AWS config", err)
	}

	return &Provider{client: bedrockruntime.NewFromConfig(awsCfg), maxTokens: maxTokens}, nil
}

// ChatCompletion implements llm.ChatProvider.
func (p *Provider) ChatCompletion(ctx context.Context, model string, messages llm.Transcript, _ map[string]any) (string, llm.UsageMeta, error) {
	req := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(model),
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(p.maxTokens)},
	}

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			req.System = append(req.System, &types.SystemContentBlockMemberText{Value: m.Content})
		case llm.RoleUser:
			req.Messages = append(req.Messages, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})
		case llm.RoleAssistant:
			req.Messages = append(req.Messages, types.Message{
				Role:    types.ConversationRoleAssistant,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})
		}
	}

	resp, err := p.client.Converse(ctx, req)
	if err != nil {
		return "", llm.UsageMeta{}, classify(err)
	}

	var text strings.Builder
	if out, ok := resp.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range out.Value.Content {
			if tb, ok := block.(*types.ContentBlockMemberText); ok {
				text.WriteString(tb.Value)
			}
		}
	}

	var usage llm.UsageMeta
	if resp.Usage != nil {
		usage = llm.UsageMeta{
			PromptTokens:   int64(aws.ToInt32(resp.Usage.InputTokens)),
			ResponseTokens: int64(aws.ToInt32(resp.Usage.OutputTokens)),
		}
	}
	return text.String(), usage, nil
}

// classify maps a Bedrock/smithy error onto the core's provider error
// taxonomy, preferring the API's structured fault type and falling back to
// a message-substring heuristic for errors the SDK doesn't wrap.
func classify(err error) error {
	var throttling *types.ThrottlingException
	if errors.As(err, &throttling) {
		return corerr.NewProviderError(corerr.RateLimit, err)
	}
	var accessDenied *types.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return corerr.NewProviderError(corerr.Auth, err)
	}
	var validation *types.ValidationException
	if errors.As(err, &validation) {
		return corerr.NewProviderError(corerr.BadRequest, err)
	}
	var serviceUnavailable *types.ServiceUnavailableException
	if errors.As(err, &serviceUnavailable) {
		return corerr.NewProviderError(corerr.Transient5xx, err)
	}
	var internal *types.InternalServerException
	if errors.As(err, &internal) {
		return corerr.NewProviderError(corerr.Transient5xx, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return corerr.NewProviderError(corerr.RateLimit, err)
		case "AccessDeniedException", "UnrecognizedClientException":
			return corerr.NewProviderError(corerr.Auth, err)
		case "ServiceUnavailableException", "InternalServerException":
			return corerr.NewProviderError(corerr.Transient5xx, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return corerr.NewProviderError(corerr.Timeout, err)
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return corerr.NewProviderError(corerr.Transient5xx, err)
	default:
		return corerr.NewProviderError(corerr.BadRequest, err)
	}
}
