package llm

import "context"

// UsageMeta is the provider-reported token accounting for one completion,
// the "raw_response" a usage.ResponseParser consumes.
type UsageMeta struct {
	PromptTokens   int64
	ResponseTokens int64
}

// ChatProvider is the external LLM provider interface (spec §6, "LLM
// provider (inbound to core)"). Implementations classify failures with
// corerr.ProviderError so the caller knows whether to retry.
type ChatProvider interface {
	ChatCompletion(ctx context.Context, model string, messages Transcript, extraKwargs map[string]any) (text string, usage UsageMeta, err error)
}
