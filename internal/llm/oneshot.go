package llm

import "context"

// Caller is the one-shot LLM caller (spec §4.3): stateless, a fresh
// system+user exchange per call.
type Caller struct {
	Base
}

// NewCaller wraps base as a one-shot caller.
func NewCaller(base Base) *Caller {
	return &Caller{Base: base}
}

// Call submits a stateless system+user exchange and returns the assistant's
// text, or nil if the provider's retryable failures exhausted their retry
// budget (spec §7 item 4). A terminal provider error (bad request, auth) or
// context cancellation propagates as err so the caller (typically the
// per-jurisdiction task) can catch and log it.
func (c *Caller) Call(ctx context.Context, callerTask, system, user string) (*string, error) {
	messages := Transcript{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}

	result, err := c.call(ctx, callerTask, messages)
	if err != nil {
		return nil, err
	}
	if result.Text == "" {
		return nil, nil
	}
	text := result.Text
	return &text, nil
}
