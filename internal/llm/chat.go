package llm

import "context"

// ChatCaller is the chat LLM caller (spec §4.3): holds a mutable transcript
// seeded by a system message. Call appends the user turn, submits, and on
// success appends the assistant reply; on failure it rolls back the
// appended user message so the transcript invariant (always ends in a
// complete, valid turn) is preserved.
type ChatCaller struct {
	Base
	transcript Transcript
}

// NewChatCaller seeds a fresh chat caller with system as its leading message.
func NewChatCaller(base Base, system string) *ChatCaller {
	return &ChatCaller{Base: base, transcript: NewTranscript(system)}
}

// Seed replaces the caller's transcript with a clone of seed, allowing the
// structured-extraction stage to fork a shared reasoning prefix into
// independent specialized dialogs (spec §4.4, §9 "Deep cloning of
// transcripts"). Seed must be called before the first Call.
func (c *ChatCaller) Seed(seed Transcript) {
	c.transcript = seed.Clone()
}

// Transcript returns a defensive clone of the caller's current transcript,
// e.g. to capture a seed prefix for forking (spec §4.8 step 3a, "the
// resulting transcript is captured as the seed prefix").
func (c *ChatCaller) Transcript() Transcript {
	return c.transcript.Clone()
}

// Call appends user, submits the full transcript, and returns the
// assistant's reply text.
func (c *ChatCaller) Call(ctx context.Context, callerTask, user string) (string, error) {
	c.transcript = append(c.transcript, Message{Role: RoleUser, Content: user})

	result, err := c.call(ctx, callerTask, c.transcript)
	if err != nil {
		c.transcript = c.transcript[:len(c.transcript)-1]
		return "", err
	}
	if result.Text == "" {
		c.transcript = c.transcript[:len(c.transcript)-1]
		return "", nil
	}

	c.transcript = append(c.transcript, Message{Role: RoleAssistant, Content: result.Text})
	return result.Text, nil
}
