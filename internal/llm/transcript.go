// Package llm implements the three LLM Caller flavors (C3): one-shot, chat
// (transcript-backed), and structured-JSON, all submitting through the
// Service Runtime (C1) so retries, rate limiting, and usage accounting are
// uniform across every call site.
package llm

// Role is one dialog transcript participant (spec §3, "Dialog Transcript").
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    Role
	Content string
}

// Transcript is an ordered sequence of messages. Invariant (spec §3): starts
// with exactly one system message; user and assistant messages alternate
// strictly after position 0.
type Transcript []Message

// NewTranscript seeds a transcript with its required leading system message.
func NewTranscript(system string) Transcript {
	return Transcript{{Role: RoleSystem, Content: system}}
}

// Clone performs a structural deep copy so forks never share mutable message
// objects (spec §9, "Deep cloning of transcripts").
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Valid checks the transcript invariant from spec §8: messages[0].role ==
// system, and for i>0, role alternates user/assistant starting with user.
func (t Transcript) Valid() bool {
	if len(t) == 0 || t[0].Role != RoleSystem {
		return false
	}
	for i := 1; i < len(t); i++ {
		want := RoleUser
		if i%2 == 0 {
			want = RoleAssistant
		}
		if t[i].Role != want {
			return false
		}
	}
	return true
}

// LastAssistant returns the content of the most recent assistant message, or
// "" if there isn't one — used by decision-tree edge predicates (spec §4.4).
func (t Transcript) LastAssistant() string {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleAssistant {
			return t[i].Content
		}
	}
	return ""
}

// System returns the transcript's leading system message content.
func (t Transcript) System() string {
	if len(t) == 0 {
		return ""
	}
	return t[0].Content
}
