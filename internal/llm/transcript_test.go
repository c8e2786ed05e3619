package llm

import "testing"

func TestNewTranscriptValid(t *testing.T) {
	tr := NewTranscript("you are an ordinance assistant")
	if !tr.Valid() {
		t.Error("fresh transcript should be valid")
	}
}

func TestValidAlternation(t *testing.T) {
	tr := Transcript{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "u2"},
	}
	if !tr.Valid() {
		t.Error("expected alternating transcript to be valid")
	}

	broken := Transcript{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleAssistant, Content: "a1"},
	}
	if broken.Valid() {
		t.Error("expected transcript starting with assistant reply to be invalid")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := NewTranscript("s")
	clone := tr.Clone()
	clone = append(clone, Message{Role: RoleUser, Content: "hi"})

	if len(tr) != 1 {
		t.Errorf("original transcript mutated by clone append, len = %d", len(tr))
	}
	if len(clone) != 2 {
		t.Errorf("clone len = %d, want 2", len(clone))
	}
}

func TestLastAssistant(t *testing.T) {
	tr := Transcript{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u1"},
		{Role: RoleAssistant, Content: "yes, 1000 feet"},
	}
	if got := tr.LastAssistant(); got != "yes, 1000 feet" {
		t.Errorf("LastAssistant() = %q", got)
	}

	empty := NewTranscript("s")
	if got := empty.LastAssistant(); got != "" {
		t.Errorf("LastAssistant() on fresh transcript = %q, want empty", got)
	}
}
