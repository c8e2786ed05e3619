package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/NREL/COMPASS/internal/jlog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const jsonInstruction = "Return your answer as a single JSON object and nothing else."

// jsonInstructionMarkers are substrings whose presence we treat as "the
// system message already asks for JSON", so StructuredCaller never appends
// a redundant second instruction.
var jsonInstructionMarkers = []string{"json format", "as json", "json object"}

// StructuredCaller is the structured-JSON LLM caller (spec §4.3): like
// Caller, but ensures the system message asks for JSON, and parses the
// response after stripping common Markdown code-fence noise. Malformed JSON
// is not an error — spec §7 item 6 treats it as an empty mapping logged at
// debug, so a single bad LLM response never aborts a dialog.
type StructuredCaller struct {
	Caller
	// Schema, if non-nil, validates the parsed JSON before returning it;
	// a schema violation is treated the same as a parse failure.
	Schema *jsonschema.Schema
}

// NewStructuredCaller wraps base as a structured caller with an optional
// JSON Schema to validate parsed responses against.
func NewStructuredCaller(base Base, schema *jsonschema.Schema) *StructuredCaller {
	return &StructuredCaller{Caller: Caller{Base: base}, Schema: schema}
}

// Call ensures system asks for JSON, calls through, and parses the reply.
// Returns an empty, non-nil map on parse failure, a provider error, or
// schema mismatch — never nil, so callers never need a nil check.
func (s *StructuredCaller) Call(ctx context.Context, callerTask, system, user string) map[string]any {
	system = ensureJSONInstruction(system)

	text, err := s.Caller.Call(ctx, callerTask, system, user)
	if err != nil {
		jlog.From(ctx).Debug("structured caller: provider error", "error", err)
		return map[string]any{}
	}
	if text == nil {
		return map[string]any{}
	}

	parsed, err := parseJSON(*text)
	if err != nil {
		jlog.From(ctx).Debug("structured caller: failed to parse JSON response", "error", err, "text", *text)
		return map[string]any{}
	}

	if s.Schema != nil {
		if err := s.Schema.Validate(parsed); err != nil {
			jlog.From(ctx).Debug("structured caller: response failed schema validation", "error", err)
			return map[string]any{}
		}
	}

	return parsed
}

// ensureJSONInstruction appends the literal JSON instruction unless the
// system message already appears to request one (spec §4.3).
func ensureJSONInstruction(system string) string {
	lower := strings.ToLower(system)
	for _, marker := range jsonInstructionMarkers {
		if strings.Contains(lower, marker) {
			return system
		}
	}
	return strings.TrimRight(system, " \n") + "\n\n" + jsonInstruction
}

// ParseJSONFromText exposes the same fence-stripping JSON parse StructuredCaller
// uses internally, for callers that need to extract JSON from a chat-style
// (non-structured) reply — e.g. a dialog forked from a seeded transcript,
// where the system message asking for JSON was set once, upstream.
func ParseJSONFromText(text string) (map[string]any, error) {
	return parseJSON(text)
}

// parseJSON strips triple-backtick fences and a leading language tag
// (e.g. "```json") before decoding, since LLMs routinely wrap JSON replies
// in Markdown even when explicitly asked not to.
func parseJSON(text string) (map[string]any, error) {
	cleaned := stripCodeFence(text)
	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	// Drop a leading language tag on the fence's opening line, e.g. "json\n".
	if nl := strings.IndexByte(t, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(t[:nl])
		if firstLine == "" || isLanguageTag(firstLine) {
			t = t[nl+1:]
		}
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

func isLanguageTag(s string) bool {
	switch strings.ToLower(s) {
	case "json", "json5", "js", "javascript":
		return true
	default:
		return false
	}
}
