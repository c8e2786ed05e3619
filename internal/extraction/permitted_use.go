package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/llm"
)

// PermittedUseResult is the permitted-use-district extraction (spec §9
// supplemented feature, recovered from original_source: a complete
// extraction system records which zoning districts a technology is
// permitted, conditionally permitted, or disallowed in, separately from
// any numeric setback/height restriction).
type PermittedUseResult struct {
	PermittedDistricts    []string
	ConditionalDistricts  []string
	ProhibitedDistricts   []string
}

const permittedUsePrompt = "List the zoning districts in which this technology is a permitted use, a conditional/special use, " +
	"or a prohibited use. Respond as a single JSON object with keys \"permitted\", \"conditional\", and \"prohibited\", " +
	"each an array of district name strings (empty arrays where the text says nothing)."

// ExtractPermittedUse runs a one-shot structured extraction for the
// permitted-use-district table.
func ExtractPermittedUse(ctx context.Context, caller *llm.StructuredCaller, callerTask, system string) PermittedUseResult {
	parsed := caller.Call(ctx, callerTask, system, permittedUsePrompt)
	return PermittedUseResult{
		PermittedDistricts:   stringSlice(parsed["permitted"]),
		ConditionalDistricts: stringSlice(parsed["conditional"]),
		ProhibitedDistricts:  stringSlice(parsed["prohibited"]),
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
