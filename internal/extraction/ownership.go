package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/llm"
)

// OwnershipClass names the two participant categories a setback ordinance
// sometimes distinguishes.
const (
	OwnershipParticipating    = "participating"
	OwnershipNonParticipating = "non_participating"
)

// ownershipPrompts are the fork prompts for each class, asked against the
// seed prefix a base setback dialog produced.
var ownershipPrompts = map[string]string{
	OwnershipParticipating:    "Restate the setback requirement as it applies specifically to participating landowners, or say 'none' if the text draws no such distinction.",
	OwnershipNonParticipating: "Restate the setback requirement as it applies specifically to non-participating landowners, or say 'none' if the text draws no such distinction.",
}

// OwnershipForkResult pairs an ownership class with its forked excerpt and
// the seeded chat caller, so later multiplier/conditional dialogs can keep
// forking from it.
type OwnershipForkResult struct {
	Class   string
	Excerpt string
	Caller  *llm.ChatCaller
}

// appliesToOwnershipSplit reports whether referenceObject is one of the
// feature's configured ownership-split reference objects (spec §9
// supplemented feature: "ownership fork restricted to structures/property
// line only" — never applied to roads or other reference objects).
func appliesToOwnershipSplit(f Feature, referenceObject string) bool {
	for _, ro := range f.OwnershipSplit {
		if ro == referenceObject {
			return true
		}
	}
	return false
}

// ForkOwnership forks seed into the participating/non-participating
// dialogs (spec §4.8 step 3b), each built by newSeeded from seed so the
// two forks never share mutable transcript state.
func ForkOwnership(ctx context.Context, newSeeded func(seed llm.Transcript) *llm.ChatCaller, callerTask string, seed llm.Transcript) ([]OwnershipForkResult, error) {
	var results []OwnershipForkResult
	for _, class := range []string{OwnershipParticipating, OwnershipNonParticipating} {
		caller := newSeeded(seed)
		text, err := caller.Call(ctx, callerTask, ownershipPrompts[class])
		if err != nil {
			return results, err
		}
		results = append(results, OwnershipForkResult{
			Class:   class,
			Excerpt: text,
			Caller:  caller,
		})
	}
	return results, nil
}
