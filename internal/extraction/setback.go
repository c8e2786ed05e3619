package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/dialog"
	"github.com/NREL/COMPASS/internal/llm"
)

// SeedResult carries the outcome of a base setback dialog: whether a
// setback was found, the raw excerpt (if any), and the seed transcript
// prefix that downstream ownership/multiplier dialogs fork from (spec
// §4.8 step 3a: "the resulting transcript is captured as the seed prefix").
type SeedResult struct {
	Found   bool
	Excerpt string
	Seed    llm.Transcript
}

func buildSetbackGraph(feature, referenceObject string) *dialog.Graph {
	g := dialog.NewGraph("init")
	g.AddNode(&dialog.Node{
		Name: "init",
		PromptTemplate: "Does the text contain a setback requirement for " + feature +
			" measured from " + referenceObject + "? Start with yes or no, then quote the exact raw excerpt establishing the requirement.",
	})
	g.AddNode(&dialog.Node{
		Name:           "excerpt_only",
		PromptTemplate: "Quote the exact raw excerpt establishing the setback requirement for " + feature + " measured from " + referenceObject + ".",
	})
	return g
}

// BaseSetbackDialog runs the base setback dialog for one (feature,
// referenceObject) pair (spec §4.8 step 3a). If foundOrd is true, a
// validator upstream (C5) has already confirmed this feature has a setback
// ordinance somewhere in the document, so the dialog skips straight to the
// excerpt-only node instead of re-asking the yes/no gate (spec §9
// supplemented feature: the found_ord fast path).
func BaseSetbackDialog(ctx context.Context, caller *llm.ChatCaller, callerTask, feature, referenceObject string, foundOrd bool) (SeedResult, error) {
	g := buildSetbackGraph(feature, referenceObject)
	start := g.Init
	if foundOrd {
		start = "excerpt_only"
	}

	out, err := dialog.RunFrom(ctx, g, caller, callerTask, nil, start)
	if err != nil {
		return SeedResult{}, err
	}

	found := foundOrd || dialog.DoesNotStartWithNo(out.Text)
	return SeedResult{
		Found:   found,
		Excerpt: out.Text,
		Seed:    caller.Transcript(),
	}, nil
}
