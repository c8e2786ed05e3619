package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/dialog"
)

// buildClassificationGraph builds the small classification decision tree
// (spec §4.8 step 1): determine whether the text describes the target
// technology's facilities at all and, if so, name the largest-scale system
// class it regulates.
func buildClassificationGraph(technology string) *dialog.Graph {
	g := dialog.NewGraph("init")
	g.AddNode(&dialog.Node{
		Name: "init",
		PromptTemplate: "Does this text describe " + technology +
			" energy facilities subject to siting or zoning regulation? Start your answer with yes or no.",
		Edges: []dialog.Edge{
			{Predicate: dialog.StartsWithNo, Target: "no_match"},
			{Predicate: nil, Target: "name_class"},
		},
	})
	g.AddNode(&dialog.Node{
		Name:           "no_match",
		PromptTemplate: "Confirm: no " + technology + "-specific classification applies to this text.",
	})
	g.AddNode(&dialog.Node{
		Name: "name_class",
		PromptTemplate: "What is the largest-scale system category this text regulates for " +
			technology + "? Respond with just the category name.",
	})
	return g
}

// Classification is the result of the classification decision tree.
type Classification struct {
	Matches     bool
	TargetClass string
}

// Classify runs the classification decision tree against text and reports
// whether it describes technology's target class; callers must not run
// feature extraction when Matches is false (spec §4.8 step 1: "returns an
// empty result for the document").
func Classify(ctx context.Context, caller dialog.ChatCaller, callerTask, technology string) (Classification, error) {
	out, err := dialog.Run(ctx, buildClassificationGraph(technology), caller, callerTask, nil)
	if err != nil {
		return Classification{}, err
	}
	if out.DeadEnd {
		return Classification{}, nil
	}
	last := out.Path[len(out.Path)-1]
	if last == "no_match" {
		return Classification{Matches: false}, nil
	}
	return Classification{Matches: true, TargetClass: out.Text}, nil
}
