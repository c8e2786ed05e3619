package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/dialog"
)

// MoratoriumResult captures whether the text imposes an outright
// prohibition/moratorium and, if so, whether it is conditionally scoped to
// expire (spec §9 supplemented feature, recovered from original_source's
// prohibition-handling sub-graph — a complete extraction system needs to
// distinguish a permanent ban from a moratorium pending a future ordinance).
type MoratoriumResult struct {
	Prohibited        bool
	ConditionallyExpires bool
	ExpirationCondition string
}

func buildMoratoriumGraph() *dialog.Graph {
	g := dialog.NewGraph("init")
	g.AddNode(&dialog.Node{
		Name:           "init",
		PromptTemplate: "Does the text impose an outright prohibition or moratorium on this technology? Start with yes or no.",
		Edges: []dialog.Edge{
			{Predicate: dialog.StartsWithYes, Target: "expiration"},
			{Predicate: nil, Target: "no_moratorium"},
		},
	})
	g.AddNode(&dialog.Node{
		Name: "expiration",
		PromptTemplate: "Is the prohibition/moratorium conditioned to expire (e.g. \"until the county adopts a formal ordinance\")? " +
			"Start with yes or no, then state the condition if yes.",
	})
	g.AddNode(&dialog.Node{
		Name:           "no_moratorium",
		PromptTemplate: "Confirm: no prohibition or moratorium applies.",
	})
	return g
}

// AnalyzeMoratorium runs the moratorium/prohibition sub-graph.
func AnalyzeMoratorium(ctx context.Context, caller dialog.ChatCaller, callerTask string) (MoratoriumResult, error) {
	out, err := dialog.Run(ctx, buildMoratoriumGraph(), caller, callerTask, nil)
	if err != nil {
		return MoratoriumResult{}, err
	}
	if out.DeadEnd {
		return MoratoriumResult{}, nil
	}
	last := out.Path[len(out.Path)-1]
	if last == "no_moratorium" {
		return MoratoriumResult{Prohibited: false}, nil
	}
	return MoratoriumResult{
		Prohibited:           true,
		ConditionallyExpires: dialog.StartsWithYes(out.Text),
		ExpirationCondition:  out.Text,
	}, nil
}
