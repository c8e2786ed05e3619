package orchestrator

import (
	"context"
	"strings"

	"github.com/NREL/COMPASS/internal/dialog"
	"github.com/NREL/COMPASS/internal/llm"
)

// buildJurisdictionGraph is a one-node decision tree: a single question with
// no outgoing edges, so dialog.Run always terminates after the first reply.
// Reusing the decision-tree engine here (rather than a bespoke yes/no call)
// is what spec §4.6 means by "a DTree jurisdiction validator".
func buildJurisdictionGraph() *dialog.Graph {
	g := dialog.NewGraph("init")
	g.AddNode(&dialog.Node{
		Name: "init",
		PromptTemplate: "Here is one page of a retrieved document:\n\n{{page}}\n\n" +
			"Does this page pertain to the jurisdiction \"{{jurisdiction}}\"? " +
			"Start your answer with yes, no, or unsure.",
	})
	return g
}

// jurisdictionPageValidator adapts the classification decision tree into
// retrieval.PageValidator. A fresh caller is built per page so pages never
// share transcript state.
type jurisdictionPageValidator struct {
	newCaller        NewChatCaller
	callerTask       string
	jurisdictionName string
	graph            *dialog.Graph
}

func newJurisdictionPageValidator(newCaller NewChatCaller, callerTask, jurisdictionName string) *jurisdictionPageValidator {
	return &jurisdictionPageValidator{
		newCaller:        newCaller,
		callerTask:       callerTask,
		jurisdictionName: jurisdictionName,
		graph:            buildJurisdictionGraph(),
	}
}

// ValidatePage reports true/false/abstain (nil) per spec §4.6's weighted
// vote: an unsure reply or a dead end abstains rather than counting as "no".
func (v *jurisdictionPageValidator) ValidatePage(ctx context.Context, page string) (*bool, error) {
	caller := v.newCaller("You validate whether a page of text pertains to a named jurisdiction.")
	out, err := dialog.Run(ctx, v.graph, caller, v.callerTask, map[string]string{
		"jurisdiction": v.jurisdictionName,
		"page":         page,
	})
	if err != nil {
		return nil, err
	}
	if out.DeadEnd {
		return nil, nil
	}
	switch {
	case dialog.StartsWithYes(out.Text):
		t := true
		return &t, nil
	case dialog.StartsWithNo(out.Text):
		f := false
		return &f, nil
	default:
		return nil, nil
	}
}

// legalRelevanceChecker adapts a one-shot caller into retrieval's staged LLM
// relevance check: is the document legal in nature and about the target
// technology at the target scale (spec §4.6 step, content filter).
type legalRelevanceChecker struct {
	caller       *llm.Caller
	callerTask   string
	systemPrompt string
}

func newLegalRelevanceChecker(caller *llm.Caller, callerTask, technology string) *legalRelevanceChecker {
	return &legalRelevanceChecker{
		caller:     caller,
		callerTask: callerTask,
		systemPrompt: "Is the following text a legal ordinance or zoning regulation that pertains to " +
			technology + " energy facilities sited at utility scale? Start your answer with yes or no.",
	}
}

func (c *legalRelevanceChecker) IsRelevant(ctx context.Context, text string) (bool, error) {
	reply, err := c.caller.Call(ctx, c.callerTask, c.systemPrompt, text)
	if err != nil {
		return false, err
	}
	if reply == nil {
		return false, nil
	}
	return dialog.StartsWithYes(strings.TrimSpace(*reply)), nil
}
