package extraction

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/NREL/COMPASS/internal/llm"
)

// NewChatCaller builds a fresh chat caller seeded with system — supplied by
// the orchestrator, which owns the concrete llm.Base (runtime, model,
// usage tracker) wiring; this package only needs the resulting caller.
type NewChatCaller func(system string) *llm.ChatCaller

func seededCaller(factory NewChatCaller, system string, seed llm.Transcript) *llm.ChatCaller {
	c := factory(system)
	c.Seed(seed)
	return c
}

func systemPromptFor(text string) string {
	return "You are extracting zoning ordinance values from the following text. " +
		"Answer every question precisely and only from this text.\n\n" + text
}

// ExtractDocument runs the full structured-extraction pipeline (spec
// §4.8) over one narrowed ordinance text: classify, then run every
// feature's dialog chain concurrently (bounded only by the LLM service's
// own rate limiter — no internal semaphore, per spec §4.8 closing note).
func ExtractDocument(ctx context.Context, newCaller NewChatCaller, callerTask, technology, text string, adderClampFeet float64) ([]OrdinanceValueRow, error) {
	system := systemPromptFor(text)

	cls, err := Classify(ctx, newCaller(system), callerTask, technology)
	if err != nil {
		return nil, err
	}
	if !cls.Matches {
		return nil, nil
	}

	features := FeaturesFor(technology)
	perFeature := make([][]OrdinanceValueRow, len(features))

	g, gctx := errgroup.WithContext(ctx)
	for i, feature := range features {
		i, feature := i, feature
		g.Go(func() error {
			rows, err := extractFeature(gctx, newCaller, callerTask, system, feature, adderClampFeet)
			if err != nil {
				return err
			}
			perFeature[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []OrdinanceValueRow
	for _, rows := range perFeature {
		all = append(all, rows...)
	}
	return all, nil
}

func extractFeature(ctx context.Context, newCaller NewChatCaller, callerTask, system string, feature Feature, adderClampFeet float64) ([]OrdinanceValueRow, error) {
	switch feature.Kind {
	case Setback:
		return extractSetbackFeature(ctx, newCaller, callerTask, system, feature, adderClampFeet)
	case NumericalNonSetback:
		caller := newCaller(system)
		row, err := runMultiplierChain(ctx, caller, callerTask, feature.Name, "", "", adderClampFeet)
		if err != nil {
			return nil, err
		}
		return []OrdinanceValueRow{row}, nil
	case Qualitative:
		return extractQualitativeFeature(ctx, newCaller, callerTask, system, feature)
	default:
		return nil, nil
	}
}

func extractSetbackFeature(ctx context.Context, newCaller NewChatCaller, callerTask, system string, feature Feature, adderClampFeet float64) ([]OrdinanceValueRow, error) {
	var rows []OrdinanceValueRow
	for _, ref := range feature.ReferenceObjects {
		caller := newCaller(system)
		seed, err := BaseSetbackDialog(ctx, caller, callerTask, feature.Name, ref, false)
		if err != nil {
			return rows, err
		}
		if !seed.Found {
			continue
		}

		if appliesToOwnershipSplit(feature, ref) {
			forks, err := ForkOwnership(ctx, func(s llm.Transcript) *llm.ChatCaller {
				return seededCaller(newCaller, system, s)
			}, callerTask, seed.Seed)
			if err != nil {
				return rows, err
			}
			for _, fork := range forks {
				row, err := runMultiplierChain(ctx, fork.Caller, callerTask, feature.Name, ref, fork.Class, adderClampFeet)
				if err != nil {
					return rows, err
				}
				rows = append(rows, row)
			}
			continue
		}

		forked := seededCaller(newCaller, system, seed.Seed)
		row, err := runMultiplierChain(ctx, forked, callerTask, feature.Name, ref, "", adderClampFeet)
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func extractQualitativeFeature(ctx context.Context, newCaller NewChatCaller, callerTask, system string, feature Feature) ([]OrdinanceValueRow, error) {
	caller := newCaller(system)
	reply, err := caller.Call(ctx, callerTask, "Summarize any "+feature.Name+" requirement in the text, or say 'none' if the text is silent on it.")
	if err != nil {
		return nil, err
	}
	row := OrdinanceValueRow{Feature: feature.Name, Quantitative: false}
	if !strings.EqualFold(strings.TrimSpace(reply), "none") {
		row.Summary = &reply
	}
	return []OrdinanceValueRow{NormalizeRow(row)}, nil
}

func runMultiplierChain(ctx context.Context, caller *llm.ChatCaller, callerTask, featureName, referenceObject, ownershipClass string, adderClampFeet float64) (OrdinanceValueRow, error) {
	mult, err := MultiplierDialog(ctx, caller, callerTask)
	if err != nil {
		return OrdinanceValueRow{}, err
	}
	min, err := ConditionalMinDialog(ctx, caller, callerTask, mult)
	if err != nil {
		return OrdinanceValueRow{}, err
	}
	max, err := ConditionalMaxDialog(ctx, caller, callerTask, mult)
	if err != nil {
		return OrdinanceValueRow{}, err
	}

	row := OrdinanceValueRow{
		Feature:         featureName,
		ReferenceObject: referenceObject,
		OwnershipClass:  ownershipClass,
		Value:           mult.Value,
		Adder:           ClampAdder(mult.Adder, adderClampFeet),
		MinDist:         min.Value,
		MaxDist:         max.Value,
		Quantitative:    mult.Value != nil,
	}
	if mult.Units != "" {
		units := mult.Units
		row.Units = &units
	}
	if mult.Summary != "" {
		summary := mult.Summary
		row.Summary = &summary
	}
	return NormalizeRow(row), nil
}
