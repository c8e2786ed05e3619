package retrieval

import (
	"context"

	"github.com/NREL/COMPASS/internal/document"
)

// PageValidator answers whether a single page is about the target
// jurisdiction. A nil result is an abstention — spec §4.6's location
// filter excludes abstentions from both the numerator and denominator of
// its weighted vote, rather than counting them as "no".
type PageValidator interface {
	ValidatePage(ctx context.Context, page string) (*bool, error)
}

// LocationFilter keeps docs whose per-page weighted vote (page text length
// as weight) exceeds threshold, preserving relative order (spec §4.6).
func LocationFilter(ctx context.Context, docs []*document.Document, validator PageValidator, threshold float64) ([]*document.Document, error) {
	var kept []*document.Document
	for _, doc := range docs {
		var weightedYes, totalWeight float64
		for _, page := range doc.Pages {
			vote, err := validator.ValidatePage(ctx, page)
			if err != nil {
				return kept, err
			}
			if vote == nil {
				continue
			}
			weight := float64(len(page))
			totalWeight += weight
			if *vote {
				weightedYes += weight
			}
		}
		if totalWeight == 0 {
			continue
		}
		if weightedYes/totalWeight > threshold {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}

// LegalRelevanceChecker performs the staged LLM check that a document is
// legal in nature and pertains to the target technology and scale.
type LegalRelevanceChecker interface {
	IsRelevant(ctx context.Context, text string) (bool, error)
}

// ContentFilter first rejects documents missing every configured keyword
// (cheap heuristic), then runs the staged LLM relevance check on survivors,
// preserving relative order (spec §4.6).
func ContentFilter(ctx context.Context, docs []*document.Document, keywords []string, checker LegalRelevanceChecker) ([]*document.Document, error) {
	var kept []*document.Document
	for _, doc := range docs {
		text := doc.Text()
		if !pageMatchesKeywords(text, keywords) {
			continue
		}
		relevant, err := checker.IsRelevant(ctx, text)
		if err != nil {
			return kept, err
		}
		if relevant {
			kept = append(kept, doc)
		}
	}
	return kept, nil
}
