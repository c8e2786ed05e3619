package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/NREL/COMPASS/internal/document"
)

// PageFetcher fetches one page's content and outgoing links for the crawl
// strategy; kept distinct from Loader because a crawl needs link discovery
// a plain document fetch does not.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (doc *document.Document, links []string, err error)
}

// CrawlConfig bounds a jurisdiction website crawl.
type CrawlConfig struct {
	MaxPages   int
	ScoreFloor float64  // links scoring below this are dropped, never enqueued
	Keywords   []string // used both for link scoring and the page-promotion heuristic
}

// linkScore weights a URL by how many configured keywords it contains,
// normalized to [0,1] by the keyword count — a cheap proxy for "likely to
// lead to an ordinance document" used to prioritize the BFS frontier.
func linkScore(url string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(url)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// pageMatchesKeywords is the cheap heuristic promotion check: a page is
// worth keeping only if its text contains at least one configured keyword.
func pageMatchesKeywords(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

type frontierEntry struct {
	url   string
	score float64
}

// Crawl runs a BFS-with-score crawl of a jurisdiction's website, bounded by
// cfg.MaxPages, dropping links scoring below cfg.ScoreFloor and promoting
// pages whose text matches cfg.Keywords. foundEnough, if non-nil, is
// consulted after every promoted page and can terminate the crawl early.
func Crawl(ctx context.Context, fetcher PageFetcher, startURL string, cfg CrawlConfig, foundEnough func([]*document.Document) bool) ([]*document.Document, error) {
	visited := map[string]bool{startURL: true}
	frontier := []frontierEntry{{url: startURL, score: 1}}
	var results []*document.Document

	for len(frontier) > 0 && len(visited) <= cfg.MaxPages {
		sort.Slice(frontier, func(i, j int) bool { return frontier[i].score > frontier[j].score })
		next := frontier[0]
		frontier = frontier[1:]

		if err := ctx.Err(); err != nil {
			return results, err
		}

		doc, links, err := fetcher.Fetch(ctx, next.url)
		if err != nil {
			continue // an unreachable page is skipped, not fatal to the crawl
		}

		if doc != nil && pageMatchesKeywords(doc.Text(), cfg.Keywords) {
			document.Stamp(doc, []byte(doc.Text()))
			results = append(results, doc)
			if foundEnough != nil && foundEnough(results) {
				return results, nil
			}
		}

		for _, link := range links {
			if visited[link] {
				continue
			}
			score := linkScore(link, cfg.Keywords)
			if score < cfg.ScoreFloor {
				continue
			}
			visited[link] = true
			frontier = append(frontier, frontierEntry{url: link, score: score})
		}
	}

	return results, nil
}
