// Package retrieval implements the Document Retrieval Funnel (C6): ordered
// search/crawl/known-docs strategies feeding a location filter, a content
// filter, and a final descending score/sort (spec §4.6).
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/NREL/COMPASS/internal/document"
)

// Strategy names the retrieval strategies a jurisdiction's configuration
// may enumerate, in the order they run.
type Strategy string

const (
	StrategySearchEngineQuery     Strategy = "search_engine_query"
	StrategyCrawlJurisdictionSite Strategy = "crawl_jurisdiction_website"
	StrategyLoadKnownLocalDocs    Strategy = "load_known_local_docs"
)

// SearchEngine issues one query and returns candidate URLs.
type SearchEngine interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Loader fetches one URL's content into a Document, stamping pages as it
// goes; implementations wrap a browser-capable fetch (e.g. playwright-go).
type Loader interface {
	Load(ctx context.Context, url string) (*document.Document, error)
}

// Funnel runs the configured retrieval strategies for one jurisdiction and
// hands back a ranked slice of candidate documents.
type Funnel struct {
	SearchEngines   []SearchEngine // fallback chain: primary first
	QueryTemplates  []string       // each contains a "{{jurisdiction}}" placeholder
	Loader          Loader
	MaxURLs         int
	BrowserSem      *semaphore.Weighted // bounds concurrent Loader.Load calls
}

// NewFunnel builds a Funnel with a browser semaphore sized maxConcurrentBrowsers.
func NewFunnel(engines []SearchEngine, queryTemplates []string, loader Loader, maxURLs, maxConcurrentBrowsers int) *Funnel {
	if maxConcurrentBrowsers < 1 {
		maxConcurrentBrowsers = 1
	}
	return &Funnel{
		SearchEngines:  engines,
		QueryTemplates: queryTemplates,
		Loader:         loader,
		MaxURLs:        maxURLs,
		BrowserSem:     semaphore.NewWeighted(int64(maxConcurrentBrowsers)),
	}
}

// Search runs the "search_engine_query" strategy: format every query
// template with jurisdictionName, fall through the engine chain per query,
// collect up to MaxURLs unique URLs, then fetch each through Loader bounded
// by BrowserSem, stamping a checksum onto every fetched document.
func (f *Funnel) Search(ctx context.Context, jurisdictionName string) ([]*document.Document, error) {
	seen := make(map[string]bool)
	var urls []string

	for _, tmpl := range f.QueryTemplates {
		if len(urls) >= f.MaxURLs {
			break
		}
		query := strings.ReplaceAll(tmpl, "{{jurisdiction}}", jurisdictionName)
		found, err := f.searchWithFallback(ctx, query)
		if err != nil {
			continue // a query that exhausts the whole fallback chain is skipped, not fatal
		}
		for _, u := range found {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
			if len(urls) >= f.MaxURLs {
				break
			}
		}
	}

	return f.fetchAll(ctx, urls)
}

// searchWithFallback tries each engine in order, returning the first
// non-empty result.
func (f *Funnel) searchWithFallback(ctx context.Context, query string) ([]string, error) {
	var lastErr error
	for _, eng := range f.SearchEngines {
		results, err := eng.Search(ctx, query)
		if err != nil {
			lastErr = err
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("retrieval: no search engine returned results for query %q", query)
}

// fetchAll loads every URL concurrently, bounded by BrowserSem, stamping a
// checksum onto every successfully loaded document. A single URL's
// failure does not abort the others.
func (f *Funnel) fetchAll(ctx context.Context, urls []string) ([]*document.Document, error) {
	type result struct {
		doc *document.Document
		err error
	}
	results := make(chan result, len(urls))

	for _, u := range urls {
		u := u
		go func() {
			if err := f.BrowserSem.Acquire(ctx, 1); err != nil {
				results <- result{err: err}
				return
			}
			defer f.BrowserSem.Release(1)

			doc, err := f.Loader.Load(ctx, u)
			if err != nil {
				results <- result{err: err}
				return
			}
			document.Stamp(doc, []byte(doc.Text()))
			results <- result{doc: doc}
		}()
	}

	var docs []*document.Document
	for range urls {
		r := <-results
		if r.err != nil {
			continue
		}
		docs = append(docs, r.doc)
	}
	return docs, nil
}
