package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/NREL/COMPASS/internal/document"
)

// Loader adapts Pool to retrieval.Loader/retrieval.PageFetcher: every call
// acquires a context/page, navigates once, extracts the rendered text and
// outgoing links, then releases the instance back to the pool.
type Loader struct {
	Pool *Pool
}

// NewLoader wraps an already-started Pool.
func NewLoader(pool *Pool) *Loader {
	return &Loader{Pool: pool}
}

// Load implements retrieval.Loader: fetch url, split its rendered text into
// a single-page document, and stamp a checksum over that rendered text.
func (l *Loader) Load(ctx context.Context, url string) (*document.Document, error) {
	doc, _, err := l.fetch(ctx, url, false)
	return doc, err
}

// Fetch implements retrieval.PageFetcher: same as Load, plus the page's
// outgoing links for the crawl strategy's frontier.
func (l *Loader) Fetch(ctx context.Context, url string) (*document.Document, []string, error) {
	return l.fetch(ctx, url, true)
}

func (l *Loader) fetch(ctx context.Context, url string, wantLinks bool) (*document.Document, []string, error) {
	inst, err := l.Pool.Acquire()
	if err != nil {
		return nil, nil, err
	}
	defer l.Pool.Release(inst)

	done := make(chan struct{})
	var doc *document.Document
	var links []string
	var fetchErr error

	go func() {
		defer close(done)
		if _, err := inst.Page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		}); err != nil {
			fetchErr = fmt.Errorf("browser: navigating to %s: %w", url, err)
			return
		}
		text, err := extractText(inst.Page)
		if err != nil {
			fetchErr = err
			return
		}
		doc = document.New(url, []string{text})
		document.Stamp(doc, []byte(text))

		if wantLinks {
			links, fetchErr = extractLinks(inst.Page)
		}
	}()

	select {
	case <-done:
		return doc, links, fetchErr
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func extractLinks(page playwright.Page) ([]string, error) {
	raw, err := page.EvalOnSelector("body", `() => Array.from(document.querySelectorAll('a[href]')).map(a => a.href)`)
	if err != nil {
		return nil, fmt.Errorf("browser: extracting links: %w", err)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
