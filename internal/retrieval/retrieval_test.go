package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/NREL/COMPASS/internal/document"
)

type stubEngine struct {
	name    string
	results []string
	err     error
}

func (s *stubEngine) Search(_ context.Context, _ string) ([]string, error) {
	return s.results, s.err
}

type stubLoader struct {
	docs map[string]*document.Document
}

func (s *stubLoader) Load(_ context.Context, url string) (*document.Document, error) {
	doc, ok := s.docs[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func TestSearchFallsThroughEngineChain(t *testing.T) {
	primary := &stubEngine{err: errors.New("primary down")}
	secondary := &stubEngine{results: []string{"https://a.example/ord.pdf"}}
	loader := &stubLoader{docs: map[string]*document.Document{
		"https://a.example/ord.pdf": document.New("https://a.example/ord.pdf", []string{"ordinance text"}),
	}}

	f := NewFunnel([]SearchEngine{primary, secondary}, []string{"{{jurisdiction}} solar ordinance"}, loader, 5, 2)
	docs, err := f.Search(context.Background(), "Example County")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Search() returned %d docs, want 1", len(docs))
	}
	if docs[0].Checksum == "" {
		t.Errorf("Search() did not stamp a checksum")
	}
}

func TestSearchDeduplicatesURLsAcrossQueries(t *testing.T) {
	engine := &stubEngine{results: []string{"https://a.example/x", "https://a.example/x"}}
	loader := &stubLoader{docs: map[string]*document.Document{
		"https://a.example/x": document.New("https://a.example/x", []string{"text"}),
	}}
	f := NewFunnel([]SearchEngine{engine}, []string{"q1 {{jurisdiction}}", "q2 {{jurisdiction}}"}, loader, 5, 1)
	docs, err := f.Search(context.Background(), "County")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Search() returned %d docs, want 1 (deduplicated)", len(docs))
	}
}

func TestSearchRespectsMaxURLs(t *testing.T) {
	engine := &stubEngine{results: []string{"u1", "u2", "u3"}}
	loader := &stubLoader{docs: map[string]*document.Document{
		"u1": document.New("u1", []string{"t1"}),
		"u2": document.New("u2", []string{"t2"}),
		"u3": document.New("u3", []string{"t3"}),
	}}
	f := NewFunnel([]SearchEngine{engine}, []string{"q"}, loader, 2, 2)
	docs, err := f.Search(context.Background(), "County")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("Search() returned %d docs, want 2 (MaxURLs bound)", len(docs))
	}
}

type scriptedFetcher struct {
	pages map[string]struct {
		doc   *document.Document
		links []string
	}
}

func (f *scriptedFetcher) Fetch(_ context.Context, url string) (*document.Document, []string, error) {
	p, ok := f.pages[url]
	if !ok {
		return nil, nil, errors.New("not found")
	}
	return p.doc, p.links, nil
}

func TestCrawlPromotesKeywordMatchingPages(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]struct {
		doc   *document.Document
		links []string
	}{
		"root": {doc: document.New("root", []string{"welcome page"}), links: []string{"root/zoning-ordinance"}},
		"root/zoning-ordinance": {doc: document.New("root/zoning-ordinance", []string{"this zoning ordinance sets a setback"})},
	}}
	cfg := CrawlConfig{MaxPages: 10, ScoreFloor: 0, Keywords: []string{"zoning", "setback"}}
	docs, err := Crawl(context.Background(), fetcher, "root", cfg, nil)
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Crawl() returned %d docs, want 1", len(docs))
	}
	if docs[0].Source != "root/zoning-ordinance" {
		t.Errorf("Crawl() promoted %q, want the ordinance page", docs[0].Source)
	}
}

func TestCrawlDropsLinksBelowScoreFloor(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]struct {
		doc   *document.Document
		links []string
	}{
		"root": {doc: document.New("root", []string{"welcome"}), links: []string{"root/about-us"}},
	}}
	cfg := CrawlConfig{MaxPages: 10, ScoreFloor: 0.5, Keywords: []string{"zoning"}}
	docs, err := Crawl(context.Background(), fetcher, "root", cfg, nil)
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Crawl() returned %d docs, want 0", len(docs))
	}
}

func TestCrawlStopsWhenFoundEnough(t *testing.T) {
	fetcher := &scriptedFetcher{pages: map[string]struct {
		doc   *document.Document
		links []string
	}{
		"root": {
			doc:   document.New("root", []string{"zoning hub"}),
			links: []string{"root/a", "root/b"},
		},
		"root/a": {doc: document.New("root/a", []string{"zoning setback a"})},
		"root/b": {doc: document.New("root/b", []string{"zoning setback b"})},
	}}
	cfg := CrawlConfig{MaxPages: 10, ScoreFloor: 0, Keywords: []string{"zoning"}}
	calls := 0
	docs, err := Crawl(context.Background(), fetcher, "root", cfg, func(found []*document.Document) bool {
		calls++
		return len(found) >= 1
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Crawl() returned %d docs, want 1 (stopped early)", len(docs))
	}
}

func TestLoadKnownDocsMissingJurisdictionIsEmptyNotError(t *testing.T) {
	docs, err := LoadKnownDocs(KnownDocsManifest{}, "Nowhere County")
	if err != nil {
		t.Fatalf("LoadKnownDocs() error = %v", err)
	}
	if docs != nil {
		t.Errorf("LoadKnownDocs() = %v, want nil", docs)
	}
}

type scriptedPageValidator struct {
	votes map[string]*bool
}

func (v *scriptedPageValidator) ValidatePage(_ context.Context, page string) (*bool, error) {
	return v.votes[page], nil
}

func boolPtr(b bool) *bool { return &b }

func TestLocationFilterExcludesAbstentionsFromVote(t *testing.T) {
	doc := document.New("doc", []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"})
	validator := &scriptedPageValidator{votes: map[string]*bool{
		"aaaaaaaaaa": boolPtr(true),
		"bbbbbbbbbb": nil, // abstention: excluded from both numerator and denominator
		"cccccccccc": boolPtr(false),
	}}
	kept, err := LocationFilter(context.Background(), []*document.Document{doc}, validator, 0.4)
	if err != nil {
		t.Fatalf("LocationFilter() error = %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("LocationFilter() kept %d docs, want 1 (weighted vote 0.5 > 0.4)", len(kept))
	}
}

func TestLocationFilterDropsBelowThreshold(t *testing.T) {
	doc := document.New("doc", []string{"aaaaaaaaaa", "bbbbbbbbbb"})
	validator := &scriptedPageValidator{votes: map[string]*bool{
		"aaaaaaaaaa": boolPtr(false),
		"bbbbbbbbbb": boolPtr(false),
	}}
	kept, err := LocationFilter(context.Background(), []*document.Document{doc}, validator, 0.1)
	if err != nil {
		t.Fatalf("LocationFilter() error = %v", err)
	}
	if len(kept) != 0 {
		t.Errorf("LocationFilter() kept %d docs, want 0", len(kept))
	}
}

type scriptedChecker struct {
	relevant map[string]bool
}

func (c *scriptedChecker) IsRelevant(_ context.Context, text string) (bool, error) {
	return c.relevant[text], nil
}

func TestContentFilterRejectsOnKeywordScanBeforeCallingChecker(t *testing.T) {
	doc := document.New("doc", []string{"irrelevant municipal minutes"})
	checker := &scriptedChecker{relevant: map[string]bool{}}
	kept, err := ContentFilter(context.Background(), []*document.Document{doc}, []string{"setback", "ordinance"}, checker)
	if err != nil {
		t.Fatalf("ContentFilter() error = %v", err)
	}
	if len(kept) != 0 {
		t.Errorf("ContentFilter() kept %d docs, want 0 (no keyword hit)", len(kept))
	}
}

func TestContentFilterKeepsRelevantDocs(t *testing.T) {
	text := "this zoning ordinance sets a setback"
	doc := document.New("doc", []string{text})
	checker := &scriptedChecker{relevant: map[string]bool{text: true}}
	kept, err := ContentFilter(context.Background(), []*document.Document{doc}, []string{"setback"}, checker)
	if err != nil {
		t.Fatalf("ContentFilter() error = %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("ContentFilter() kept %d docs, want 1", len(kept))
	}
}

func TestRankOrdersByYearThenPDFThenScores(t *testing.T) {
	older := document.New("older", []string{"short"})
	older.Date = document.Date{Year: 2019}

	newerHTML := document.New("newerHTML", []string{"text"})
	newerHTML.Date = document.Date{Year: 2023}
	document.SetAttr(newerHTML, AttrIsPDF, false)
	document.SetAttr(newerHTML, AttrJurisdictionScore, 0.9)

	newerPDF := document.New("newerPDF", []string{"text"})
	newerPDF.Date = document.Date{Year: 2023}
	document.SetAttr(newerPDF, AttrIsPDF, true)
	document.SetAttr(newerPDF, AttrJurisdictionScore, 0.5)

	ranked := Rank([]*document.Document{older, newerHTML, newerPDF})
	if ranked[0].Source != "newerPDF" {
		t.Errorf("Rank()[0] = %q, want newerPDF (same year, PDF wins over HTML)", ranked[0].Source)
	}
	if ranked[2].Source != "older" {
		t.Errorf("Rank()[2] = %q, want older (lowest year last)", ranked[2].Source)
	}
}

func TestRankPrefersShorterTextOnTie(t *testing.T) {
	short := document.New("short", []string{"ab"})
	long := document.New("long", []string{"abcdefghij"})
	ranked := Rank([]*document.Document{long, short})
	if ranked[0].Source != "short" {
		t.Errorf("Rank()[0] = %q, want short (shorter text ranks first on tie)", ranked[0].Source)
	}
}
