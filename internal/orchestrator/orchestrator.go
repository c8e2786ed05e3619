// Package orchestrator implements the Per-Jurisdiction Orchestrator (C9):
// for one jurisdiction, composes the retrieval funnel (C6), the narrowing
// pipeline (C7), and structured extraction (C8), then persists the results
// (spec §4.9).
package orchestrator

import (
	"context"
	"path/filepath"
	"time"

	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/document"
	"github.com/NREL/COMPASS/internal/extraction"
	"github.com/NREL/COMPASS/internal/jlog"
	"github.com/NREL/COMPASS/internal/jurisdiction"
	"github.com/NREL/COMPASS/internal/llm"
	"github.com/NREL/COMPASS/internal/narrowing"
	"github.com/NREL/COMPASS/internal/retrieval"
	"github.com/NREL/COMPASS/internal/runtime"
	"github.com/NREL/COMPASS/internal/usage"
)

// NewChatCaller builds a fresh chat caller seeded with system. Reusing
// extraction's definition keeps one factory shape threaded from the driver
// through the orchestrator down into C8, rather than inventing a parallel
// type for the same concept.
type NewChatCaller = extraction.NewChatCaller

// Paths names the artifact locations one jurisdiction's run writes into.
type Paths struct {
	CleanedTextFile string
	ValuesCSVFile   string
	RawDocumentFile string
	ManifestFile    string
}

// Result is what Run hands the driver for one jurisdiction. A nil Result
// means the task failed (spec §4.9: "on any exception... return nil");
// Rows is nil (not an error) when no ordinance document was found.
type Result struct {
	Jurisdiction     jurisdiction.Reference
	Found            bool
	Rows             []extraction.OrdinanceValueRow
	Usage            usage.Record
	Cost             float64
	ContainmentScore float64
	Source           string // the best document's URL/path, empty when not Found
	OrdYear          int    // the best document's effective year
	LastUpdated      string // RFC3339 timestamp this jurisdiction's artifacts were written
}

// Orchestrator holds every piece of wiring Run needs for one jurisdiction.
// A single Orchestrator value is shared (read-only) across concurrently
// running jurisdictions; only ProcessUsage is mutated, and it is already
// safe for concurrent use.
type Orchestrator struct {
	// Retrieval (C6).
	Funnel      *retrieval.Funnel
	Strategies  []retrieval.Strategy
	Crawler     retrieval.PageFetcher // nil disables the crawl strategy
	CrawlConfig retrieval.CrawlConfig
	KnownDocs   retrieval.KnownDocsManifest

	NewJurisdictionCaller NewChatCaller // nil disables the location filter
	LocationThreshold     float64

	LegalCaller     *llm.Caller // nil disables the content filter
	ContentKeywords []string

	// Narrowing (C7).
	ChunkSize, ChunkOverlap int
	NarrowingCaller         narrowing.ChunkCaller
	NarrowingStages         []narrowing.Stage

	// Extraction (C8).
	NewExtractionCaller NewChatCaller
	Technology          string
	AdderClampFeet      float64

	// Usage/cost (C2).
	Pricing      map[string]usage.Pricing
	ProcessUsage *usage.Tracker // merged into at the end of every jurisdiction's run
}

// Run executes the full per-jurisdiction pipeline. It never returns an
// error: a returned error is logged to the jurisdiction's log file as a
// corerr.TaskFailure, a recovered panic is logged with its panic value,
// accumulated usage is
// still merged into ProcessUsage, and Run returns nil so sibling
// jurisdictions are unaffected (spec §7 item 8).
func (o *Orchestrator) Run(ctx context.Context, rt *runtime.Runtime, ref jurisdiction.Reference, paths Paths, progress ProgressReporter) (res *Result) {
	if progress == nil {
		progress = NoopProgress{}
	}
	name := ref.FullName()
	ctx = jlog.Scope(ctx, name)
	tracker := usage.NewTracker(name)

	defer progress.Done()
	defer func() {
		if r := recover(); r != nil {
			jlog.From(ctx).Error("jurisdiction task panicked", "panic", r)
			res = nil
		}
		if o.ProcessUsage != nil {
			o.ProcessUsage.Merge(tracker)
		}
	}()

	result, err := o.runPipeline(ctx, rt, ref, paths, tracker, progress)
	if err != nil {
		failure := corerr.NewTaskFailure(name, err)
		jlog.From(ctx).Error("jurisdiction task failed", "error", failure)
		return nil
	}
	return result
}

func (o *Orchestrator) runPipeline(ctx context.Context, rt *runtime.Runtime, ref jurisdiction.Reference, paths Paths, tracker *usage.Tracker, progress ProgressReporter) (*Result, error) {
	name := ref.FullName()
	callerTask := name

	progress.SetStatus("retrieving")
	docs, err := o.retrieve(ctx, ref)
	if err != nil {
		return nil, err
	}

	progress.SetStatus("filtering")
	docs, err = o.filter(ctx, callerTask, docs, ref)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		if err := o.appendManifest(ctx, rt, callerTask, paths, ManifestEntry{FullName: name, Found: false}); err != nil {
			return nil, err
		}
		return &Result{Jurisdiction: ref, Found: false}, nil
	}

	best := retrieval.Rank(docs)[0]

	progress.SetStatus("narrowing")
	cleaned, containment, err := o.narrow(ctx, best)
	if err != nil {
		return nil, err
	}

	progress.SetStatus("extracting")
	rows, err := o.extract(ctx, callerTask, cleaned)
	if err != nil {
		return nil, err
	}

	progress.SetStatus("persisting")
	lastUpdated := time.Now().UTC().Format(time.RFC3339)
	if err := o.persist(ctx, rt, callerTask, paths, ref, best, cleaned, rows, containment, lastUpdated, tracker); err != nil {
		return nil, err
	}

	return &Result{
		Jurisdiction:     ref,
		Found:            true,
		Rows:             rows,
		Usage:            tracker.Record(),
		Cost:             tracker.EstimateCost(o.Pricing),
		ContainmentScore: containment,
		Source:           best.Source,
		OrdYear:          best.Date.Year,
		LastUpdated:      lastUpdated,
	}, nil
}

func (o *Orchestrator) retrieve(ctx context.Context, ref jurisdiction.Reference) ([]*document.Document, error) {
	name := ref.FullName()
	var docs []*document.Document

	for _, strat := range o.Strategies {
		switch strat {
		case retrieval.StrategySearchEngineQuery:
			if o.Funnel == nil {
				continue
			}
			found, err := o.Funnel.Search(ctx, name)
			if err != nil {
				return docs, err
			}
			docs = append(docs, found...)

		case retrieval.StrategyCrawlJurisdictionSite:
			if o.Crawler == nil || ref.Website == "" {
				continue
			}
			found, err := retrieval.Crawl(ctx, o.Crawler, ref.Website, o.CrawlConfig, nil)
			if err != nil {
				return docs, err
			}
			docs = append(docs, found...)

		case retrieval.StrategyLoadKnownLocalDocs:
			found, err := retrieval.LoadKnownDocs(o.KnownDocs, name)
			if err != nil {
				return docs, err
			}
			docs = append(docs, found...)
		}
	}

	return docs, nil
}

func (o *Orchestrator) filter(ctx context.Context, callerTask string, docs []*document.Document, ref jurisdiction.Reference) ([]*document.Document, error) {
	var err error

	if o.NewJurisdictionCaller != nil {
		validator := newJurisdictionPageValidator(o.NewJurisdictionCaller, callerTask, ref.FullName())
		docs, err = retrieval.LocationFilter(ctx, docs, validator, o.LocationThreshold)
		if err != nil {
			return nil, err
		}
	}

	if o.LegalCaller != nil {
		checker := newLegalRelevanceChecker(o.LegalCaller, callerTask, o.Technology)
		docs, err = retrieval.ContentFilter(ctx, docs, o.ContentKeywords, checker)
		if err != nil {
			return nil, err
		}
	}

	return docs, nil
}

// narrow runs every configured stage in sequence (broadest -> narrowest,
// spec §4.7), re-splitting each stage's merged output into fresh chunks for
// the next stage, and scores the final text's n-gram containment against
// the original document text.
func (o *Orchestrator) narrow(ctx context.Context, doc *document.Document) (string, float64, error) {
	original := doc.Text()
	if o.NarrowingCaller == nil || len(o.NarrowingStages) == 0 {
		return original, 1, nil
	}

	chunks := SplitChunks(original, o.ChunkSize, o.ChunkOverlap)
	text := original
	for _, stage := range o.NarrowingStages {
		merged, err := stage.Run(ctx, o.NarrowingCaller, doc.Source, chunks)
		if err != nil {
			return "", 0, err
		}
		text = merged
		chunks = SplitChunks(text, o.ChunkSize, o.ChunkOverlap)
	}

	containment := narrowing.ContainmentScore(original, text, 3)
	document.SetAttr(doc, "cleaned_ordinance_text", text)
	return text, containment, nil
}

func (o *Orchestrator) extract(ctx context.Context, callerTask, text string) ([]extraction.OrdinanceValueRow, error) {
	if o.NewExtractionCaller == nil {
		return nil, nil
	}
	return extraction.ExtractDocument(ctx, o.NewExtractionCaller, callerTask, o.Technology, text, o.AdderClampFeet)
}

func (o *Orchestrator) persist(ctx context.Context, rt *runtime.Runtime, callerTask string, paths Paths, ref jurisdiction.Reference, doc *document.Document, cleanedText string, rows []extraction.OrdinanceValueRow, containment float64, lastUpdated string, tracker *usage.Tracker) error {
	if _, err := rt.Submit(ctx, StorageService, callerTask, WriteFileArgs{Path: paths.CleanedTextFile, Data: []byte(cleanedText)}); err != nil {
		return err
	}

	csvData, err := EncodeValuesCSV(ref, rows, doc.Date.Year, lastUpdated, doc.Source)
	if err != nil {
		return err
	}
	if _, err := rt.Submit(ctx, StorageService, callerTask, WriteFileArgs{Path: paths.ValuesCSVFile, Data: csvData}); err != nil {
		return err
	}

	if _, err := rt.Submit(ctx, StorageService, callerTask, WriteFileArgs{Path: paths.RawDocumentFile, Data: []byte(doc.Text())}); err != nil {
		return err
	}

	return o.appendManifest(ctx, rt, callerTask, paths, ManifestEntry{
		FullName: ref.FullName(),
		Found:    true,
		Cost:     tracker.EstimateCost(o.Pricing),
		Documents: []ManifestDocument{{
			Source:        doc.Source,
			OrdFilename:   filepath.Base(paths.RawDocumentFile),
			EffectiveYear: doc.Date.Year,
			NumPages:      len(doc.Pages),
			Checksum:      doc.Checksum,
			FromOCR:       doc.FromOCR,
			NGramScore:    containment,
		}},
	})
}

func (o *Orchestrator) appendManifest(ctx context.Context, rt *runtime.Runtime, callerTask string, paths Paths, entry ManifestEntry) error {
	if paths.ManifestFile == "" {
		return nil
	}
	_, err := rt.Submit(ctx, StorageService, callerTask, AppendManifestArgs{Path: paths.ManifestFile, Entry: entry})
	return err
}
