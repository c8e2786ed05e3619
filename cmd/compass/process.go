package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/NREL/COMPASS/internal/config"
	"github.com/NREL/COMPASS/internal/driver"
	"github.com/NREL/COMPASS/internal/jlog"
	"github.com/NREL/COMPASS/internal/jurisdiction"
	"github.com/NREL/COMPASS/internal/llm"
	"github.com/NREL/COMPASS/internal/llm/provider/anthropic"
	"github.com/NREL/COMPASS/internal/llm/provider/bedrock"
	"github.com/NREL/COMPASS/internal/llm/provider/openai"
	"github.com/NREL/COMPASS/internal/orchestrator"
	"github.com/NREL/COMPASS/internal/ratelimit"
	"github.com/NREL/COMPASS/internal/retrieval"
	"github.com/NREL/COMPASS/internal/retrieval/browser"
	"github.com/NREL/COMPASS/internal/runstate"
	"github.com/NREL/COMPASS/internal/runtime"
	"github.com/NREL/COMPASS/internal/usage"
)

// The four task categories a process run binds an LLM model to, covering
// the location filter, content filter, narrowing pipeline, and extraction
// stage respectively (spec §4.6-§4.8).
const (
	categoryJurisdictionValidation = "jurisdiction_validation"
	categoryContentValidation      = "document_content_validation"
	categoryTextNarrowing          = "text_narrowing"
	categoryFeatureExtraction      = "feature_extraction"
)

// processFlags holds every spec §6 CLI contract flag: output dir, tech,
// jurisdiction file, model, rate limit, chunk size/overlap, concurrency
// caps, search-engine config, OCR binary path, known-docs manifest,
// verbosity, log level.
type processFlags struct {
	configPath          string
	outputDir           string
	technology          string
	jurisdictionCSV     string
	knownDocsManifest   string
	model               string
	requestsPerMinute   float64
	chunkSize           int
	chunkOverlap        int
	maxConcurrentJurs   int
	maxConcurrentBrwsrs int
	searchEngineName    string
	searchEngineAPIKey  string
	ocrBinary           string // accepted for CLI-contract parity; OCR is an external collaborator (spec §1 Non-goals), never invoked here
	verbose             bool
	logLevel            string
	runStateBackend     string
	runStatePath        string
}

func buildProcessCmd() *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the ordinance-extraction pipeline over a jurisdiction list",
		Long: `process retrieves, narrows, and extracts ordinance values for every
jurisdiction in the reference CSV, then writes the run's combined CSV,
usage, and meta outputs to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "path to a YAML/JSON5 run configuration file")
	f.StringVar(&flags.outputDir, "output-dir", "", "directory the run's outputs are written to (overrides config)")
	f.StringVar(&flags.technology, "tech", "", "target technology: wind or solar (overrides config)")
	f.StringVar(&flags.jurisdictionCSV, "jurisdiction-file", "", "path to the jurisdiction reference CSV (overrides config)")
	f.StringVar(&flags.knownDocsManifest, "known-docs-manifest", "", "path to a known-documents JSON manifest (overrides config)")
	f.StringVar(&flags.model, "model", "", "override every configured task category's model name")
	f.Float64Var(&flags.requestsPerMinute, "rate-limit", 0, "override every configured task category's requests-per-minute cap")
	f.IntVar(&flags.chunkSize, "chunk-size", 0, "override the narrowing/validator chunk size in characters")
	f.IntVar(&flags.chunkOverlap, "chunk-overlap", 0, "override the narrowing/validator chunk overlap in characters")
	f.IntVar(&flags.maxConcurrentJurs, "max-concurrent-jurisdictions", 0, "bound how many jurisdictions run at once")
	f.IntVar(&flags.maxConcurrentBrwsrs, "max-concurrent-browsers", 0, "bound concurrent browser page loads")
	f.StringVar(&flags.searchEngineName, "search-engine", "", "configured search-engine backend name")
	f.StringVar(&flags.searchEngineAPIKey, "search-engine-api-key", "", "API key for the configured search-engine backend")
	f.StringVar(&flags.ocrBinary, "ocr-binary", "", "path to an external OCR binary (accepted for CLI-contract parity; not invoked by this module)")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")
	f.StringVar(&flags.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	f.StringVar(&flags.runStateBackend, "run-state", "memory", "durable run/task bookkeeping backend: memory or sqlite")
	f.StringVar(&flags.runStatePath, "run-state-path", "", "sqlite database path when --run-state=sqlite")

	return cmd
}

func runProcess(ctx context.Context, flags processFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if flags.ocrBinary != "" {
		slog.Default().Warn("--ocr-binary was given but OCR is not performed by this module; ignoring", "path", flags.ocrBinary)
	}

	logger, sink, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()
	slog.SetDefault(logger)
	ctx = jlog.With(ctx, logger)

	refs, err := loadJurisdictions(cfg.JurisdictionCSV)
	if err != nil {
		return err
	}
	logger.Info("loaded jurisdiction list", "count", len(refs))

	services, err := buildLLMServices(ctx, cfg)
	if err != nil {
		return err
	}
	services[orchestrator.StorageService] = runtime.NewThreadPool(4, orchestrator.StorageProcess)

	rt, err := runtime.Start(ctx, services)
	if err != nil {
		return fmt.Errorf("starting runtime: %w", err)
	}
	defer rt.Close(ctx)

	var loader *browser.Loader
	if cfg.Concurrency.MaxConcurrentBrowsers > 0 {
		bpool, err := browser.NewPool(browser.PoolConfig{MaxInstances: cfg.Concurrency.MaxConcurrentBrowsers, Headless: true})
		if err != nil {
			logger.Warn("browser pool unavailable, crawl/fetch strategies disabled", "error", err)
		} else {
			defer bpool.Close()
			loader = browser.NewLoader(bpool)
		}
	}

	runState, err := buildRunState(flags)
	if err != nil {
		return err
	}
	if closer, ok := runState.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	d := &driver.Driver{
		Orchestrator:  buildOrchestrator(cfg, rt, loader),
		Jurisdictions: refs,
		OutputDir:     cfg.OutputDir,
		Config:        *cfg,
		RunState:      runState,
		RunID:         runID,
	}

	summary, err := d.Run(ctx, rt)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	logger.Info("run complete", "searched", summary.NumSearched, "found", summary.NumFound, "duration", summary.Duration)
	return nil
}

func loadConfig(flags processFlags) (*config.Config, error) {
	var cfg config.Config
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else {
		cfg = config.Default()
	}

	if flags.outputDir != "" {
		cfg.OutputDir = flags.outputDir
	}
	if flags.technology != "" {
		cfg.Technology = flags.technology
	}
	if flags.jurisdictionCSV != "" {
		cfg.JurisdictionCSV = flags.jurisdictionCSV
	}
	if flags.knownDocsManifest != "" {
		cfg.KnownDocsManifest = flags.knownDocsManifest
	}
	if flags.chunkSize > 0 {
		cfg.Chunking.ChunkSize = flags.chunkSize
	}
	if flags.chunkOverlap > 0 {
		cfg.Chunking.ChunkOverlap = flags.chunkOverlap
	}
	if flags.maxConcurrentJurs > 0 {
		cfg.Concurrency.MaxConcurrentJurisdictions = flags.maxConcurrentJurs
	}
	if flags.maxConcurrentBrwsrs > 0 {
		cfg.Concurrency.MaxConcurrentBrowsers = flags.maxConcurrentBrwsrs
	}
	if flags.searchEngineName != "" {
		cfg.SearchEngines = []config.SearchEngine{{Name: flags.searchEngineName, APIKey: flags.searchEngineAPIKey}}
	}
	if flags.model != "" || flags.requestsPerMinute > 0 {
		for i := range cfg.Models {
			if flags.model != "" {
				cfg.Models[i].Model = flags.model
			}
			if flags.requestsPerMinute > 0 {
				cfg.Models[i].RequestsPerMinute = flags.requestsPerMinute
			}
		}
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}

	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("process: --output-dir (or config output_dir) is required")
	}
	if cfg.JurisdictionCSV == "" {
		return nil, fmt.Errorf("process: --jurisdiction-file (or config jurisdiction_csv) is required")
	}
	return &cfg, nil
}

// buildLogger wires the jlog file sink as the process-wide slog handler,
// routing every jurisdiction-scoped record to its own log file under
// output_dir/logs and mirroring error-level records into a top-level
// errors.log (spec §A.1).
func buildLogger(cfg *config.Config) (*slog.Logger, *jlog.FileSink, error) {
	sink, err := jlog.NewFileSink(filepath.Join(cfg.OutputDir, "logs"))
	if err != nil {
		return nil, nil, fmt.Errorf("process: setting up log sink: %w", err)
	}
	return slog.New(jlog.NewHandler(sink)), sink, nil
}

func loadJurisdictions(path string) ([]jurisdiction.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("process: opening jurisdiction file: %w", err)
	}
	defer f.Close()
	return jurisdiction.LoadReference(f)
}

// buildLLMServices registers one rate-limited runtime.Service per
// configured model category, each wrapping the provider named by
// ModelAssignment.Provider ("anthropic", "openai", or "bedrock"),
// credentialed from the provider's own environment variables / credential
// chain (spec §1: "the LLM provider SDK" is an external collaborator; its
// credentials are never configuration values on disk).
func buildLLMServices(ctx context.Context, cfg *config.Config) (map[string]runtime.Service, error) {
	services := make(map[string]runtime.Service, len(cfg.Models))
	for _, m := range cfg.Models {
		provider, err := buildProvider(ctx, m.Provider)
		if err != nil {
			return nil, fmt.Errorf("process: building %q provider for category %q: %w", m.Provider, m.Category, err)
		}
		window := ratelimit.NewRollingWindow(time.Minute)
		retryBudget := time.Duration(m.TimeoutSeconds) * time.Second
		if retryBudget <= 0 {
			retryBudget = 30 * time.Second
		}
		services[m.Category] = llm.NewService(provider, window, m.RequestsPerMinute, retryBudget)
	}
	return services, nil
}

func buildProvider(ctx context.Context, name string) (llm.ChatProvider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return openai.New(openai.Config{APIKey: os.Getenv("OPENAI_API_KEY")}), nil
	case "bedrock":
		return bedrock.New(ctx, bedrock.Config{Region: os.Getenv("AWS_REGION")})
	default:
		return anthropic.New(anthropic.Config{APIKey: os.Getenv("ANTHROPIC_API_KEY")}), nil
	}
}

func buildRunState(flags processFlags) (runstate.Store, error) {
	switch strings.ToLower(flags.runStateBackend) {
	case "", "memory":
		return runstate.NewMemoryStore(), nil
	case "sqlite":
		path := flags.runStatePath
		if path == "" {
			path = "runstate.db"
		}
		return runstate.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("process: unknown --run-state backend %q", flags.runStateBackend)
	}
}

// buildOrchestrator wires one Orchestrator shared read-only across every
// jurisdiction's task (spec §4.9). Narrowing stages are left unset even
// when a text_narrowing model is configured: their prompts are
// human-authored strings outside this module's scope (spec §1 Non-goals),
// so Run's default pipeline passes the located document straight to
// extraction (containment score 1) unless a caller appends stages after
// construction. Likewise Funnel.SearchEngines stays empty — no concrete
// search-engine backend is wired by this module (spec §3 names it an
// external collaborator) — so the search_engine_query strategy degrades to
// zero results rather than failing the run.
func buildOrchestrator(cfg *config.Config, rt *runtime.Runtime, loader *browser.Loader) *orchestrator.Orchestrator {
	o := &orchestrator.Orchestrator{
		Strategies:        strategiesFor(cfg.RetrievalStrategies),
		CrawlConfig:       retrieval.CrawlConfig{MaxPages: cfg.Concurrency.MaxPagesPerCrawl, Keywords: contentKeywords(cfg.Technology)},
		KnownDocs:         loadKnownDocsManifest(cfg.KnownDocsManifest),
		LocationThreshold: 0.5,
		ChunkSize:         cfg.Chunking.ChunkSize,
		ChunkOverlap:      cfg.Chunking.ChunkOverlap,
		ContentKeywords:   contentKeywords(cfg.Technology),
		Technology:        cfg.Technology,
		AdderClampFeet:    cfg.Extraction.AdderClampFeet,
		Pricing:           map[string]usage.Pricing{},
		ProcessUsage:      usage.NewTracker("process"),
	}

	if loader != nil {
		o.Crawler = loader
		tmpl := fmt.Sprintf("{{jurisdiction}} %s ordinance", cfg.Technology)
		o.Funnel = retrieval.NewFunnel(nil, []string{tmpl}, loader, 25, cfg.Concurrency.MaxConcurrentBrowsers)
	}

	if m, ok := cfg.ModelFor(categoryJurisdictionValidation); ok {
		o.NewJurisdictionCaller = chatCallerFactory(rt, categoryJurisdictionValidation, m.Model)
	}
	if m, ok := cfg.ModelFor(categoryContentValidation); ok {
		o.LegalCaller = llm.NewCaller(llm.Base{Runtime: rt, ServiceName: categoryContentValidation, Category: categoryContentValidation, Model: m.Model})
	}
	if m, ok := cfg.ModelFor(categoryTextNarrowing); ok {
		o.NarrowingCaller = llm.NewCaller(llm.Base{Runtime: rt, ServiceName: categoryTextNarrowing, Category: categoryTextNarrowing, Model: m.Model})
	}
	if m, ok := cfg.ModelFor(categoryFeatureExtraction); ok {
		o.NewExtractionCaller = chatCallerFactory(rt, categoryFeatureExtraction, m.Model)
	}

	return o
}

// chatCallerFactory closes over rt, service, and model so the orchestrator
// can mint a fresh stateful ChatCaller per document/feature dialog (spec
// §4.4, §4.8: every forked dialog needs its own transcript).
func chatCallerFactory(rt *runtime.Runtime, service, model string) orchestrator.NewChatCaller {
	return func(system string) *llm.ChatCaller {
		return llm.NewChatCaller(llm.Base{Runtime: rt, ServiceName: service, Category: service, Model: model}, system)
	}
}

func contentKeywords(technology string) []string {
	switch strings.ToLower(technology) {
	case "solar":
		return []string{"solar", "photovoltaic", "setback"}
	default:
		return []string{"wind", "turbine", "setback"}
	}
}

func strategiesFor(names []string) []retrieval.Strategy {
	out := make([]retrieval.Strategy, 0, len(names))
	for _, n := range names {
		out = append(out, retrieval.Strategy(n))
	}
	return out
}

func loadKnownDocsManifest(path string) retrieval.KnownDocsManifest {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Default().Warn("known-docs manifest unreadable, skipping strategy", "path", path, "error", err)
		return nil
	}
	var manifest retrieval.KnownDocsManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		slog.Default().Warn("known-docs manifest malformed, skipping strategy", "path", path, "error", err)
		return nil
	}
	return manifest
}
