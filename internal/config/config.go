// Package config loads a COMPASS run configuration: output locations,
// technology, concurrency caps, rate limits, and the per-task-category model
// assignment table (spec §6's CLI contract, expressed as the struct a CLI
// front-end — out of core scope — would populate).
package config

// ModelAssignment binds one task category (e.g. "document_content_validation",
// "text_narrowing", "feature_extraction") to the provider/model/rate-limit it
// should run under, mirroring the original project's per-category LLM caller
// binding (compass/llm/calling.py) so costs and usage can be grouped by
// shared configuration in meta.json.
type ModelAssignment struct {
	Category          string  `yaml:"category"`
	Provider          string  `yaml:"provider"` // "anthropic" | "openai" | "bedrock"
	Model             string  `yaml:"model"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// Chunking controls how retrieved documents are split into pages/chunks for
// the narrowing pipeline (C7) and chunked-text validator (C5).
type Chunking struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	LookBack     int `yaml:"look_back"`
}

// Concurrency holds the run's bounded-concurrency knobs (spec §5).
type Concurrency struct {
	MaxConcurrentJurisdictions int `yaml:"max_concurrent_jurisdictions"` // 0 = unbounded (rate-limiter throttles)
	MaxConcurrentBrowsers      int `yaml:"max_concurrent_browsers"`
	MaxPagesPerCrawl           int `yaml:"max_pages_per_crawl"`
}

// SearchEngine names one configured search backend in the retrieval
// fallback chain (spec §4.6, "primary engine, then secondary").
type SearchEngine struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"`
}

// Extraction controls feature-extraction post-processing (spec §9 open
// question i: the adder clamp is "a configuration knob").
type Extraction struct {
	AdderClampFeet float64 `yaml:"adder_clamp_feet"`
}

// Config is the full run configuration.
type Config struct {
	OutputDir          string             `yaml:"output_dir"`
	Technology         string             `yaml:"technology"` // "wind" | "solar"
	JurisdictionCSV    string             `yaml:"jurisdiction_csv"`
	KnownDocsManifest  string             `yaml:"known_docs_manifest"`
	LogLevel           string             `yaml:"log_level"`
	RetrievalStrategies []string          `yaml:"retrieval_strategies"`
	SearchEngines      []SearchEngine     `yaml:"search_engines"`
	Models             []ModelAssignment  `yaml:"models"`
	Chunking           Chunking           `yaml:"chunking"`
	Concurrency        Concurrency        `yaml:"concurrency"`
	Extraction         Extraction         `yaml:"extraction"`
}

// Default returns a Config with the same conservative defaults the original
// project ships (adder clamp 250 feet, 60s rolling rate-limit windows are
// applied at the ratelimit layer, not here).
func Default() Config {
	return Config{
		LogLevel:            "info",
		RetrievalStrategies: []string{"search_engine_query", "crawl_jurisdiction_website", "load_known_local_docs"},
		Chunking:            Chunking{ChunkSize: 3000, ChunkOverlap: 300, LookBack: 3},
		Concurrency:         Concurrency{MaxConcurrentBrowsers: 5, MaxPagesPerCrawl: 50},
		Extraction:          Extraction{AdderClampFeet: 250},
	}
}

// ModelFor returns the assignment bound to category, reporting whether one
// exists. It returns no error for a missing binding; each caller decides
// what an absent category means.
func (c Config) ModelFor(category string) (ModelAssignment, bool) {
	for _, m := range c.Models {
		if m.Category == category {
			return m, true
		}
	}
	return ModelAssignment{}, false
}
