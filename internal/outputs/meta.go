package outputs

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/NREL/COMPASS/internal/config"
	"github.com/NREL/COMPASS/internal/usage"
)

// UsageFile is the usage.json shape (spec §6): process-wide totals plus a
// per-jurisdiction breakdown.
type UsageFile struct {
	Totals        usage.Record            `json:"totals"`
	Jurisdictions map[string]usage.Record `json:"jurisdictions"`
}

// WriteUsage writes usage.json atomically.
func WriteUsage(path string, file UsageFile) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("outputs: marshaling usage file: %w", err)
	}
	return atomicWriteFile(path, data)
}

// ModelGroup is one deduplicated model configuration entry in meta.json
// (spec §9 supplemented feature: model configs grouped by shared
// provider+model+rate-limit, not emitted once per category).
type ModelGroup struct {
	Categories        []string `json:"categories"`
	Provider          string   `json:"provider"`
	Model             string   `json:"model"`
	RequestsPerMinute float64  `json:"requests_per_minute"`
}

// Meta is the meta.json shape (spec §6): run duration, model configuration,
// manifest of output paths, and found/searched counts.
type Meta struct {
	RunBy         string       `json:"run_by"`
	DurationSec   float64      `json:"duration_seconds"`
	Technology    string       `json:"technology"`
	Models        []ModelGroup `json:"models"`
	OutputFiles   []string     `json:"output_files"` // relative to OutputDir
	NumSearched   int          `json:"num_jurisdictions_searched"`
	NumFound      int          `json:"num_jurisdictions_found"`
}

// WriteMeta writes meta.json atomically.
func WriteMeta(path string, meta Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("outputs: marshaling meta file: %w", err)
	}
	return atomicWriteFile(path, data)
}

// GroupModelsByConfig deduplicates a config's per-category model
// assignments down to one entry per distinct (provider, model,
// requests_per_minute) tuple, listing every category that shares it
// (`compass/utilities/finalize.py:_extract_model_info_from_all_models`).
func GroupModelsByConfig(models []config.ModelAssignment) []ModelGroup {
	var groups []ModelGroup
	index := make(map[string]int)

	for _, m := range models {
		key := fmt.Sprintf("%s|%s|%g", m.Provider, m.Model, m.RequestsPerMinute)
		if i, ok := index[key]; ok {
			groups[i].Categories = append(groups[i].Categories, m.Category)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, ModelGroup{
			Categories:        []string{m.Category},
			Provider:          m.Provider,
			Model:             m.Model,
			RequestsPerMinute: m.RequestsPerMinute,
		})
	}
	return groups
}

// RelManifest renders paths relative to outputDir for meta.json's
// manifest-of-relative-paths, falling back to the absolute path for any
// entry outside outputDir.
func RelManifest(outputDir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(outputDir, p); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			out[i] = rel
			continue
		}
		out[i] = p
	}
	return out
}

// Duration is a convenience wrapper so callers can pass time.Since(start)
// directly into Meta without importing time themselves.
func Duration(d time.Duration) float64 {
	return d.Seconds()
}
