package outputs

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/NREL/COMPASS/internal/config"
	"github.com/NREL/COMPASS/internal/extraction"
	"github.com/NREL/COMPASS/internal/jurisdiction"
	"github.com/NREL/COMPASS/internal/usage"
)

func TestSplitAndWriteSeparatesQuantitativeAndQualitative(t *testing.T) {
	dir := t.TempDir()
	v := 500.0
	summary := "Signage must comply with local code."

	rows := []Row{
		{
			Jurisdiction: jurisdiction.Reference{Jurisdiction: jurisdiction.Jurisdiction{Type: jurisdiction.County, State: "Colorado", County: "Example"}},
			Source:       "https://example.gov/ordinance",
			OrdYear:      2024,
			Value:        extraction.OrdinanceValueRow{Feature: "turbine_setback", Value: &v, Quantitative: true},
		},
		{
			Jurisdiction: jurisdiction.Reference{Jurisdiction: jurisdiction.Jurisdiction{Type: jurisdiction.County, State: "Colorado", County: "Example"}},
			Source:       "https://example.gov/ordinance",
			OrdYear:      2024,
			Value:        extraction.OrdinanceValueRow{Feature: "signage", Summary: &summary, Quantitative: false},
		},
	}

	quantPath := filepath.Join(dir, "quantitative_ordinances.csv")
	qualPath := filepath.Join(dir, "qualitative_ordinances.csv")
	if err := SplitAndWrite(quantPath, qualPath, rows); err != nil {
		t.Fatalf("SplitAndWrite() error = %v", err)
	}

	quantRecords := readCSV(t, quantPath)
	if len(quantRecords) != 2 {
		t.Fatalf("quantitative CSV has %d records, want 2 (header + 1 row)", len(quantRecords))
	}
	if quantRecords[1][5] != "turbine_setback" {
		t.Errorf("quantitative CSV feature column = %q, want turbine_setback", quantRecords[1][5])
	}

	qualRecords := readCSV(t, qualPath)
	if len(qualRecords) != 2 {
		t.Fatalf("qualitative CSV has %d records, want 2 (header + 1 row)", len(qualRecords))
	}
	if qualRecords[1][5] != "signage" {
		t.Errorf("qualitative CSV feature column = %q, want signage", qualRecords[1][5])
	}
}

func TestSplitAndWriteEmptyRowsStillWritesHeaders(t *testing.T) {
	dir := t.TempDir()
	quantPath := filepath.Join(dir, "quantitative_ordinances.csv")
	qualPath := filepath.Join(dir, "qualitative_ordinances.csv")

	if err := SplitAndWrite(quantPath, qualPath, nil); err != nil {
		t.Fatalf("SplitAndWrite() error = %v", err)
	}

	if recs := readCSV(t, quantPath); len(recs) != 1 {
		t.Errorf("quantitative CSV has %d records, want header only", len(recs))
	}
	if recs := readCSV(t, qualPath); len(recs) != 1 {
		t.Errorf("qualitative CSV has %d records, want header only", len(recs))
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return records
}

func TestWriteUsageRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "usage.json")

	tracker := usage.NewTracker("Example County")
	tracker.Update("claude-3", "feature_extraction", nil, func(current usage.CategoryUsage, _ any) usage.CategoryUsage {
		current.Requests++
		current.PromptTokens += 100
		return current
	})

	file := UsageFile{
		Totals:        tracker.Record(),
		Jurisdictions: map[string]usage.Record{"Example County": tracker.Record()},
	}
	if err := WriteUsage(path, file); err != nil {
		t.Fatalf("WriteUsage() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected usage.json at %s: %v", path, err)
	}
}

func TestWriteMetaRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")

	meta := Meta{
		RunBy:       "testuser",
		Technology:  "wind",
		Models:      []ModelGroup{{Categories: []string{"feature_extraction"}, Provider: "anthropic", Model: "claude-3"}},
		OutputFiles: []string{"quantitative_ordinances.csv"},
		NumSearched: 1,
		NumFound:    1,
	}
	if err := WriteMeta(path, meta); err != nil {
		t.Fatalf("WriteMeta() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected meta.json at %s: %v", path, err)
	}
}

func TestGroupModelsByConfigDeduplicatesSharedConfig(t *testing.T) {
	models := []config.ModelAssignment{
		{Category: "document_content_validation", Provider: "anthropic", Model: "claude-3", RequestsPerMinute: 50},
		{Category: "text_narrowing", Provider: "anthropic", Model: "claude-3", RequestsPerMinute: 50},
		{Category: "feature_extraction", Provider: "openai", Model: "gpt-4", RequestsPerMinute: 20},
	}

	groups := GroupModelsByConfig(models)
	if len(groups) != 2 {
		t.Fatalf("GroupModelsByConfig() returned %d groups, want 2", len(groups))
	}
	if len(groups[0].Categories) != 2 {
		t.Errorf("first group categories = %v, want 2 merged categories", groups[0].Categories)
	}
}

func TestRelManifestFallsBackToAbsoluteOutsideOutputDir(t *testing.T) {
	got := RelManifest("/out", []string{"/out/a.csv", "/elsewhere/b.csv"})
	if got[0] != "a.csv" {
		t.Errorf("RelManifest()[0] = %q, want a.csv", got[0])
	}
	if got[1] != "/elsewhere/b.csv" {
		t.Errorf("RelManifest()[1] = %q, want absolute fallback", got[1])
	}
}
