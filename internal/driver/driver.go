// Package driver implements the Run Driver (C10): loads the jurisdiction
// list, fans out a per-jurisdiction task for each, bounds concurrency, and
// aggregates results into the run's combined outputs (spec §4.10).
package driver

import (
	"context"
	"fmt"
	"os/user"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/NREL/COMPASS/internal/config"
	"github.com/NREL/COMPASS/internal/jurisdiction"
	"github.com/NREL/COMPASS/internal/orchestrator"
	"github.com/NREL/COMPASS/internal/outputs"
	"github.com/NREL/COMPASS/internal/runstate"
	"github.com/NREL/COMPASS/internal/runtime"
	"github.com/NREL/COMPASS/internal/usage"
)

// Driver owns one run: a fixed jurisdiction list, the orchestrator every
// jurisdiction shares, and where the run's outputs land.
type Driver struct {
	Orchestrator *orchestrator.Orchestrator
	Jurisdictions []jurisdiction.Reference
	OutputDir    string
	Config       config.Config
	RunState     runstate.Store // nil disables durable bookkeeping
	RunID        string
}

// Summary is what Run reports once every jurisdiction task has finished.
type Summary struct {
	Results     []*orchestrator.Result // nil entries allowed, one per jurisdiction
	NumSearched int
	NumFound    int
	Duration    time.Duration
}

// Run executes every jurisdiction's task, bounded by
// Config.Concurrency.MaxConcurrentJurisdictions (0 lets the LLM rate
// limiter throttle naturally instead), then writes the combined CSVs,
// usage.json, and meta.json. Results are collected even when a
// jurisdiction's task returned nil (spec §4.10: "nil allowed").
func (d *Driver) Run(ctx context.Context, rt *runtime.Runtime) (*Summary, error) {
	start := time.Now()

	results := make([]*orchestrator.Result, len(d.Jurisdictions))

	var sem *semaphore.Weighted
	if max := d.Config.Concurrency.MaxConcurrentJurisdictions; max > 0 {
		sem = semaphore.NewWeighted(int64(max))
	}

	done := make(chan struct{})
	errs := make(chan error, len(d.Jurisdictions))
	for i, ref := range d.Jurisdictions {
		i, ref := i, ref
		go func() {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					errs <- err
					done <- struct{}{}
					return
				}
				defer sem.Release(1)
			}
			results[i] = d.runOne(ctx, rt, ref)
			done <- struct{}{}
		}()
	}
	for range d.Jurisdictions {
		<-done
	}
	close(errs)
	for err := range errs {
		if err != nil {
			return nil, fmt.Errorf("driver: run canceled: %w", err)
		}
	}

	summary := &Summary{Results: results, NumSearched: len(d.Jurisdictions), Duration: time.Since(start)}
	for _, res := range results {
		if res != nil && res.Found {
			summary.NumFound++
		}
	}

	if err := d.writeOutputs(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (d *Driver) runOne(ctx context.Context, rt *runtime.Runtime, ref jurisdiction.Reference) *orchestrator.Result {
	name := ref.FullName()
	task := &runstate.Task{RunID: d.RunID, Jurisdiction: name, Status: runstate.StatusRunning, CreatedAt: time.Now(), StartedAt: time.Now()}
	if d.RunState != nil {
		_ = d.RunState.Create(ctx, task)
	}

	paths := d.pathsFor(ref)
	res := d.Orchestrator.Run(ctx, rt, ref, paths, orchestrator.NoopProgress{})

	if d.RunState != nil {
		task.FinishedAt = time.Now()
		if res == nil {
			task.Status = runstate.StatusFailed
		} else {
			task.Status = runstate.StatusSucceeded
			task.Found = res.Found
		}
		_ = d.RunState.Update(ctx, task)
	}
	return res
}

// pathsFor derives one jurisdiction's artifact locations under OutputDir,
// namespaced by a filesystem-safe slug of its full name.
func (d *Driver) pathsFor(ref jurisdiction.Reference) orchestrator.Paths {
	slug := slugify(ref.FullName())
	dir := filepath.Join(d.OutputDir, "ordinances", slug)
	return orchestrator.Paths{
		CleanedTextFile: filepath.Join(dir, "cleaned_ordinance_text.txt"),
		ValuesCSVFile:   filepath.Join(dir, "values.csv"),
		RawDocumentFile: filepath.Join(dir, "raw_document.txt"),
		ManifestFile:    filepath.Join(d.OutputDir, "jurisdictions.json"),
	}
}

func (d *Driver) writeOutputs(summary *Summary) error {
	var rows []outputs.Row
	processUsage := usage.Record{}
	if d.Orchestrator.ProcessUsage != nil {
		processUsage = d.Orchestrator.ProcessUsage.Record()
	}

	jurisdictionUsage := make(map[string]usage.Record)
	for i, res := range summary.Results {
		if res == nil {
			continue
		}
		ref := d.Jurisdictions[i]
		jurisdictionUsage[ref.FullName()] = res.Usage
		for _, row := range res.Rows {
			rows = append(rows, outputs.Row{
				Jurisdiction: ref,
				Source:       res.Source,
				OrdYear:      res.OrdYear,
				LastUpdated:  res.LastUpdated,
				Value:        row,
			})
		}
	}

	quantPath := filepath.Join(d.OutputDir, "quantitative_ordinances.csv")
	qualPath := filepath.Join(d.OutputDir, "qualitative_ordinances.csv")
	if err := outputs.SplitAndWrite(quantPath, qualPath, rows); err != nil {
		return err
	}

	usagePath := filepath.Join(d.OutputDir, "usage.json")
	if err := outputs.WriteUsage(usagePath, outputs.UsageFile{Totals: processUsage, Jurisdictions: jurisdictionUsage}); err != nil {
		return err
	}

	metaPath := filepath.Join(d.OutputDir, "meta.json")
	meta := outputs.Meta{
		RunBy:       currentUsername(),
		DurationSec: outputs.Duration(summary.Duration),
		Technology:  d.Config.Technology,
		Models:      outputs.GroupModelsByConfig(d.Config.Models),
		OutputFiles: outputs.RelManifest(d.OutputDir, []string{quantPath, qualPath, usagePath, filepath.Join(d.OutputDir, "jurisdictions.json")}),
		NumSearched: summary.NumSearched,
		NumFound:    summary.NumFound,
	}
	return outputs.WriteMeta(metaPath, meta)
}

// currentUsername looks up the OS user running the process, falling back
// to "Unknown" when the lookup fails (sandboxed containers commonly lack
// /etc/passwd entries) — spec §9 supplemented feature.
func currentUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "Unknown"
	}
	return u.Username
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r-'A'+'a')
		case r == ' ' || r == '/' || r == ',':
			out = append(out, '_')
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
