package jlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScopeBindsJurisdiction(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := With(context.Background(), base)
	ctx = Scope(ctx, "Story County, Iowa")

	From(ctx).Info("found document")

	if got := buf.String(); !bytes.Contains([]byte(got), []byte("jurisdiction=\"Story County, Iowa\"")) {
		t.Errorf("expected jurisdiction attr in log line, got %q", got)
	}
}

func TestFromDefaultsWhenUnbound(t *testing.T) {
	if From(context.Background()) == nil {
		t.Error("From() should never return nil")
	}
}

func TestFileSinkRoutesPerJurisdiction(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	handler := NewHandler(sink)
	logger := slog.New(handler)
	logger.With("jurisdiction", "Boulder County, Colorado").Info("searching")
	logger.With("jurisdiction", "Story County, Iowa").Error("task failure")

	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	boulder, err := os.ReadFile(filepath.Join(dir, "Boulder County, Colorado.log"))
	if err != nil {
		t.Fatalf("reading boulder log: %v", err)
	}
	if !bytes.Contains(boulder, []byte("searching")) {
		t.Errorf("boulder log missing record: %q", boulder)
	}

	errLog, err := os.ReadFile(filepath.Join(dir, "errors.log"))
	if err != nil {
		t.Fatalf("reading error log: %v", err)
	}
	if !bytes.Contains(errLog, []byte("task failure")) {
		t.Errorf("error log missing mirrored record: %q", errLog)
	}
}

func TestSanitizeStripsPathSeparators(t *testing.T) {
	if got := sanitize("bad/name:here.log"); got != "bad_name_here.log" {
		t.Errorf("sanitize() = %q", got)
	}
}

func TestFileSinkWriteErrorSurvivesWithoutJurisdiction(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	sink.WriteError("fatal: config missing output dir")
	time.Sleep(10 * time.Millisecond)
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	errLog, err := os.ReadFile(filepath.Join(dir, "errors.log"))
	if err != nil {
		t.Fatalf("reading error log: %v", err)
	}
	if !bytes.Contains(errLog, []byte("fatal: config missing output dir")) {
		t.Errorf("error log missing record: %q", errLog)
	}
}
