package jlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// record is one queued log line bound for a jurisdiction's file. The
// top-level error log is written directly by WriteError, not through this
// queue.
type record struct {
	jurisdiction string
	line         string
}

// FileSink fans log records into one file per jurisdiction through a single
// writer goroutine draining a buffered channel, decoupling producer tasks
// from disk I/O and guaranteeing per-jurisdiction ordering — the queued
// listener spec §5 describes. Its Handler also mirrors every record at
// slog.LevelError or above to a dedicated top-level error log (WriteError),
// whether or not the record carries an error attribute, so fatal failures survive even
// if a jurisdiction's own log file was never opened (spec §7's propagation
// policy: "all fatal errors are also written to a dedicated top-level error
// log").
type FileSink struct {
	dir     string
	queue   chan record
	done    chan struct{}
	mu      sync.Mutex
	files   map[string]*os.File
	errFile *os.File
}

// NewFileSink creates a sink rooted at dir and starts its writer goroutine.
// Close must be called to flush and release file handles.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jlog: creating log dir: %w", err)
	}
	errFile, err := os.OpenFile(filepath.Join(dir, "errors.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("jlog: opening top-level error log: %w", err)
	}

	s := &FileSink{
		dir:     dir,
		queue:   make(chan record, 256),
		done:    make(chan struct{}),
		files:   make(map[string]*os.File),
		errFile: errFile,
	}
	go s.run()
	return s, nil
}

func (s *FileSink) run() {
	defer close(s.done)
	for rec := range s.queue {
		f := s.fileFor(rec.jurisdiction)
		if f != nil {
			fmt.Fprintln(f, rec.line)
		}
	}
}

func (s *FileSink) fileFor(jurisdiction string) *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[jurisdiction]; ok {
		return f
	}
	name := jurisdiction + ".log"
	f, err := os.OpenFile(filepath.Join(s.dir, sanitize(name)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil
	}
	s.files[jurisdiction] = f
	return f
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Write enqueues line for jurisdiction's file (blocking if the queue is
// full, exerting natural backpressure rather than dropping records).
func (s *FileSink) Write(jurisdiction, line string) {
	s.queue <- record{jurisdiction: jurisdiction, line: line}
}

// WriteError mirrors line to the top-level error log, synchronously, so it
// survives even a crash of the writer goroutine immediately after.
func (s *FileSink) WriteError(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.errFile, line)
}

// Close drains the queue and releases all open file handles.
func (s *FileSink) Close() error {
	close(s.queue)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.errFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Handler adapts a FileSink into an slog.Handler: every record whose
// attributes include "jurisdiction" is routed to that jurisdiction's file;
// records at slog.LevelError or above are additionally mirrored to the
// top-level error log.
type Handler struct {
	sink  *FileSink
	attrs []slog.Attr
}

func NewHandler(sink *FileSink) *Handler {
	return &Handler{sink: sink}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	jurisdiction := ""
	line := formatRecord(r, h.attrs)
	for _, a := range h.attrs {
		if a.Key == "jurisdiction" {
			jurisdiction = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "jurisdiction" {
			jurisdiction = a.Value.String()
		}
		return true
	})

	if jurisdiction != "" {
		h.sink.Write(jurisdiction, line)
	}
	if r.Level >= slog.LevelError {
		h.sink.WriteError(line)
	}
	return nil
}

func formatRecord(r slog.Record, extra []slog.Attr) string {
	line := fmt.Sprintf("%s [%s] %s", r.Time.Format("2006-01-02T15:04:05.000Z07:00"), r.Level, r.Message)
	for _, a := range extra {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	return line
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{sink: h.sink, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }
