package runtime

import (
	"context"
	"fmt"

	"github.com/NREL/COMPASS/internal/ratelimit"
)

// ProcessFunc is the concrete work a variant service performs once
// CanProcess allows it. The returned cost is what RateLimited records onto
// its window (e.g. tokens used); ThreadPool and ProcessPool ignore it.
type ProcessFunc func(ctx context.Context, callerTask string, args any) (result any, cost float64, err error)

// RateLimited is the rate-limited service variant (spec §4.1): can_process
// consults a rolling-window counter, and every processed job records its
// cost (actual, from the response, or a caller-supplied estimate) back onto
// the window — this is the variant the LLM service (C3) runs under.
type RateLimited struct {
	window *ratelimit.RollingWindow
	limit  float64
	fn     ProcessFunc
}

// NewRateLimited builds a RateLimited service whose window sums to less
// than limit within the window's configured age to allow further work.
func NewRateLimited(window *ratelimit.RollingWindow, limit float64, fn ProcessFunc) *RateLimited {
	return &RateLimited{window: window, limit: limit, fn: fn}
}

func (s *RateLimited) CanProcess(context.Context) bool {
	return s.window.CanProcess(s.limit)
}

func (s *RateLimited) Process(ctx context.Context, callerTask string, args any) (any, error) {
	result, cost, err := s.fn(ctx, callerTask, args)
	s.window.Record(cost)
	return result, err
}

// ThreadPool is the thread-pool service variant (spec §4.1): can_process is
// always true, and Process dispatches blocking work (file writes, hashing)
// to a fixed-size worker pool via a semaphore so at most Size run
// concurrently. Cancellation during teardown aborts pending submissions
// because Process observes ctx.Done() while waiting for a pool slot.
type ThreadPool struct {
	sem chan struct{}
	fn  ProcessFunc
}

// NewThreadPool builds a ThreadPool with the given fixed worker count.
func NewThreadPool(size int, fn ProcessFunc) *ThreadPool {
	if size <= 0 {
		size = 1
	}
	return &ThreadPool{sem: make(chan struct{}, size), fn: fn}
}

func (s *ThreadPool) CanProcess(context.Context) bool { return true }

func (s *ThreadPool) Process(ctx context.Context, callerTask string, args any) (any, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	result, _, err := s.fn(ctx, callerTask, args)
	return result, err
}

// ProcessPool is the process-pool service variant (spec §4.1), used for
// CPU-bound parsing (PDF/OCR). In Go this is modeled as a bounded worker
// pool rather than literal OS subprocesses — the contract being preserved is
// "robust to worker crashes", which Go expresses as panic recovery rather
// than monitoring a child PID. A crashed worker surfaces as a WorkerCrashed
// error on the submitting future instead of taking down the pool.
type ProcessPool struct {
	sem chan struct{}
	fn  ProcessFunc
}

// NewProcessPool builds a ProcessPool with the given fixed worker count.
func NewProcessPool(size int, fn ProcessFunc) *ProcessPool {
	if size <= 0 {
		size = 1
	}
	return &ProcessPool{sem: make(chan struct{}, size), fn: fn}
}

func (s *ProcessPool) CanProcess(context.Context) bool { return true }

// WorkerCrashed indicates the pool worker panicked while executing Process;
// the pool itself remains usable for subsequent submissions.
type WorkerCrashed struct {
	CallerTask string
	Reason     any
}

func (e *WorkerCrashed) Error() string {
	return fmt.Sprintf("process-pool worker crashed processing job for %q: %v", e.CallerTask, e.Reason)
}

func (s *ProcessPool) Process(ctx context.Context, callerTask string, args any) (result any, err error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	defer func() {
		if r := recover(); r != nil {
			err = &WorkerCrashed{CallerTask: callerTask, Reason: r}
		}
	}()

	result, _, err = s.fn(ctx, callerTask, args)
	return result, err
}
