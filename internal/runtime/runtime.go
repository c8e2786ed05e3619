// Package runtime implements the Service Runtime (C1): a process-wide
// registry of bounded FIFO job queues, one worker loop per registered
// service, and a scoped-acquisition lifecycle (spec §4.1, §9): Start
// acquires, Close releases. Each Start returns an independent Runtime;
// nothing detects a second Start while another Runtime is open.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/jlog"
	"github.com/google/uuid"
)

// Service is the contract every registered service implements (spec §4.1).
// CanProcess is a fast, non-blocking predicate the worker loop polls before
// dequeuing; Process performs the actual (possibly slow) side effect.
type Service interface {
	CanProcess(ctx context.Context) bool
	Process(ctx context.Context, callerTask string, args any) (any, error)
}

// ResourceLifecycle is implemented by services that hold resources across
// the whole scoped acquisition (e.g. a browser pool's launched processes).
// Runtime calls AcquireResources once at scope entry and ReleaseResources
// once at scope exit; services that don't need this may simply not
// implement the interface.
type ResourceLifecycle interface {
	AcquireResources(ctx context.Context) error
	ReleaseResources(ctx context.Context) error
}

// job is one submitted unit of work: args plus the future its result is
// delivered on. callerTask is propagated so logs emitted during Process
// inherit the submitter's jurisdiction context (spec §4.1's last sentence).
type job struct {
	id         string
	callerTask string
	args       any
	result     chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// queue is the bounded FIFO backing one named service.
type queue struct {
	svc    Service
	jobs   chan job
	done   chan struct{} // closed once the worker loop has exited
	cancel context.CancelFunc
}

// Runtime is one scoped acquisition of a set of named services. It must be
// closed with Close to drain outstanding jobs and release resources.
type Runtime struct {
	mu       sync.RWMutex
	queues   map[string]*queue
	wg       sync.WaitGroup
	ctx      context.Context
	baseCancel context.CancelFunc
}

// Start creates queues for every named service, dispatches one worker loop
// per service, and invokes AcquireResources on services that implement
// ResourceLifecycle. On error it unwinds any services it already started.
func Start(ctx context.Context, services map[string]Service) (*Runtime, error) {
	scopeCtx, cancel := context.WithCancel(ctx)
	rt := &Runtime{
		queues:     make(map[string]*queue),
		ctx:        scopeCtx,
		baseCancel: cancel,
	}

	for name, svc := range services {
		if lc, ok := svc.(ResourceLifecycle); ok {
			if err := lc.AcquireResources(scopeCtx); err != nil {
				rt.unwind(ctx)
				return nil, corerr.NewServiceError(corerr.Config, fmt.Sprintf("acquiring resources for service %q", name), err)
			}
		}
		rt.startQueue(name, svc)
	}

	return rt, nil
}

func (rt *Runtime) startQueue(name string, svc Service) {
	qCtx, qCancel := context.WithCancel(rt.ctx)
	q := &queue{
		svc:    svc,
		jobs:   make(chan job, 64),
		done:   make(chan struct{}),
		cancel: qCancel,
	}
	rt.queues[name] = q

	rt.wg.Add(1)
	go rt.workerLoop(qCtx, name, q)
}

func (rt *Runtime) workerLoop(ctx context.Context, name string, q *queue) {
	defer rt.wg.Done()
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			rt.drain(ctx, q)
			return
		case j := <-q.jobs:
			rt.runJob(ctx, name, q, j)
		}
	}
}

func (rt *Runtime) runJob(ctx context.Context, name string, q *queue, j job) {
	if !q.svc.CanProcess(ctx) {
		// Re-enqueue and yield; a blocked worker waits for capacity rather
		// than failing the caller (spec §4.1: "wait until can_process").
		select {
		case q.jobs <- j:
		case <-ctx.Done():
			j.result <- jobResult{err: ctx.Err()}
		}
		return
	}

	taskCtx := jlog.Scope(ctx, j.callerTask)
	value, err := func() (result any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("service %q worker crashed processing job for %q: %v", name, j.callerTask, r)
			}
		}()
		return q.svc.Process(taskCtx, j.callerTask, j.args)
	}()

	j.result <- jobResult{value: value, err: err}
}

// drain delivers a cancellation error to every job still queued when the
// scope is torn down (spec §4.1: "drains outstanding jobs with their futures
// set to a cancellation error").
func (rt *Runtime) drain(ctx context.Context, q *queue) {
	for {
		select {
		case j := <-q.jobs:
			j.result <- jobResult{err: ctx.Err()}
		default:
			return
		}
	}
}

// Submit enqueues work on the named service and blocks until it completes or
// ctx is cancelled. callerTask identifies the submitting jurisdiction task
// for log-context propagation.
func (rt *Runtime) Submit(ctx context.Context, service, callerTask string, args any) (any, error) {
	rt.mu.RLock()
	q, ok := rt.queues[service]
	rt.mu.RUnlock()
	if !ok {
		return nil, corerr.NewServiceError(corerr.NotInitialized, fmt.Sprintf("service %q not registered", service), nil)
	}

	j := job{id: uuid.NewString(), callerTask: callerTask, args: args, result: make(chan jobResult, 1)}

	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-j.result:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close signals cancellation to every worker loop, waits for them to drain,
// and invokes ReleaseResources on services that implement ResourceLifecycle.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.unwind(ctx)
}

func (rt *Runtime) unwind(ctx context.Context) error {
	rt.baseCancel()
	rt.wg.Wait()

	var firstErr error
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for name, q := range rt.queues {
		if lc, ok := q.svc.(ResourceLifecycle); ok {
			if err := lc.ReleaseResources(ctx); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("releasing resources for service %q: %w", name, err)
			}
		}
	}
	rt.queues = map[string]*queue{}
	return firstErr
}
