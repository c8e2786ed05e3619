package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NREL/COMPASS/internal/corerr"
)

type echoService struct{}

func (echoService) CanProcess(context.Context) bool { return true }
func (echoService) Process(_ context.Context, _ string, args any) (any, error) {
	return args, nil
}

func TestSubmitRoundTrips(t *testing.T) {
	rt, err := Start(context.Background(), map[string]Service{"echo": echoService{}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rt.Close(context.Background())

	got, err := rt.Submit(context.Background(), "echo", "jurisdiction-a", "hello")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got != "hello" {
		t.Errorf("Submit() = %v, want hello", got)
	}
}

func TestSubmitUnregisteredServiceIsNotInitialized(t *testing.T) {
	rt, err := Start(context.Background(), map[string]Service{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rt.Close(context.Background())

	_, err = rt.Submit(context.Background(), "missing", "caller", nil)
	var svcErr *corerr.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Kind != corerr.NotInitialized {
		t.Errorf("Submit() error = %v, want NotInitialized ServiceError", err)
	}
}

type failingService struct{}

func (failingService) CanProcess(context.Context) bool { return true }
func (failingService) Process(context.Context, string, any) (any, error) {
	return nil, errors.New("boom")
}

func TestProcessErrorCapturedOnFuture(t *testing.T) {
	rt, err := Start(context.Background(), map[string]Service{"fail": failingService{}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rt.Close(context.Background())

	_, err = rt.Submit(context.Background(), "fail", "caller", nil)
	if err == nil || err.Error() != "boom" {
		t.Errorf("Submit() error = %v, want boom", err)
	}

	// A second submission must still succeed: process errors never kill the
	// worker (spec §4.1).
	_, err = rt.Submit(context.Background(), "fail", "caller", nil)
	if err == nil {
		t.Error("expected second submission to also reach Process and fail the same way")
	}
}

type panicService struct{}

func (panicService) CanProcess(context.Context) bool { return true }
func (panicService) Process(context.Context, string, any) (any, error) {
	panic("unexpected nil pointer")
}

func TestProcessPanicDoesNotKillWorker(t *testing.T) {
	rt, err := Start(context.Background(), map[string]Service{"panicky": panicService{}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rt.Close(context.Background())

	_, err = rt.Submit(context.Background(), "panicky", "caller", nil)
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}

	// Worker loop should still be alive for a subsequent submission.
	_, err = rt.Submit(context.Background(), "panicky", "caller", nil)
	if err == nil {
		t.Error("expected worker to still be alive and process the second job")
	}
}

func TestCloseDrainsOutstandingJobsWithCancellation(t *testing.T) {
	block := make(chan struct{})
	blocking := &blockingService{release: block}
	rt, err := Start(context.Background(), map[string]Service{"slow": blocking})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	results := make(chan error, 1)
	go func() {
		_, err := rt.Submit(context.Background(), "slow", "caller", nil)
		results <- err
	}()

	time.Sleep(20 * time.Millisecond) // let the first job start processing
	go rt.Close(context.Background())
	close(block)

	select {
	case <-results:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for drained submission")
	}
}

type blockingService struct{ release chan struct{} }

func (s *blockingService) CanProcess(context.Context) bool { return true }
func (s *blockingService) Process(ctx context.Context, _ string, _ any) (any, error) {
	select {
	case <-s.release:
		return "done", nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
