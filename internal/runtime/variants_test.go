package runtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NREL/COMPASS/internal/ratelimit"
)

func TestRateLimitedBlocksAtCapacity(t *testing.T) {
	window := ratelimit.NewRollingWindow(time.Minute)
	svc := NewRateLimited(window, 10, func(context.Context, string, any) (any, float64, error) {
		return "ok", 10, nil
	})

	if !svc.CanProcess(context.Background()) {
		t.Fatal("expected capacity before first call")
	}
	if _, err := svc.Process(context.Background(), "caller", nil); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if svc.CanProcess(context.Background()) {
		t.Error("expected CanProcess to be false once window total reaches limit")
	}
}

func TestThreadPoolBoundsConcurrency(t *testing.T) {
	active := make(chan struct{}, 10)
	maxSeen := 0
	var maxMu = make(chan int, 1)
	maxMu <- 0

	pool := NewThreadPool(2, func(ctx context.Context, _ string, _ any) (any, float64, error) {
		active <- struct{}{}
		cur := len(active)
		m := <-maxMu
		if cur > m {
			m = cur
		}
		maxMu <- m
		time.Sleep(20 * time.Millisecond)
		<-active
		return nil, 0, nil
	})

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			pool.Process(context.Background(), "caller", nil)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}
	maxSeen = <-maxMu
	if maxSeen > 2 {
		t.Errorf("observed %d concurrent workers, want <= 2", maxSeen)
	}
}

func TestProcessPoolRecoversFromPanic(t *testing.T) {
	calls := 0
	pool := NewProcessPool(1, func(context.Context, string, any) (any, float64, error) {
		calls++
		if calls == 1 {
			panic("decode failure")
		}
		return "ok", 0, nil
	})

	_, err := pool.Process(context.Background(), "story-county", nil)
	var crashed *WorkerCrashed
	if !errors.As(err, &crashed) {
		t.Fatalf("Process() error = %v, want *WorkerCrashed", err)
	}
	if crashed.CallerTask != "story-county" {
		t.Errorf("CallerTask = %q, want story-county", crashed.CallerTask)
	}

	// Pool must remain usable after a crash.
	got, err := pool.Process(context.Background(), "caller", nil)
	if err != nil || got != "ok" {
		t.Errorf("Process() after recovery = %v, %v", got, err)
	}
}
