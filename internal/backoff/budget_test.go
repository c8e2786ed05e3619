package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithinBudgetSucceedsAfterRetries(t *testing.T) {
	policy := BackoffPolicy{InitialMs: 1, MaxMs: 5, Factor: 1, Jitter: 0}
	attempts := 0
	got, err := RetryWithinBudget(context.Background(), policy, time.Second,
		func(error) bool { return true },
		func(attempt int) (string, error) {
			attempts++
			if attempt < 3 {
				return "", errors.New("rate limited")
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("RetryWithinBudget() error = %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Errorf("got %q after %d attempts, want \"ok\" after 3", got, attempts)
	}
}

func TestRetryWithinBudgetReturnsNilPastBudget(t *testing.T) {
	policy := BackoffPolicy{InitialMs: 50, MaxMs: 50, Factor: 1, Jitter: 0}
	got, err := RetryWithinBudget(context.Background(), policy, 10*time.Millisecond,
		func(error) bool { return true },
		func(int) (int, error) { return 0, errors.New("still rate limited") })
	if err != nil {
		t.Fatalf("expected nil error past budget, got %v", err)
	}
	if got != 0 {
		t.Errorf("got %d, want zero value", got)
	}
}

func TestRetryWithinBudgetPropagatesTerminalError(t *testing.T) {
	terminal := errors.New("bad request")
	policy := DefaultPolicy()
	_, err := RetryWithinBudget(context.Background(), policy, time.Second,
		func(error) bool { return false },
		func(int) (int, error) { return 0, terminal })
	if !errors.Is(err, terminal) {
		t.Errorf("expected terminal error to propagate, got %v", err)
	}
}

func TestRetryWithinBudgetRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RetryWithinBudget(ctx, DefaultPolicy(), time.Second,
		func(error) bool { return true },
		func(int) (int, error) { return 0, errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
