package backoff

import (
	"context"
	"time"
)

// RetryWithinBudget executes fn, retrying provider-retryable failures with
// exponential backoff, until either it succeeds or the cumulative elapsed
// time (including sleeps) exceeds budget. It returns (zero, nil) when the
// budget is exhausted — spec §7 item 4: "exceeding budget returns nil to
// caller", not an error, since a budget-exhausted one-shot LLM call is a
// normal (if disappointing) outcome, not a fault in the caller's request.
//
// shouldRetry classifies the error returned by fn; a false result stops
// retrying immediately and returns (zero, err) so terminal provider errors
// (bad request, auth) propagate instead of being swallowed.
func RetryWithinBudget[T any](
	ctx context.Context,
	policy BackoffPolicy,
	budget time.Duration,
	shouldRetry func(error) bool,
	fn func(attempt int) (T, error),
) (T, error) {
	var zero T
	deadline := time.Now().Add(budget)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(attempt)
		if err == nil {
			return value, nil
		}
		if !shouldRetry(err) {
			return zero, err
		}

		next := ComputeBackoff(policy, attempt)
		if time.Now().Add(next).After(deadline) {
			return zero, nil
		}
		if err := SleepWithContext(ctx, next); err != nil {
			return zero, err
		}
	}
}
