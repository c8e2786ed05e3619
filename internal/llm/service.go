package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NREL/COMPASS/internal/backoff"
	"github.com/NREL/COMPASS/internal/corerr"
	"github.com/NREL/COMPASS/internal/ratelimit"
	"github.com/NREL/COMPASS/internal/runtime"
)

// CallArgs is the job payload submitted to the LLM runtime service.
type CallArgs struct {
	Model       string
	Messages    Transcript
	ExtraKwargs map[string]any
}

// CallResult is what the service hands back to Base.call.
type CallResult struct {
	Text  string
	Usage UsageMeta
}

// NewService builds the rate-limited runtime.Service fronting provider:
// the rolling window throttles dequeuing (spec §4.1's rate-limited
// variant), and every call retries provider-retryable failures internally
// with backoff up to retryBudget before giving up (spec §7 item 4).
func NewService(provider ChatProvider, window *ratelimit.RollingWindow, requestsPerWindow float64, retryBudget time.Duration) *runtime.RateLimited {
	policy := backoff.DefaultPolicy()

	return runtime.NewRateLimited(window, requestsPerWindow, func(ctx context.Context, _ string, rawArgs any) (any, float64, error) {
		args, ok := rawArgs.(CallArgs)
		if !ok {
			return nil, 1, corerr.NewServiceError(corerr.Value, fmt.Sprintf("llm service received unexpected args type %T", rawArgs), nil)
		}

		result, err := backoff.RetryWithinBudget(ctx, policy, retryBudget,
			func(err error) bool {
				var provErr *corerr.ProviderError
				return errors.As(err, &provErr) && provErr.IsRetryable()
			},
			func(int) (CallResult, error) {
				text, usage, err := provider.ChatCompletion(ctx, args.Model, args.Messages, args.ExtraKwargs)
				if err != nil {
					return CallResult{}, err
				}
				return CallResult{Text: text, Usage: usage}, nil
			})
		if err != nil {
			// Terminal provider error (or context cancellation): propagate.
			return nil, 1, err
		}
		// RetryWithinBudget returns a zero CallResult with nil error once the
		// retry budget is exhausted; callers treat an empty Text as "no
		// result" per spec §7 item 4 ("exceeding budget returns nil").
		return result, 1, nil
	})
}
