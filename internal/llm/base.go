package llm

import (
	"context"
	"fmt"

	"github.com/NREL/COMPASS/internal/runtime"
	"github.com/NREL/COMPASS/internal/usage"
)

// Base holds what all three caller flavors share (spec §4.3): the runtime
// service to submit through, an optional usage tracker, and any
// provider-specific extra kwargs merged onto every call.
type Base struct {
	Runtime     *runtime.Runtime
	ServiceName string
	Model       string
	Category    string
	Usage       *usage.Tracker // nil disables usage accounting
	ExtraKwargs map[string]any
}

// call submits messages through the runtime service and, if a usage tracker
// is configured, records the token counts under (Model, Category).
func (b *Base) call(ctx context.Context, callerTask string, messages Transcript) (CallResult, error) {
	raw, err := b.Runtime.Submit(ctx, b.ServiceName, callerTask, CallArgs{
		Model:       b.Model,
		Messages:    messages,
		ExtraKwargs: b.ExtraKwargs,
	})
	if err != nil {
		return CallResult{}, err
	}

	result, ok := raw.(CallResult)
	if !ok {
		return CallResult{}, fmt.Errorf("llm: service returned unexpected result type %T", raw)
	}

	if b.Usage != nil {
		b.Usage.Update(b.Model, b.Category, result.Usage, func(current usage.CategoryUsage, raw any) usage.CategoryUsage {
			meta := raw.(UsageMeta)
			current.Requests++
			current.PromptTokens += meta.PromptTokens
			current.ResponseTokens += meta.ResponseTokens
			return current
		})
	}

	return result, nil
}
