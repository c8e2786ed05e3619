package extraction

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NREL/COMPASS/internal/llm"
	"github.com/NREL/COMPASS/internal/ratelimit"
	"github.com/NREL/COMPASS/internal/runtime"
)

// keywordProvider replies based on a substring match against the most
// recent user message, so tests don't need to predict exact call order
// across concurrently-forked dialogs.
type keywordProvider struct {
	rules   []keywordRule
	fallback string
}

type keywordRule struct {
	contains string
	reply    string
}

func (p *keywordProvider) ChatCompletion(_ context.Context, _ string, messages llm.Transcript, _ map[string]any) (string, llm.UsageMeta, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			lastUser = messages[i].Content
			break
		}
	}
	for _, r := range p.rules {
		if strings.Contains(lastUser, r.contains) {
			return r.reply, llm.UsageMeta{}, nil
		}
	}
	if p.fallback != "" {
		return p.fallback, llm.UsageMeta{}, nil
	}
	return "no", llm.UsageMeta{}, nil
}

func newTestRuntime(t *testing.T, provider llm.ChatProvider) (*runtime.Runtime, string) {
	t.Helper()
	window := ratelimit.NewRollingWindow(time.Minute)
	svc := llm.NewService(provider, window, 1000, 2*time.Second)
	rt, err := runtime.Start(context.Background(), map[string]runtime.Service{"llm": svc})
	if err != nil {
		t.Fatalf("runtime.Start() error = %v", err)
	}
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt, "llm"
}

func newCallerFactory(rt *runtime.Runtime, svc string) NewChatCaller {
	return func(system string) *llm.ChatCaller {
		return llm.NewChatCaller(llm.Base{Runtime: rt, ServiceName: svc, Model: "claude-3", Category: "extraction"}, system)
	}
}
