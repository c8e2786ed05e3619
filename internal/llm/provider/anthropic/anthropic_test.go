package anthropic

import (
	"errors"
	"testing"

	"github.com/NREL/COMPASS/internal/corerr"
)

func TestClassifyMessageHeuristics(t *testing.T) {
	tests := []struct {
		msg  string
		want corerr.ProviderKind
	}{
		{"rate_limit_error: too many requests", corerr.RateLimit},
		{"429 Too Many Requests", corerr.RateLimit},
		{"context deadline exceeded", corerr.Timeout},
		{"503 Service Unavailable", corerr.Transient5xx},
		{"invalid request: missing field", corerr.BadRequest},
	}

	for _, tt := range tests {
		got := classify(errors.New(tt.msg))
		var provErr *corerr.ProviderError
		if !errors.As(got, &provErr) {
			t.Fatalf("classify(%q) did not produce a *ProviderError", tt.msg)
		}
		if provErr.Kind != tt.want {
			t.Errorf("classify(%q).Kind = %s, want %s", tt.msg, provErr.Kind, tt.want)
		}
	}
}
