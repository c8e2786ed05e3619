package extraction

import (
	"context"
	"testing"

	"github.com/NREL/COMPASS/internal/llm"
)

func TestExtractPermittedUseParsesDistrictArrays(t *testing.T) {
	provider := &keywordProvider{rules: []keywordRule{
		{contains: "permitted use", reply: `{"permitted": ["A-1", "A-2"], "conditional": ["R-1"], "prohibited": []}`},
	}}
	rt, svc := newTestRuntime(t, provider)

	caller := llm.NewStructuredCaller(llm.Base{Runtime: rt, ServiceName: svc, Model: "claude-3", Category: "extraction"}, nil)
	got := ExtractPermittedUse(context.Background(), caller, "task", "system")

	if len(got.PermittedDistricts) != 2 || got.PermittedDistricts[0] != "A-1" {
		t.Errorf("PermittedDistricts = %v", got.PermittedDistricts)
	}
	if len(got.ConditionalDistricts) != 1 || got.ConditionalDistricts[0] != "R-1" {
		t.Errorf("ConditionalDistricts = %v", got.ConditionalDistricts)
	}
	if len(got.ProhibitedDistricts) != 0 {
		t.Errorf("ProhibitedDistricts = %v, want empty", got.ProhibitedDistricts)
	}
}
