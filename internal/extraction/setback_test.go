package extraction

import (
	"context"
	"testing"
)

func TestBaseSetbackDialogFound(t *testing.T) {
	provider := &keywordProvider{rules: []keywordRule{
		{contains: "Does the text contain a setback", reply: "Yes, a 500 foot setback applies per section 4.2."},
	}}
	rt, svc := newTestRuntime(t, provider)
	factory := newCallerFactory(rt, svc)

	caller := factory("system")
	got, err := BaseSetbackDialog(context.Background(), caller, "task", "turbine_setback", "structures", false)
	if err != nil {
		t.Fatalf("BaseSetbackDialog() error = %v", err)
	}
	if !got.Found {
		t.Fatalf("BaseSetbackDialog().Found = false, want true")
	}
	if got.Seed == nil || len(got.Seed) == 0 {
		t.Errorf("BaseSetbackDialog().Seed is empty, want the captured transcript")
	}
}

func TestBaseSetbackDialogNotFound(t *testing.T) {
	provider := &keywordProvider{rules: []keywordRule{
		{contains: "Does the text contain a setback", reply: "No, the text does not address this."},
	}}
	rt, svc := newTestRuntime(t, provider)
	factory := newCallerFactory(rt, svc)

	caller := factory("system")
	got, err := BaseSetbackDialog(context.Background(), caller, "task", "turbine_setback", "roads", false)
	if err != nil {
		t.Fatalf("BaseSetbackDialog() error = %v", err)
	}
	if got.Found {
		t.Errorf("BaseSetbackDialog().Found = true, want false")
	}
}

func TestBaseSetbackDialogFoundOrdFastPathSkipsYesNoGate(t *testing.T) {
	provider := &keywordProvider{rules: []keywordRule{
		{contains: "Quote the exact raw excerpt", reply: "The setback shall be 3 times tip height."},
		{contains: "Does the text contain a setback", reply: "THIS SHOULD NEVER BE ASKED"},
	}}
	rt, svc := newTestRuntime(t, provider)
	factory := newCallerFactory(rt, svc)

	caller := factory("system")
	got, err := BaseSetbackDialog(context.Background(), caller, "task", "turbine_setback", "structures", true)
	if err != nil {
		t.Fatalf("BaseSetbackDialog() error = %v", err)
	}
	if !got.Found {
		t.Fatalf("BaseSetbackDialog().Found = false, want true (found_ord fast path)")
	}
	if got.Excerpt != "The setback shall be 3 times tip height." {
		t.Errorf("BaseSetbackDialog().Excerpt = %q, unexpected", got.Excerpt)
	}
}
