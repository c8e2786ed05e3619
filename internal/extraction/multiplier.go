package extraction

import (
	"context"

	"github.com/NREL/COMPASS/internal/llm"
)

// feetPerUnit converts a handful of common distance units encountered in
// ordinance text to feet, the canonical unit spec §4.8 step 3c requires
// ("performs unit conversions to a canonical unit (feet)").
var feetPerUnit = map[string]float64{
	"feet": 1, "foot": 1, "ft": 1,
	"meters": 3.28084, "meter": 3.28084, "m": 3.28084,
	"yards": 3, "yard": 3,
}

func toFeet(value float64, unit string) float64 {
	factor, ok := feetPerUnit[normalizeUnit(unit)]
	if !ok {
		return value
	}
	return value * factor
}

// MultiplierResult is the parsed, unit-converted output of the multiplier
// dialog (spec §4.8 step 3c).
type MultiplierResult struct {
	Value          *float64 // canonical feet; nil when the ordinance expresses a pure multiplier
	Units          string   // "feet" once Value is populated
	MultiplierType string   // "tip_height", "hub_height", "rotor_diameter", or ""
	MultiplierFactor *float64
	Adder          *float64 // canonical feet
	Summary        string
}

const multiplierPrompt = "Extract the setback distance. Respond as a single JSON object with keys: " +
	"\"mult_value\" (number or null, a fixed numeric setback distance), " +
	"\"mult_type\" (one of \"tip_height\", \"hub_height\", \"rotor_diameter\", or null, when the setback is expressed as a multiple of a turbine dimension instead of a fixed distance), " +
	"\"mult_factor\" (number or null, the multiplier applied to mult_type), " +
	"\"units\" (string, the unit mult_value is expressed in), " +
	"\"adder\" (number or null, a fixed distance added on top of the multiplier result), " +
	"\"summary\" (string, a one-sentence paraphrase)."

// MultiplierDialog runs the multiplier dialog on the forked prefix caller
// holds (spec §4.8 step 3c, first sub-dialog).
func MultiplierDialog(ctx context.Context, caller *llm.ChatCaller, callerTask string) (MultiplierResult, error) {
	text, err := caller.Call(ctx, callerTask, multiplierPrompt)
	if err != nil {
		return MultiplierResult{}, err
	}
	parsed, _ := llm.ParseJSONFromText(text)

	unit, _ := asString(parsed["units"])
	result := MultiplierResult{
		MultiplierType: stringOrEmpty(parsed["mult_type"]),
		Summary:        stringOrEmpty(parsed["summary"]),
	}
	if v, ok := asFloat(parsed["mult_value"]); ok {
		feet := toFeet(v, unit)
		result.Value = &feet
		result.Units = "feet"
	}
	if f, ok := asFloat(parsed["mult_factor"]); ok {
		result.MultiplierFactor = &f
	}
	if a, ok := asFloat(parsed["adder"]); ok {
		feet := toFeet(a, unit)
		result.Adder = &feet
	}
	return result, nil
}

// ConditionalResult is a single "greater of"/"lesser of" threshold,
// canonicalized to feet.
type ConditionalResult struct {
	Value *float64
}

const conditionalMinPrompt = "Does the text specify the setback shall be the GREATER of the value above and some other threshold " +
	"(e.g. \"whichever is greater\")? If so, respond as JSON {\"value\": number, \"units\": string}; otherwise respond {\"value\": null}."

const conditionalMaxPrompt = "Does the text specify the setback shall be the LESSER of the value above and some other threshold " +
	"(e.g. \"whichever is less\", a maximum cap)? If so, respond as JSON {\"value\": number, \"units\": string}; otherwise respond {\"value\": null}."

// ConditionalMinDialog runs only when mult.Value is non-nil (spec §4.8 step
// 3c: "if the multiplier result is non-null, extracts any 'greater of'
// threshold").
func ConditionalMinDialog(ctx context.Context, caller *llm.ChatCaller, callerTask string, mult MultiplierResult) (ConditionalResult, error) {
	if mult.Value == nil {
		return ConditionalResult{}, nil
	}
	return runConditional(ctx, caller, callerTask, conditionalMinPrompt)
}

// ConditionalMaxDialog is symmetric to ConditionalMinDialog for "lesser of"
// limits (spec §4.8 step 3c).
func ConditionalMaxDialog(ctx context.Context, caller *llm.ChatCaller, callerTask string, mult MultiplierResult) (ConditionalResult, error) {
	if mult.Value == nil {
		return ConditionalResult{}, nil
	}
	return runConditional(ctx, caller, callerTask, conditionalMaxPrompt)
}

func runConditional(ctx context.Context, caller *llm.ChatCaller, callerTask, prompt string) (ConditionalResult, error) {
	text, err := caller.Call(ctx, callerTask, prompt)
	if err != nil {
		return ConditionalResult{}, err
	}
	parsed, _ := llm.ParseJSONFromText(text)
	v, ok := asFloat(parsed["value"])
	if !ok {
		return ConditionalResult{}, nil
	}
	unit, _ := asString(parsed["units"])
	feet := toFeet(v, unit)
	return ConditionalResult{Value: &feet}, nil
}
