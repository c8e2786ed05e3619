package extraction

import (
	"strconv"
	"strings"
)

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func stringOrEmpty(v any) string {
	s, _ := asString(v)
	return s
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asFloat accepts the numeric shapes encoding/json produces (float64) as
// well as a numeric string, since LLM JSON replies occasionally quote
// numbers.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// NormalizeRow applies the empty-value cleanup rule: stray units/summary
// are dropped whenever no numeric value was extracted. It renames no keys:
// mult_value reaches Value in runMultiplierChain, and mult_type is not
// copied into Units or any other field of the row.
func NormalizeRow(row OrdinanceValueRow) OrdinanceValueRow {
	if row.Value == nil {
		row.Units = nil
		row.Summary = nil
	}
	return row
}

// ClampAdder applies the empirical post-processing rule (spec §3, §4.8
// step 4): an adder exceeding clampFeet is almost always a misread rather
// than a real ordinance value, so it is nulled rather than kept.
func ClampAdder(adder *float64, clampFeet float64) *float64 {
	if adder == nil {
		return nil
	}
	if *adder > clampFeet {
		return nil
	}
	return adder
}

// CountOrdinances counts the non-empty rows in a document's extracted
// result. Empty or nil input returns 0. The driver does not call it.
func CountOrdinances(rows []OrdinanceValueRow) int {
	n := 0
	for _, r := range rows {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}
