// Package extraction implements Structured Extraction (C8): per-feature
// parallel decision-tree dialogs over a narrowed ordinance text, producing
// a tabular result of ordinance value rows (spec §4.8).
package extraction

// FeatureKind classifies how a feature's dialog chain is shaped.
type FeatureKind int

const (
	// Setback features have a reference object ("property line", "structures")
	// and run the full base-setback -> ownership-fork -> multiplier chain.
	Setback FeatureKind = iota
	// NumericalNonSetback features (height, noise, shadow flicker) skip the
	// reference-object and ownership-fork steps but still run the
	// multiplier/conditional-min/conditional-max chain.
	NumericalNonSetback
	// Qualitative features (signage, decommissioning) are summarized, not
	// measured — no multiplier chain runs.
	Qualitative
)

func (k FeatureKind) String() string {
	switch k {
	case Setback:
		return "setback"
	case NumericalNonSetback:
		return "numerical_non_setback"
	case Qualitative:
		return "qualitative"
	default:
		return "unknown"
	}
}

// Feature is one row of the fixed-per-technology enumeration of things to
// extract (spec §4.8 step 2).
type Feature struct {
	Name             string
	Kind             FeatureKind
	ReferenceObjects []string // e.g. {"structures", "property line"}; only meaningful for Setback
	// OwnershipSplit restricts the participating/non-participating fork to
	// the reference objects it names (spec §9 supplemented feature: "fork
	// restricted to structures/property line only"); nil/empty means no fork.
	OwnershipSplit []string
}

// OrdinanceValueRow is the Ordinance Value Row data model (spec §3): one
// extracted value (or qualitative summary) for one feature.
type OrdinanceValueRow struct {
	Feature        string
	ReferenceObject string // e.g. "structures"; empty for non-setback features
	OwnershipClass string // "participating", "non_participating", or "" when unsplit
	Value          *float64
	Units          *string
	Adder          *float64
	MinDist        *float64
	MaxDist        *float64
	Summary        *string
	Section        *string
	Quantitative   bool
}

// IsEmpty reports whether the row carries no extracted content, per spec
// §3: "rows with no non-null in {value, adder, min_dist, max_dist, summary}
// count as empty".
func (r OrdinanceValueRow) IsEmpty() bool {
	return r.Value == nil && r.Adder == nil && r.MinDist == nil && r.MaxDist == nil && r.Summary == nil
}
