package extraction

// FeaturesFor returns the fixed feature enumeration for technology, per
// spec §4.8 step 2 ("the enumeration is fixed per technology"). Grounded
// on the wind/solar extraction graphs' feature lists in the original
// implementation's per-technology modules.
func FeaturesFor(technology string) []Feature {
	switch technology {
	case "wind":
		return []Feature{
			{
				Name:             "turbine_setback",
				Kind:             Setback,
				ReferenceObjects: []string{"property line", "structures", "roads"},
				OwnershipSplit:   []string{"structures", "property line"},
			},
			{Name: "max_height", Kind: NumericalNonSetback},
			{Name: "noise", Kind: NumericalNonSetback},
			{Name: "shadow_flicker", Kind: NumericalNonSetback},
			{Name: "signage", Kind: Qualitative},
			{Name: "decommissioning", Kind: Qualitative},
		}
	case "solar":
		return []Feature{
			{
				Name:             "panel_setback",
				Kind:             Setback,
				ReferenceObjects: []string{"property line", "structures", "roads"},
				OwnershipSplit:   []string{"structures", "property line"},
			},
			{Name: "max_height", Kind: NumericalNonSetback},
			{Name: "glare", Kind: Qualitative},
			{Name: "signage", Kind: Qualitative},
			{Name: "decommissioning", Kind: Qualitative},
		}
	default:
		return nil
	}
}
