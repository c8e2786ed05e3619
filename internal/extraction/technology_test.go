package extraction

import "testing"

func TestFeaturesForWindIncludesSetbackAndOwnershipSplit(t *testing.T) {
	features := FeaturesFor("wind")
	if len(features) == 0 {
		t.Fatal("FeaturesFor(wind) returned no features")
	}
	var setback *Feature
	for i := range features {
		if features[i].Kind == Setback {
			setback = &features[i]
			break
		}
	}
	if setback == nil {
		t.Fatal("FeaturesFor(wind) has no Setback feature")
	}
	if !appliesToOwnershipSplit(*setback, "structures") {
		t.Errorf("appliesToOwnershipSplit(%v, structures) = false, want true", setback.Name)
	}
	if appliesToOwnershipSplit(*setback, "roads") {
		t.Errorf("appliesToOwnershipSplit(%v, roads) = true, want false (restricted to structures/property line)", setback.Name)
	}
}

func TestFeaturesForUnknownTechnologyIsEmpty(t *testing.T) {
	if got := FeaturesFor("hydrogen"); got != nil {
		t.Errorf("FeaturesFor(unknown) = %v, want nil", got)
	}
}

func TestFeatureKindString(t *testing.T) {
	cases := map[FeatureKind]string{
		Setback:             "setback",
		NumericalNonSetback: "numerical_non_setback",
		Qualitative:         "qualitative",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(kind), got, want)
		}
	}
}
