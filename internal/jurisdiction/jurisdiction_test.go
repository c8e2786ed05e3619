package jurisdiction

import (
	"strings"
	"testing"
)

func TestEqualCasefold(t *testing.T) {
	a := Jurisdiction{Type: County, State: "Colorado", County: "Boulder"}
	b := Jurisdiction{Type: County, State: "COLORADO", County: "boulder"}
	c := Jurisdiction{Type: County, State: "Colorado", County: "Weld"}

	if !a.Equal(b) {
		t.Errorf("expected casefolded equality between %+v and %+v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("did not expect equality between %+v and %+v", a, c)
	}
}

func TestHashAgreesWithEqual(t *testing.T) {
	a := Jurisdiction{Type: Town, State: "Vermont", Subdivision: "Essex Gore"}
	b := Jurisdiction{Type: Town, State: "vermont", Subdivision: "ESSEX GORE"}

	if !a.Equal(b) {
		t.Fatal("expected equal")
	}
	if a.Hash() != b.Hash() {
		t.Errorf("Hash() disagreed with Equal(): %q vs %q", a.Hash(), b.Hash())
	}
}

func TestFullName(t *testing.T) {
	j := Jurisdiction{Type: County, State: "Iowa", County: "Story"}
	if got, want := j.FullName(), "Story, Iowa"; got != want {
		t.Errorf("FullName() = %q, want %q", got, want)
	}
}

func TestLoadReference(t *testing.T) {
	csv := "State,County,Subdivision,Jurisdiction Type,FIPS,Website\n" +
		"Iowa,Story,,county,19169,https://storycountyiowa.gov\n" +
		"Vermont,,Essex Gore,gore,50009,\n"

	refs, err := LoadReference(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadReference() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2", len(refs))
	}
	if refs[0].Code != "19169" || refs[0].Type != County {
		t.Errorf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Website != "" {
		t.Errorf("expected empty website, got %q", refs[1].Website)
	}

	r, ok := Resolve(refs, "story, iowa")
	if !ok || r.Code != "19169" {
		t.Errorf("Resolve() = %+v, %v, want FIPS 19169", r, ok)
	}
}

func TestLoadReferenceMissingState(t *testing.T) {
	csv := "State,County\n,Story\n"
	if _, err := LoadReference(strings.NewReader(csv)); err == nil {
		t.Error("expected error for missing State")
	}
}

func TestLoadReferenceMissingHeader(t *testing.T) {
	csv := "County\nStory\n"
	if _, err := LoadReference(strings.NewReader(csv)); err == nil {
		t.Error("expected error for missing State column")
	}
}
