// Package jurisdiction models the administrative areas COMPASS extracts
// ordinances for, and loads the reference table used to resolve a
// user-supplied jurisdiction list against canonical state/county/FIPS data.
package jurisdiction

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Type enumerates the kinds of administrative area COMPASS recognizes.
type Type string

const (
	State    Type = "state"
	County   Type = "county"
	Parish   Type = "parish"
	City     Type = "city"
	Town     Type = "town"
	Borough  Type = "borough"
	Township Type = "township"
	Gore     Type = "gore"
	Other    Type = "other"
)

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// Jurisdiction identifies one administrative area. Code is the jurisdiction's
// numeric reference code (typically a FIPS code); it is expected to be unique
// per jurisdiction but is not used in equality, which is defined purely on
// the (type, state, county, subdivision) tuple per the data model.
type Jurisdiction struct {
	Type       Type
	State      string
	County     string // optional
	Subdivision string // optional, e.g. a township within a county
	Code       string
}

// FullName renders a stable, human-readable name from the fields as given,
// without casefolding; two Equal jurisdictions can have FullNames that
// differ in case. Type is not part of the name.
func (j Jurisdiction) FullName() string {
	parts := make([]string, 0, 4)
	if j.Subdivision != "" {
		parts = append(parts, j.Subdivision)
	}
	if j.County != "" {
		parts = append(parts, j.County)
	}
	parts = append(parts, j.State)
	return strings.Join(parts, ", ")
}

// key is the casefolded comparison tuple backing Equal and Hash.
func (j Jurisdiction) key() [4]string {
	return [4]string{string(j.Type), fold(j.State), fold(j.County), fold(j.Subdivision)}
}

// Equal reports whether two jurisdictions denote the same administrative
// area: same type, and same state/county/subdivision under casefold.
func (j Jurisdiction) Equal(other Jurisdiction) bool {
	return j.key() == other.key()
}

// Hash returns a string usable as a map key that agrees with Equal: two
// jurisdictions that are Equal always produce the same Hash.
func (j Jurisdiction) Hash() string {
	k := j.key()
	return fmt.Sprintf("%s|%s|%s|%s", k[0], k[1], k[2], k[3])
}

// Reference is one row of the jurisdiction reference table (spec §6's
// "Jurisdiction reference" inbound interface). Website is optional.
type Reference struct {
	Jurisdiction
	Website string
}
