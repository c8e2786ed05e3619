package jurisdiction

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// LoadReference parses the jurisdiction reference CSV described in spec §6.
// State is required on every row; County, Subdivision, and Website are
// optional and may be empty. Rows missing State are rejected outright since
// the loader cannot join a user-supplied jurisdiction list without it.
func LoadReference(r io.Reader) ([]Reference, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("jurisdiction: reading reference header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []Reference
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("jurisdiction: reading reference row: %w", err)
		}

		state := field(row, idx, "State")
		if strings.TrimSpace(state) == "" {
			return nil, fmt.Errorf("jurisdiction: reference row missing required State column: %v", row)
		}

		typ := Type(strings.ToLower(strings.TrimSpace(field(row, idx, "Jurisdiction Type"))))
		if typ == "" {
			typ = Other
		}

		out = append(out, Reference{
			Jurisdiction: Jurisdiction{
				Type:        typ,
				State:       state,
				County:      field(row, idx, "County"),
				Subdivision: field(row, idx, "Subdivision"),
				Code:        field(row, idx, "FIPS"),
			},
			Website: field(row, idx, "Website"),
		})
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	if _, ok := idx["State"]; !ok {
		return nil, fmt.Errorf("jurisdiction: reference CSV missing required column %q", "State")
	}
	return idx, nil
}

func field(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Resolve finds the reference entry matching name against the loaded table
// using casefolded full-name comparison, as required by the data model's
// jurisdiction equality invariant.
func Resolve(refs []Reference, name string) (Reference, bool) {
	target := fold(name)
	for _, r := range refs {
		if fold(r.FullName()) == target {
			return r, true
		}
	}
	return Reference{}, false
}
