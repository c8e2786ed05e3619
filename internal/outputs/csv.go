// Package outputs implements the driver's (C10) process-wide artifact
// writers: the combined quantitative/qualitative CSVs, usage.json, and
// meta.json (spec §6's external interfaces), every write atomic via
// temp-write-then-rename.
package outputs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/NREL/COMPASS/internal/extraction"
	"github.com/NREL/COMPASS/internal/jurisdiction"
)

// Row pairs one jurisdiction's extracted rows with the document metadata
// EncodeCSVs needs to render every column.
type Row struct {
	Jurisdiction jurisdiction.Reference
	Source       string
	OrdYear      int
	LastUpdated  string
	Value        extraction.OrdinanceValueRow
}

var quantitativeHeader = []string{
	"state", "county", "subdivision", "jurisdiction_type", "FIPS",
	"feature", "reference_object", "ownership_class", "value", "units",
	"adder", "min_dist", "max_dist", "ord_year", "last_updated", "section", "source",
}

var qualitativeHeader = []string{
	"state", "county", "subdivision", "jurisdiction_type", "FIPS",
	"feature", "summary", "ord_year", "last_updated", "section", "source",
}

// SplitAndWrite partitions rows by OrdinanceValueRow.Quantitative and writes
// the two combined CSVs with stable column orderings (spec §4.10).
func SplitAndWrite(quantitativePath, qualitativePath string, rows []Row) error {
	var quant, qual bytes.Buffer

	qw := csv.NewWriter(&quant)
	if err := qw.Write(quantitativeHeader); err != nil {
		return fmt.Errorf("outputs: writing quantitative header: %w", err)
	}
	lw := csv.NewWriter(&qual)
	if err := lw.Write(qualitativeHeader); err != nil {
		return fmt.Errorf("outputs: writing qualitative header: %w", err)
	}

	for _, r := range rows {
		j := r.Jurisdiction
		if r.Value.Quantitative {
			record := []string{
				j.State, j.County, j.Subdivision, string(j.Type), j.Code,
				r.Value.Feature, r.Value.ReferenceObject, r.Value.OwnershipClass,
				floatOrEmpty(r.Value.Value), stringOrEmptyPtr(r.Value.Units),
				floatOrEmpty(r.Value.Adder), floatOrEmpty(r.Value.MinDist), floatOrEmpty(r.Value.MaxDist),
				intOrEmpty(r.OrdYear), r.LastUpdated, stringOrEmptyPtr(r.Value.Section), r.Source,
			}
			if err := qw.Write(record); err != nil {
				return fmt.Errorf("outputs: writing quantitative row: %w", err)
			}
		} else {
			record := []string{
				j.State, j.County, j.Subdivision, string(j.Type), j.Code,
				r.Value.Feature, stringOrEmptyPtr(r.Value.Summary),
				intOrEmpty(r.OrdYear), r.LastUpdated, stringOrEmptyPtr(r.Value.Section), r.Source,
			}
			if err := lw.Write(record); err != nil {
				return fmt.Errorf("outputs: writing qualitative row: %w", err)
			}
		}
	}

	qw.Flush()
	if err := qw.Error(); err != nil {
		return err
	}
	lw.Flush()
	if err := lw.Error(); err != nil {
		return err
	}

	if err := atomicWriteFile(quantitativePath, quant.Bytes()); err != nil {
		return err
	}
	return atomicWriteFile(qualitativePath, qual.Bytes())
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func stringOrEmptyPtr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intOrEmpty(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("outputs: creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".output-*.tmp")
	if err != nil {
		return fmt.Errorf("outputs: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("outputs: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("outputs: closing temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}
