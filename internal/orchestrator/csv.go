package orchestrator

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/NREL/COMPASS/internal/extraction"
	"github.com/NREL/COMPASS/internal/jurisdiction"
)

// valuesCSVHeader is the per-jurisdiction artifact's fixed column order
// (spec §6). The driver's combined quantitative_ordinances.csv, written by
// internal/outputs, uses a different header: it adds reference_object and
// ownership_class after feature and has no summary column. A per-jurisdiction artifact carries both quantitative and
// qualitative rows; qualitative rows simply leave the numeric columns blank,
// since the driver (C10) is what splits the combined, process-wide CSVs by
// the Quantitative flag.
var valuesCSVHeader = []string{
	"state", "county", "subdivision", "jurisdiction_type", "FIPS",
	"feature", "value", "units", "adder", "min_dist", "max_dist",
	"summary", "ord_year", "last_updated", "section", "source",
}

// EncodeValuesCSV renders rows for one jurisdiction's document into the
// structured-values CSV artifact persisted alongside the cleaned text.
func EncodeValuesCSV(ref jurisdiction.Reference, rows []extraction.OrdinanceValueRow, ordYear int, lastUpdated, source string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(valuesCSVHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			ref.State, ref.County, ref.Subdivision, string(ref.Type), ref.Code,
			r.Feature, floatOrEmpty(r.Value), stringOrEmptyPtr(r.Units), floatOrEmpty(r.Adder),
			floatOrEmpty(r.MinDist), floatOrEmpty(r.MaxDist), stringOrEmptyPtr(r.Summary),
			intOrEmpty(ordYear), lastUpdated, stringOrEmptyPtr(r.Section), source,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
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
