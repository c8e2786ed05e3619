package retrieval

import (
	"sort"

	"github.com/NREL/COMPASS/internal/document"
)

// Document attribute keys Rank reads. LocationFilter and ContentFilter do
// not set the two scores; a document without an attribute ranks as if it
// were 0 (or false for is_pdf).
const (
	AttrJurisdictionScore = "jurisdiction_score"
	AttrContentScore      = "content_score"
	AttrIsPDF             = "is_pdf"
)

// Rank sorts docs descending by (year, is_pdf, jurisdiction_score,
// content_score, -text_length, month, day), per spec §4.6, and returns the
// ranked slice (the full list, not just the top one — callers choose how
// many to forward downstream; see DESIGN.md for the ranked-list vs.
// single-best forwarding decision).
func Rank(docs []*document.Document) []*document.Document {
	ranked := make([]*document.Document, len(docs))
	copy(ranked, docs)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Date.Year != b.Date.Year {
			return a.Date.Year > b.Date.Year
		}
		aPDF, bPDF := boolAttr(a, AttrIsPDF), boolAttr(b, AttrIsPDF)
		if aPDF != bPDF {
			return aPDF
		}
		aJur, bJur := floatAttr(a, AttrJurisdictionScore), floatAttr(b, AttrJurisdictionScore)
		if aJur != bJur {
			return aJur > bJur
		}
		aContent, bContent := floatAttr(a, AttrContentScore), floatAttr(b, AttrContentScore)
		if aContent != bContent {
			return aContent > bContent
		}
		aLen, bLen := len(a.Text()), len(b.Text())
		if aLen != bLen {
			return aLen < bLen // descending negative text length == ascending text length
		}
		if a.Date.Month != b.Date.Month {
			return a.Date.Month > b.Date.Month
		}
		return a.Date.Day > b.Date.Day
	})

	return ranked
}

func boolAttr(d *document.Document, key string) bool {
	v, _ := document.Attr[bool](d, key)
	return v
}

func floatAttr(d *document.Document, key string) float64 {
	v, _ := document.Attr[float64](d, key)
	return v
}
