// Package document models the opaque text-plus-attributes blob produced by
// retrieval and enriched by every later pipeline stage.
package document

import (
	"crypto/sha256"
	"encoding/hex"
)

// Date is an optional (year, month, day) triple stamped on documents that
// carry a publication or effective date.
type Date struct {
	Year, Month, Day int
}

// IsZero reports whether no date components were set.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Document is an opaque blob of text plus an attribute mapping. Attributes
// are additive: later pipeline stages enrich the same document rather than
// replacing it, so callers should only ever add keys to Attrs, never delete
// one another's.
type Document struct {
	// Pages holds the ordered text chunks the document was split into.
	Pages []string
	// Source is the URL or file path the document was retrieved from.
	Source string
	// Date is the optional publication/effective date.
	Date Date
	// FromOCR records whether the text passed through an OCR step upstream.
	FromOCR bool
	// Checksum is the SHA-256 hex digest of the raw retrieved bytes.
	Checksum string
	// Attrs carries stage-specific enrichment, e.g. "cleaned_ordinance_text",
	// "ordinance_values", keyed by a stable string the producing stage owns.
	Attrs map[string]any
}

// New builds a Document from its pages, computing Text lazily via Text().
func New(source string, pages []string) *Document {
	return &Document{
		Source: source,
		Pages:  pages,
		Attrs:  make(map[string]any),
	}
}

// Text concatenates all pages with a blank line between them.
func (d *Document) Text() string {
	out := ""
	for i, p := range d.Pages {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

// Stamp records checksum over raw bytes, the canonical way retrieval marks a
// document's content identity (spec §4.6: "cached bytes are hashed (SHA-256)
// and stamped onto the document").
func Stamp(d *Document, raw []byte) {
	sum := sha256.Sum256(raw)
	d.Checksum = hex.EncodeToString(sum[:])
}

// Attr returns a typed attribute, reporting whether it was present.
func Attr[T any](d *Document, key string) (T, bool) {
	var zero T
	if d.Attrs == nil {
		return zero, false
	}
	v, ok := d.Attrs[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// SetAttr stores a typed attribute under key, initializing Attrs if needed.
func SetAttr(d *Document, key string, value any) {
	if d.Attrs == nil {
		d.Attrs = make(map[string]any)
	}
	d.Attrs[key] = value
}
