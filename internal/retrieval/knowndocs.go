package retrieval

import (
	"fmt"
	"io"
	"os"

	"github.com/NREL/COMPASS/internal/document"
)

// KnownDocsManifest maps a jurisdiction's full name to the local file paths
// already known to hold its ordinance text (the "load_known_local_docs"
// strategy, spec §4.6 step 3).
type KnownDocsManifest map[string][]string

// LoadKnownDocs reads every path manifest[jurisdictionName] names from disk,
// stamping each into a Document. A missing jurisdiction entry is not an
// error — it simply yields no documents, same as an exhausted search.
func LoadKnownDocs(manifest KnownDocsManifest, jurisdictionName string) ([]*document.Document, error) {
	paths, ok := manifest[jurisdictionName]
	if !ok {
		return nil, nil
	}

	docs := make([]*document.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := loadLocalFile(path)
		if err != nil {
			return docs, fmt.Errorf("retrieval: loading known doc %q: %w", path, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadLocalFile(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	doc := document.New(path, []string{string(raw)})
	document.Stamp(doc, raw)
	document.SetAttr(doc, "is_pdf", false)
	return doc, nil
}
