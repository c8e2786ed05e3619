package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StorageService is the runtime.Runtime service name a driver registers a
// runtime.ThreadPool under (spec §5: "every write goes through a
// thread-pool service that serializes by file path using temp-write +
// rename"), running StorageProcess.
const StorageService = "storage"

// WriteFileArgs atomically (over)writes Data at Path.
type WriteFileArgs struct {
	Path string
	Data []byte
}

// AppendManifestArgs appends Entry to the JSON array manifest at Path,
// creating it if absent.
type AppendManifestArgs struct {
	Path  string
	Entry ManifestEntry
}

// ManifestDocument is one retrieved document's summary within a
// ManifestEntry (spec §6's jurisdictions.json document shape).
type ManifestDocument struct {
	Source        string  `json:"source"`
	OrdFilename   string  `json:"ord_filename"`
	EffectiveYear int     `json:"effective_year"`
	NumPages      int     `json:"num_pages"`
	Checksum      string  `json:"checksum"`
	FromOCR       bool    `json:"from_ocr"`
	NGramScore    float64 `json:"ngram_score"`
}

// ManifestEntry is one jurisdiction's row in jurisdictions.json.
type ManifestEntry struct {
	FullName  string             `json:"full_name"`
	Found     bool               `json:"found"`
	Documents []ManifestDocument `json:"documents,omitempty"`
	Cost      float64            `json:"cost"`
}

// StorageProcess is the runtime.ProcessFunc a driver wraps in a
// runtime.ThreadPool to register under StorageService.
func StorageProcess(ctx context.Context, _ string, args any) (any, float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	switch a := args.(type) {
	case WriteFileArgs:
		return nil, 0, atomicWriteFile(a.Path, a.Data)
	case AppendManifestArgs:
		return nil, 0, appendManifestEntry(a.Path, a.Entry)
	default:
		return nil, 0, fmt.Errorf("orchestrator: storage service received unexpected args type %T", args)
	}
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("orchestrator: creating artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("orchestrator: creating temp artifact file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("orchestrator: writing temp artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("orchestrator: closing temp artifact file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func appendManifestEntry(path string, entry ManifestEntry) error {
	var entries []ManifestEntry
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("orchestrator: parsing existing manifest %q: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("orchestrator: reading existing manifest %q: %w", path, err)
	}

	entries = append(entries, entry)
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshaling manifest: %w", err)
	}
	return atomicWriteFile(path, data)
}
