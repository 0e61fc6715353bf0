package edge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/veighnsche/darkwall/pkg/types"
)

// HistoryRecord is one generated image, appended to the gallery log
// (spec §6.2: "record(image_bytes, metadata)"). Image holds the raw
// generated bytes (encoding/json base64-encodes a []byte automatically),
// so the gallery log can reproduce exactly what was generated, not just
// describe it.
type HistoryRecord struct {
	Timestamp       time.Time         `json:"timestamp"`
	Monitor         string            `json:"monitor"`
	Theme           string            `json:"theme"`
	Template        string            `json:"template"`
	WorkflowID      string            `json:"workflow_id"`
	Seed            uint64            `json:"seed"`
	OutputPath      string            `json:"output_path"`
	PositivePrompts map[string]string `json:"positive_prompts"`
	NegativePrompts map[string]string `json:"negative_prompts"`
	Image           []byte            `json:"image"`
}

// HistorySink appends one record per generated image.
type HistorySink interface {
	Append(record HistoryRecord) error
}

// JSONLHistorySink appends one JSON line per call to a gallery log file.
type JSONLHistorySink struct {
	Path string
}

// NewJSONLHistorySink returns a sink appending to path.
func NewJSONLHistorySink(path string) *JSONLHistorySink {
	return &JSONLHistorySink{Path: path}
}

// Append marshals record as one JSON line and appends it to Path,
// creating parent directories as needed. The pipeline discards a failure
// here without logging it; it is never fatal to the run (spec §6.2:
// history is a narrow external collaborator, not part of the
// deterministic core).
func (s *JSONLHistorySink) Append(record HistoryRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Append", err)
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Append", err)
	}
	defer f.Close()

	raw, err := json.Marshal(record)
	if err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Append", err)
	}
	raw = append(raw, '\n')
	if _, err := f.Write(raw); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Append", err)
	}
	return nil
}
