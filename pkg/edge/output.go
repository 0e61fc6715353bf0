package edge

import (
	"os"
	"path/filepath"

	"github.com/veighnsche/darkwall/pkg/types"
)

// OutputWriter persists generated image bytes to a monitor's configured
// output path.
type OutputWriter interface {
	Save(path string, data []byte) error
}

// FileOutputWriter writes via temp-file-then-rename, the same
// atomic-write idiom pkg/rotation uses for its state document.
type FileOutputWriter struct{}

// Save creates path's parent directory if needed and atomically
// replaces any existing file at path.
func (FileOutputWriter) Save(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}

	tempPath := path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}
	if err := f.Close(); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return types.Wrap(types.ErrFilesystemError, "edge.Save", err)
	}
	return nil
}
