package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// OutputPaths lists the files WriteOutputs produces. Empty paths are skipped.
type OutputPaths struct {
	Image    string `json:"output_path,omitempty"`
	Manifest string `json:"manifest_path,omitempty"`
	TSX      string `json:"tsx_path,omitempty"`
}

// WrittenFiles reports what WriteOutputs wrote, in bytes per path.
type WrittenFiles map[string]int

// WriteOutputs writes the atlas PNG, the JSON manifest and the Tiled tileset
// of res to the given paths, creating parent directories as needed.
//
// The TSX references the atlas by a path relative to the TSX file when both
// are written, or by the atlas file name otherwise. Before it is written the
// TSX is read back as a Tiled tileset and its collision tiles are checked
// against the manifest.
func WriteOutputs(res *tileset.Result, paths OutputPaths) (WrittenFiles, error) {
	if res == nil {
		return nil, fmt.Errorf("no processed tileset to write")
	}
	written := WrittenFiles{}

	if paths.Image != "" {
		if err := writeFile(paths.Image, res.PNG); err != nil {
			return written, err
		}
		written[paths.Image] = len(res.PNG)
	}

	if paths.Manifest != "" {
		if err := writeFile(paths.Manifest, res.Manifest); err != nil {
			return written, err
		}
		written[paths.Manifest] = len(res.Manifest)
	}

	if paths.TSX != "" {
		data, err := EncodeTSX(res, TSXOptions{
			Name:        tilesetName(paths),
			ImageSource: imageSource(paths),
		})
		if err != nil {
			return written, err
		}
		if err := checkTSX(data, res.Manifest); err != nil {
			return written, fmt.Errorf("tsx does not match manifest: %w", err)
		}
		if err := writeFile(paths.TSX, data); err != nil {
			return written, err
		}
		written[paths.TSX] = len(data)
	}

	return written, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func imageSource(paths OutputPaths) string {
	if paths.Image == "" {
		return ""
	}
	rel, err := filepath.Rel(filepath.Dir(paths.TSX), paths.Image)
	if err != nil {
		return filepath.Base(paths.Image)
	}
	return filepath.ToSlash(rel)
}

func tilesetName(paths OutputPaths) string {
	base := filepath.Base(paths.TSX)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
