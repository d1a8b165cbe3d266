package tileset

import (
	"encoding/json"
	"fmt"
	"time"
)

// Manifest describes a processed tileset. Field order is fixed so encoded
// manifests diff cleanly.
type Manifest struct {
	Info   ManifestInfo   `json:"info"`
	Config ManifestConfig `json:"config"`
	Tiles  []ManifestTile `json:"tiles"`
}

// ManifestInfo identifies the tool run that produced a manifest.
type ManifestInfo struct {
	Tool        string `json:"tool"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generatedAt"` // RFC 3339, UTC
}

// ManifestConfig echoes the effective configuration and output size.
type ManifestConfig struct {
	TileSize int  `json:"tileSize"`
	Mode     Mode `json:"mode"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
}

// ManifestTile is one tile entry.
type ManifestTile struct {
	ID        int  `json:"id"`
	Collision bool `json:"collision"`
}

// BuildManifest describes tiles, which must be in ascending id order, for
// an output of width x height pixels.
func BuildManifest(cfg Config, width, height int, tiles []Tile, version string, generatedAt time.Time) Manifest {
	entries := make([]ManifestTile, len(tiles))
	for i, t := range tiles {
		entries[i] = ManifestTile{ID: t.ID, Collision: t.Solid}
	}
	return Manifest{
		Info: ManifestInfo{
			Tool:        ToolName,
			Version:     version,
			GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		},
		Config: ManifestConfig{
			TileSize: cfg.TileSize,
			Mode:     cfg.Mode,
			Width:    width,
			Height:   height,
		},
		Tiles: entries,
	}
}

// Encode renders the manifest as indented JSON with a trailing newline.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Collisions returns the collision flag of every tile indexed by id.
func (m Manifest) Collisions() []bool {
	flags := make([]bool, len(m.Tiles))
	for i, t := range m.Tiles {
		flags[i] = t.Collision
	}
	return flags
}

// ParseManifest decodes a manifest and checks that tile ids run 0..N-1 in
// order.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i, t := range m.Tiles {
		if t.ID != i {
			return nil, fmt.Errorf("manifest tile %d has id %d, ids must be contiguous from 0", i, t.ID)
		}
	}
	return &m, nil
}
