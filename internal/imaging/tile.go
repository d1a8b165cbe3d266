package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// TileResult contains one source tile and its pipeline properties
type TileResult struct {
	Col         int            `json:"col"`
	Row         int            `json:"row"`
	Index       int            `json:"index"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	TileSize    int            `json:"tile_size"`
	Fingerprint string         `json:"fingerprint"`
	Opaque      int            `json:"opaque_pixels"`
	Collision   bool           `json:"collision"`
	Palette     *PaletteResult `json:"palette"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	ImageBase64 string         `json:"image_base64"`
	MimeType    string         `json:"mime_type"`
}

// ExtractTile cuts the tile at (col, row) out of src and reports how the
// pipeline sees it. scale > 1 enlarges the returned PNG with nearest-neighbour
// sampling; the other fields always describe the unscaled tile.
func ExtractTile(src *image.NRGBA, tileSize, col, row, scale int) (*TileResult, error) {
	grid, err := tileset.Partition(src.Rect.Dx(), src.Rect.Dy(), tileSize)
	if err != nil {
		return nil, err
	}
	if !grid.Contains(col, row) {
		return nil, fmt.Errorf("tile (%d,%d) outside %dx%d grid", col, row, grid.Cols, grid.Rows)
	}

	tile := tileset.NewRasterizer(src, tileSize).Tile(col, row)
	opaque, err := tileset.CountOpaque(tile, tileSize)
	if err != nil {
		return nil, err
	}
	solid, err := tileset.Probe(tile, tileSize)
	if err != nil {
		return nil, err
	}

	out := tile
	if scale > 1 {
		out = imaging.Resize(tile, tileSize*scale, tileSize*scale, imaging.NearestNeighbor)
	}
	encoded, err := encodeBase64PNG(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}

	return &TileResult{
		Col:         col,
		Row:         row,
		Index:       grid.Index(col, row),
		X:           col * tileSize,
		Y:           row * tileSize,
		TileSize:    tileSize,
		Fingerprint: tileset.FingerprintOf(tile).String(),
		Opaque:      opaque,
		Collision:   solid,
		Palette:     TilePalette(tile, DefaultPaletteSize),
		Width:       out.Rect.Dx(),
		Height:      out.Rect.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func encodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
