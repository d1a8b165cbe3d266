package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// Cell addresses one tile of the source grid
type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// CompareTilesResult contains tile comparison information
type CompareTilesResult struct {
	Identical        bool    `json:"identical"`
	FingerprintA     string  `json:"fingerprint_a"`
	FingerprintB     string  `json:"fingerprint_b"`
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	SimilarityScore  float64 `json:"similarity_score"`
	AverageColorDiff float64 `json:"average_color_diff"`
	CollisionA       bool    `json:"collision_a"`
	CollisionB       bool    `json:"collision_b"`
}

// CompareTiles compares two cells of src byte for byte, the way the
// deduplicator decides identity. A pixel counts as different when any of its
// four channels differ, including the color of fully transparent pixels.
func CompareTiles(src *image.NRGBA, tileSize int, a, b Cell) (*CompareTilesResult, error) {
	grid, err := tileset.Partition(src.Rect.Dx(), src.Rect.Dy(), tileSize)
	if err != nil {
		return nil, err
	}
	for _, c := range []Cell{a, b} {
		if !grid.Contains(c.Col, c.Row) {
			return nil, fmt.Errorf("tile (%d,%d) outside %dx%d grid", c.Col, c.Row, grid.Cols, grid.Rows)
		}
	}

	ras := tileset.NewRasterizer(src, tileSize)
	ta := ras.Tile(a.Col, a.Row)
	tb := ras.Tile(b.Col, b.Row)

	totalPixels := tileSize * tileSize
	pixelsDifferent := 0
	var totalColorDiff float64

	for i := 0; i < len(ta.Pix); i += 4 {
		pa := ta.Pix[i : i+4 : i+4]
		pb := tb.Pix[i : i+4 : i+4]
		diff := absDiff(pa[0], pb[0]) + absDiff(pa[1], pb[1]) + absDiff(pa[2], pb[2]) + absDiff(pa[3], pb[3])
		if diff > 0 {
			pixelsDifferent++
		}
		totalColorDiff += float64(diff) / 4.0
	}

	similarity := 1.0 - float64(pixelsDifferent)/float64(totalPixels)
	avgColorDiff := totalColorDiff / float64(totalPixels)

	return &CompareTilesResult{
		Identical:        pixelsDifferent == 0,
		FingerprintA:     tileset.FingerprintOf(ta).String(),
		FingerprintB:     tileset.FingerprintOf(tb).String(),
		PixelsDifferent:  pixelsDifferent,
		TotalPixels:      totalPixels,
		SimilarityScore:  math.Round(similarity*1000) / 1000,
		AverageColorDiff: math.Round(avgColorDiff*100) / 100,
		CollisionA:       tileset.Classify(ta, tileSize),
		CollisionB:       tileset.Classify(tb, tileSize),
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
