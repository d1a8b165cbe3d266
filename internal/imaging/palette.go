package imaging

import (
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPaletteSize is the number of palette entries reported per tile.
const DefaultPaletteSize = 8

// RGBAColor represents an RGBA color with 8-bit straight-alpha components.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// HSL is often more intuitive than RGB when judging a tile by eye:
//   - Hue represents the color type (red, green, blue, etc.)
//   - Saturation represents color intensity (gray to vivid)
//   - Lightness represents brightness (black to white)
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// PaletteEntry is one exact color of a tile and how often it occurs.
type PaletteEntry struct {
	Hex        string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA       RGBAColor `json:"rgba"`
	HSL        HSLColor  `json:"hsl"`
	Pixels     int       `json:"pixels"`
	Percentage float64   `json:"percentage"`
}

// PaletteResult contains the most frequent colors of a tile.
//
// Colors are sorted by frequency in descending order (most common first).
type PaletteResult struct {
	// DistinctColors counts every distinct RGBA value in the tile, including
	// those not listed in Colors.
	DistinctColors int            `json:"distinct_colors"`
	Colors         []PaletteEntry `json:"colors"`
}

// TilePalette extracts the count most common colors of a tile.
//
// Parameters:
//   - tile: The tile to analyze, as returned by tileset.Rasterizer.Tile.
//   - count: Maximum number of colors to return. Values <= 0 use
//     DefaultPaletteSize.
//
// # Exact Colors
//
// Unlike a photographic palette, colors are not quantized: tilesets are
// usually pixel art with a small fixed palette, and two tiles that differ by
// a single channel value are distinct tiles to the deduplicator. Colors are
// keyed by all four channels, so a fully transparent pixel with a leftover
// RGB value is reported separately from one that is transparent black.
//
// # Ordering
//
// Entries are ordered by pixel count, most frequent first. Ties are broken by
// the packed RGBA value so the result is deterministic.
func TilePalette(tile *image.NRGBA, count int) *PaletteResult {
	if count <= 0 {
		count = DefaultPaletteSize
	}

	counts := make(map[uint32]int)
	total := 0
	w, h := tile.Rect.Dx(), tile.Rect.Dy()
	for y := 0; y < h; y++ {
		row := tile.Pix[y*tile.Stride : y*tile.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			key := uint32(row[i])<<24 | uint32(row[i+1])<<16 | uint32(row[i+2])<<8 | uint32(row[i+3])
			counts[key]++
			total++
		}
	}

	keys := make([]uint32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	result := &PaletteResult{DistinctColors: len(keys)}
	if len(keys) > count {
		keys = keys[:count]
	}
	for _, k := range keys {
		c := RGBAColor{R: uint8(k >> 24), G: uint8(k >> 16), B: uint8(k >> 8), A: uint8(k)}
		result.Colors = append(result.Colors, PaletteEntry{
			Hex:        toColorful(c).Hex(),
			RGBA:       c,
			HSL:        rgbToHSL(c),
			Pixels:     counts[k],
			Percentage: math.Round(float64(counts[k])/float64(total)*10000) / 100,
		})
	}
	return result
}

func toColorful(c RGBAColor) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// rgbToHSL converts the RGB part of c to HSL with hue in degrees and
// saturation and lightness in percent.
func rgbToHSL(c RGBAColor) HSLColor {
	h, s, l := toColorful(c).Hsl()
	return HSLColor{
		H: int(math.Round(h)) % 360,
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
