package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/transform"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// Preview defaults
const (
	DefaultGridColor        = "#ff0000"
	DefaultCollisionColor   = "#ff00ff"
	DefaultCollisionOpacity = 0.45
	MaxPreviewScale         = 16
)

// PreviewOptions selects the overlays drawn on a processed tileset
type PreviewOptions struct {
	Scale            int
	ShowGrid         bool
	ShowIDs          bool
	ShowCollision    bool
	GridColor        string
	CollisionColor   string
	CollisionOpacity float64
}

// PreviewResult contains the rendered preview
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Scale       int    `json:"scale"`
	TileSize    int    `json:"tile_size"`
	Tiles       int    `json:"tiles"`
	Collisions  int    `json:"collisions"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderPreview draws the output image of res with a collision tint, tile
// grid and tile id labels, enlarged by opts.Scale with nearest-neighbour
// sampling so tile edges stay sharp.
func RenderPreview(res *tileset.Result, opts PreviewOptions) (*PreviewResult, error) {
	if res == nil || res.Image == nil {
		return nil, fmt.Errorf("no processed tileset to preview")
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}
	if scale > MaxPreviewScale {
		return nil, fmt.Errorf("scale %d exceeds maximum %d", scale, MaxPreviewScale)
	}

	var canvas *image.RGBA
	collisions := 0
	if opts.ShowCollision {
		opacity := opts.CollisionOpacity
		if opacity <= 0 || opacity > 1 {
			opacity = DefaultCollisionOpacity
		}
		tint := parseColor(opts.CollisionColor, DefaultCollisionColor)
		layer, n := collisionLayer(res, color.NRGBA{R: tint.R, G: tint.G, B: tint.B, A: uint8(opacity*255 + 0.5)})
		canvas = blend.Normal(res.Image, layer)
		collisions = n
	} else {
		canvas = image.NewRGBA(res.Image.Rect)
		draw.Draw(canvas, canvas.Rect, res.Image, image.Point{}, draw.Src)
	}

	if scale > 1 {
		canvas = transform.Resize(canvas, res.Width*scale, res.Height*scale, transform.NearestNeighbor)
	}

	width, height := canvas.Rect.Dx(), canvas.Rect.Dy()
	step := res.Grid.TileSize * scale

	if opts.ShowGrid && step > 0 {
		gridColor := parseColor(opts.GridColor, DefaultGridColor)
		for x := step; x < width; x += step {
			for y := 0; y < height; y++ {
				canvas.SetRGBA(x, y, gridColor)
			}
		}
		for y := step; y < height; y += step {
			for x := 0; x < width; x++ {
				canvas.SetRGBA(x, y, gridColor)
			}
		}
	}

	if opts.ShowIDs {
		labelColor := color.RGBA{255, 255, 255, 255}
		bgColor := color.RGBA{0, 0, 0, 180}
		for _, tile := range res.Tiles {
			drawLabel(canvas, tile.X*scale+2, tile.Y*scale+2, strconv.Itoa(tile.ID), labelColor, bgColor)
		}
	}

	encoded, err := encodeBase64PNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       width,
		Height:      height,
		Scale:       scale,
		TileSize:    res.Grid.TileSize,
		Tiles:       len(res.Tiles),
		Collisions:  collisions,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// collisionLayer returns a transparent layer the size of the output image
// with every solid tile filled with tint, and the number of solid tiles.
func collisionLayer(res *tileset.Result, tint color.NRGBA) (*image.NRGBA, int) {
	layer := image.NewNRGBA(res.Image.Rect)
	fill := image.NewUniform(tint)
	ts := res.Grid.TileSize
	n := 0
	for _, tile := range res.Tiles {
		if !tile.Solid {
			continue
		}
		draw.Draw(layer, image.Rect(tile.X, tile.Y, tile.X+ts, tile.Y+ts), fill, image.Point{}, draw.Src)
		n++
	}
	return layer, n
}

// parseColor parses a hex color string like "#FF0000" or "f00", falling back
// to the given default when the string is empty or malformed
func parseColor(hex, fallback string) color.RGBA {
	c, err := colorful.Hex(withHash(hex))
	if err != nil {
		c, _ = colorful.Hex(fallback)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func withHash(hex string) string {
	hex = strings.TrimSpace(hex)
	if hex != "" && !strings.HasPrefix(hex, "#") {
		return "#" + hex
	}
	return hex
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if image.Pt(px, py).In(bounds) {
				img.SetRGBA(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if image.Pt(px, py).In(bounds) {
						img.SetRGBA(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
