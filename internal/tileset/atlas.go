package tileset

import (
	"fmt"
	"image"
)

// Atlas is an output surface holding tiles in a fixed-column layout. Tile i
// sits at column i mod Columns, row i / Columns.
type Atlas struct {
	img     *image.NRGBA
	columns int
	size    int
}

// NewAtlas allocates a transparent surface for count tiles of tileSize
// pixels laid out in the given number of columns. The surface is
// min(columns, count) tiles wide and ceil(count/columns) tiles tall.
func NewAtlas(columns, count, tileSize, maxPixels int) (*Atlas, error) {
	if columns <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("%w: atlas columns %d, tile size %d", ErrInvalidConfig, columns, tileSize)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: atlas needs at least one tile", ErrInvalidDimensions)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxSurfacePixels
	}

	wide := columns
	if count < wide {
		wide = count
	}
	tall := (count + columns - 1) / columns

	img, err := allocSurface(wide*tileSize, tall*tileSize, maxPixels)
	if err != nil {
		return nil, err
	}
	return &Atlas{img: img, columns: columns, size: tileSize}, nil
}

// Origin returns the output pixel origin of tile i.
func (a *Atlas) Origin(i int) image.Point {
	return image.Pt((i%a.columns)*a.size, (i/a.columns)*a.size)
}

// Place copies tile into slot i and returns the slot origin. Pixels are
// copied verbatim, including fully transparent ones. Slots never overlap,
// so different goroutines may place different slots concurrently.
func (a *Atlas) Place(i int, tile *image.NRGBA) image.Point {
	at := a.Origin(i)
	rowBytes := a.size * 4
	for y := 0; y < a.size; y++ {
		si := y * tile.Stride
		di := a.img.PixOffset(at.X, at.Y+y)
		copy(a.img.Pix[di:di+rowBytes], tile.Pix[si:si+rowBytes])
	}
	return at
}

// Image returns the output surface.
func (a *Atlas) Image() *image.NRGBA {
	return a.img
}
