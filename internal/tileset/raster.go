package tileset

import (
	"image"

	"github.com/disintegration/imaging"
)

// Rasterizer extracts tile pixel blocks from one source image.
//
// It owns a single scratch buffer that Extract overwrites on every call, so
// a pipeline stage can visit every cell without allocating. A Rasterizer is
// not safe for concurrent use; give each worker its own.
type Rasterizer struct {
	src     *image.NRGBA
	size    int
	scratch *image.NRGBA
}

// NewRasterizer returns a rasterizer for tileSize x tileSize tiles of src.
// src must be normalized (see Normalize) and tileSize positive.
func NewRasterizer(src *image.NRGBA, tileSize int) *Rasterizer {
	return &Rasterizer{
		src:     src,
		size:    tileSize,
		scratch: image.NewNRGBA(image.Rect(0, 0, tileSize, tileSize)),
	}
}

// TileSize returns the tile edge length in pixels.
func (r *Rasterizer) TileSize() int {
	return r.size
}

// Tile returns an independent copy of the tile at grid cell (col, row).
// The caller owns the returned buffer.
func (r *Rasterizer) Tile(col, row int) *image.NRGBA {
	return imaging.Crop(r.src, r.bounds(col, row))
}

// Extract copies the tile at grid cell (col, row) into the scratch buffer
// and returns it. The buffer is only valid until the next Extract call.
func (r *Rasterizer) Extract(col, row int) *image.NRGBA {
	rowBytes := r.size * 4
	x0, y0 := col*r.size, row*r.size
	for y := 0; y < r.size; y++ {
		si := r.src.PixOffset(x0, y0+y)
		di := y * r.scratch.Stride
		copy(r.scratch.Pix[di:di+rowBytes], r.src.Pix[si:si+rowBytes])
	}
	return r.scratch
}

func (r *Rasterizer) bounds(col, row int) image.Rectangle {
	x0, y0 := col*r.size, row*r.size
	return image.Rect(x0, y0, x0+r.size, y0+r.size)
}
