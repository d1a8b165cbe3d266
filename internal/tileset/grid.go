package tileset

import "fmt"

// Grid describes how a source image divides into whole square tiles.
type Grid struct {
	Cols     int `json:"cols"`
	Rows     int `json:"rows"`
	TileSize int `json:"tile_size"`

	// RemainderX and RemainderY are the pixels discarded past the last
	// whole tile on each axis.
	RemainderX int `json:"remainder_x"`
	RemainderY int `json:"remainder_y"`
}

// Partition computes the tile grid for a width x height source.
//
// Partial tiles at the right and bottom edges are never emitted. It fails
// with ErrInvalidConfig when tileSize <= 0 and with ErrInvalidDimensions when
// the source holds no whole tile.
func Partition(width, height, tileSize int) (Grid, error) {
	if tileSize <= 0 {
		return Grid{}, fmt.Errorf("%w: tile size must be positive, got %d", ErrInvalidConfig, tileSize)
	}
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d source", ErrInvalidDimensions, width, height)
	}
	g := Grid{
		Cols:       width / tileSize,
		Rows:       height / tileSize,
		TileSize:   tileSize,
		RemainderX: width % tileSize,
		RemainderY: height % tileSize,
	}
	if g.Cols*g.Rows == 0 {
		return Grid{}, fmt.Errorf("%w: %dx%d source is smaller than one %dpx tile",
			ErrInvalidDimensions, width, height, tileSize)
	}
	return g, nil
}

// Total returns the number of cells in the grid.
func (g Grid) Total() int {
	return g.Cols * g.Rows
}

// Cell returns the column and row of the i-th cell in row-major order.
func (g Grid) Cell(i int) (col, row int) {
	return i % g.Cols, i / g.Cols
}

// Index returns the row-major index of the cell at (col, row).
func (g Grid) Index(col, row int) int {
	return row*g.Cols + col
}

// Contains reports whether (col, row) addresses a cell of the grid.
func (g Grid) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < g.Cols && row < g.Rows
}
