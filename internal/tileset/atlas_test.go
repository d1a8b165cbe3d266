package tileset

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewAtlas_Size(t *testing.T) {
	tests := []struct {
		name       string
		columns    int
		count      int
		tileSize   int
		wantWidth  int
		wantHeight int
	}{
		{"single tile", 8, 1, 48, 48, 48},
		{"ten tiles in eight columns", 8, 10, 48, 384, 96},
		{"exact rows", 4, 8, 16, 64, 32},
		{"natural grid", 2, 4, 48, 96, 96},
		{"one column", 1, 3, 8, 8, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAtlas(tt.columns, tt.count, tt.tileSize, 0)
			if err != nil {
				t.Fatalf("NewAtlas failed: %v", err)
			}
			b := a.Image().Bounds()
			if b.Dx() != tt.wantWidth || b.Dy() != tt.wantHeight {
				t.Errorf("size: got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestNewAtlas_Errors(t *testing.T) {
	if _, err := NewAtlas(0, 4, 8, 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero columns: got %v", err)
	}
	if _, err := NewAtlas(4, 0, 8, 0); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero count: got %v", err)
	}
	if _, err := NewAtlas(4, 16, 8, 100); !errors.Is(err, ErrSurfaceAllocation) {
		t.Errorf("over limit: got %v", err)
	}
	if _, err := NewAtlas(1<<30, 1<<30, 1<<20, 0); !errors.Is(err, ErrSurfaceAllocation) {
		t.Errorf("overflow: got %v", err)
	}
}

func TestAtlas_Place(t *testing.T) {
	a, err := NewAtlas(8, 10, 4, 0)
	if err != nil {
		t.Fatalf("NewAtlas failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		tile := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		fillRect(tile, tile.Rect, color.NRGBA{R: uint8(i * 20), A: uint8(100 + i)})
		a.Place(i, tile)
	}

	if got := a.Origin(8); got != image.Pt(0, 4) {
		t.Errorf("Origin(8): got %v, want (0,4)", got)
	}
	if got := a.Origin(9); got != image.Pt(4, 4) {
		t.Errorf("Origin(9): got %v, want (4,4)", got)
	}
	if got := a.Image().NRGBAAt(7, 7); got != (color.NRGBA{R: 180, A: 109}) {
		t.Errorf("tile 9 pixel: got %v", got)
	}
	if got := a.Image().NRGBAAt(12, 4); got != (color.NRGBA{}) {
		t.Errorf("unused slot should stay transparent, got %v", got)
	}
}
