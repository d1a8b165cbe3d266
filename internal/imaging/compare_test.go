package imaging

import (
	"image/color"
	"testing"
)

func TestCompareTiles_Identical(t *testing.T) {
	src := createTileset(8, 3, 1, []color.NRGBA{red, green, red})

	result, err := CompareTiles(src, 8, Cell{0, 0}, Cell{2, 0})
	if err != nil {
		t.Fatalf("CompareTiles failed: %v", err)
	}
	if !result.Identical {
		t.Error("identical tiles reported as different")
	}
	if result.PixelsDifferent != 0 || result.SimilarityScore != 1.0 {
		t.Errorf("got %d different pixels, similarity %v", result.PixelsDifferent, result.SimilarityScore)
	}
	if result.FingerprintA != result.FingerprintB {
		t.Error("identical tiles should share a fingerprint")
	}
	if result.TotalPixels != 64 {
		t.Errorf("TotalPixels: got %d, want 64", result.TotalPixels)
	}
}

func TestCompareTiles_Different(t *testing.T) {
	src := createTileset(8, 2, 1, []color.NRGBA{red, green})

	result, err := CompareTiles(src, 8, Cell{0, 0}, Cell{1, 0})
	if err != nil {
		t.Fatalf("CompareTiles failed: %v", err)
	}
	if result.Identical {
		t.Error("different tiles reported as identical")
	}
	if result.PixelsDifferent != 64 || result.SimilarityScore != 0 {
		t.Errorf("got %d different pixels, similarity %v", result.PixelsDifferent, result.SimilarityScore)
	}
	// red vs green differs by 255 in two of four channels
	if result.AverageColorDiff != 127.5 {
		t.Errorf("AverageColorDiff: got %v, want 127.5", result.AverageColorDiff)
	}
}

func TestCompareTiles_HiddenColorDiffers(t *testing.T) {
	// Both tiles look fully transparent but carry different RGB values.
	src := createTileset(4, 2, 1, []color.NRGBA{{}, {R: 1}})

	result, err := CompareTiles(src, 4, Cell{0, 0}, Cell{1, 0})
	if err != nil {
		t.Fatalf("CompareTiles failed: %v", err)
	}
	if result.Identical {
		t.Error("transparent tiles with different color bytes must not compare equal")
	}
	if result.CollisionA || result.CollisionB {
		t.Error("transparent tiles are never solid")
	}
}

func TestCompareTiles_SinglePixel(t *testing.T) {
	src := createTileset(10, 2, 1, []color.NRGBA{blue, blue})
	src.SetNRGBA(15, 5, color.NRGBA{0, 0, 254, 255})

	result, err := CompareTiles(src, 10, Cell{0, 0}, Cell{1, 0})
	if err != nil {
		t.Fatalf("CompareTiles failed: %v", err)
	}
	if result.PixelsDifferent != 1 || result.SimilarityScore != 0.99 {
		t.Errorf("got %d different pixels, similarity %v", result.PixelsDifferent, result.SimilarityScore)
	}
}

func TestCompareTiles_OutOfGrid(t *testing.T) {
	src := createTileset(8, 2, 1, []color.NRGBA{red, green})

	if _, err := CompareTiles(src, 8, Cell{0, 0}, Cell{2, 0}); err == nil {
		t.Error("CompareTiles should fail outside the grid")
	}
	if _, err := CompareTiles(src, 8, Cell{0, -1}, Cell{1, 0}); err == nil {
		t.Error("CompareTiles should fail outside the grid")
	}
}

func TestAbsDiff(t *testing.T) {
	tests := []struct {
		a, b uint8
		want int
	}{
		{0, 0, 0},
		{255, 0, 255},
		{0, 255, 255},
		{100, 50, 50},
		{50, 100, 50},
	}

	for _, tt := range tests {
		if got := absDiff(tt.a, tt.b); got != tt.want {
			t.Errorf("absDiff(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
