package tileset

import (
	"fmt"
	"image"
)

// Collision policy. A pixel counts as opaque when its alpha exceeds
// AlphaThreshold, and a tile is solid when more than SolidRatio of its
// pixels are opaque. These are fixed for now; they are the place to hook
// per-project tuning in later.
//
// The ratio is the integer fraction SolidRatioNum/SolidRatioDen; SolidRatio
// is its float value.
const (
	AlphaThreshold = 10

	SolidRatioNum = 3
	SolidRatioDen = 4
	SolidRatio    = float64(SolidRatioNum) / SolidRatioDen
)

// CountOpaque returns the number of pixels of tile whose alpha exceeds
// AlphaThreshold. It fails with ErrCollisionProbe when tile is not a
// readable tileSize x tileSize buffer.
func CountOpaque(tile *image.NRGBA, tileSize int) (int, error) {
	if tile == nil {
		return 0, fmt.Errorf("%w: nil tile", ErrCollisionProbe)
	}
	if tileSize <= 0 || tile.Rect.Dx() != tileSize || tile.Rect.Dy() != tileSize {
		return 0, fmt.Errorf("%w: tile bounds %v, want %dx%d",
			ErrCollisionProbe, tile.Rect, tileSize, tileSize)
	}
	if tile.Stride < tileSize*4 || len(tile.Pix) < (tileSize-1)*tile.Stride+tileSize*4 {
		return 0, fmt.Errorf("%w: pixel buffer too short (%d bytes, stride %d)",
			ErrCollisionProbe, len(tile.Pix), tile.Stride)
	}

	opaque := 0
	for y := 0; y < tileSize; y++ {
		row := tile.Pix[y*tile.Stride : y*tile.Stride+tileSize*4]
		for i := 3; i < len(row); i += 4 {
			if row[i] > AlphaThreshold {
				opaque++
			}
		}
	}
	return opaque, nil
}

// Probe reports whether tile is solid under the collision policy.
func Probe(tile *image.NRGBA, tileSize int) (bool, error) {
	opaque, err := CountOpaque(tile, tileSize)
	if err != nil {
		return false, err
	}
	return isSolidCount(opaque, tileSize), nil
}

// Classify is Probe with faults degraded to "not solid". The fault is
// logged and the caller carries on with the next tile.
func Classify(tile *image.NRGBA, tileSize int) bool {
	solid, err := Probe(tile, tileSize)
	if err != nil {
		Logger().Warn("collision probe failed, treating tile as passable", "err", err)
		return false
	}
	return solid
}

// isSolidCount evaluates opaque/tileSize² > SolidRatioNum/SolidRatioDen
// in integers.
func isSolidCount(opaque, tileSize int) bool {
	return SolidRatioDen*opaque > SolidRatioNum*tileSize*tileSize
}
