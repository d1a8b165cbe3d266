package tileset

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// NewSource wraps a raw RGBA buffer (straight alpha, row-major, four bytes
// per pixel, no padding) as a source image. The buffer is not copied; the
// caller must not modify it while a pipeline runs.
func NewSource(pix []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d source", ErrInvalidDimensions, width, height)
	}
	want, ok := surfaceBytes(width, height)
	if !ok || len(pix) != want {
		return nil, fmt.Errorf("%w: buffer has %d bytes, want %d for %dx%d",
			ErrInvalidSource, len(pix), want, width, height)
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// Normalize returns img as an *image.NRGBA whose bounds start at (0,0).
// An NRGBA image already at the origin is returned as is; anything else is
// converted into a new buffer.
func Normalize(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidSource)
	}
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n, nil
	}
	return imaging.Clone(img), nil
}

// surfaceBytes returns width*height*4, or false when it overflows int.
func surfaceBytes(width, height int) (int, bool) {
	if width <= 0 || height <= 0 {
		return 0, false
	}
	if width > math.MaxInt/4/height {
		return 0, false
	}
	return width * height * 4, true
}

// allocSurface allocates a transparent width x height surface, failing with
// ErrSurfaceAllocation when the size is not representable or exceeds
// maxPixels.
func allocSurface(width, height, maxPixels int) (*image.NRGBA, error) {
	if _, ok := surfaceBytes(width, height); !ok {
		return nil, fmt.Errorf("%w: %dx%d surface", ErrSurfaceAllocation, width, height)
	}
	if width > maxPixels/height {
		return nil, fmt.Errorf("%w: %dx%d surface exceeds %d pixels",
			ErrSurfaceAllocation, width, height, maxPixels)
	}
	return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
}
