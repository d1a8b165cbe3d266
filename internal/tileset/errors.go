package tileset

import "errors"

var (
	// ErrInvalidDimensions reports a source smaller than one tile along an axis.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrSurfaceAllocation reports an output or scratch surface that cannot be allocated.
	ErrSurfaceAllocation = errors.New("surface allocation failure")

	// ErrCollisionProbe reports a tile buffer whose pixels cannot be read.
	ErrCollisionProbe = errors.New("collision probe failure")

	// ErrInvalidConfig reports a configuration that violates its invariants.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidSource reports a nil image or a raw buffer of the wrong length.
	ErrInvalidSource = errors.New("invalid source")
)
