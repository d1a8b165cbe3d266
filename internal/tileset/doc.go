// Package tileset turns a painted tileset image into machine-usable tile data.
//
// The pipeline partitions a source image into a fixed grid of square tiles,
// optionally deduplicates byte-identical tiles into a packed atlas, infers a
// per-tile collision flag from opacity density, and serializes a JSON manifest
// describing the result.
//
// # Pipeline
//
//  1. Partition computes the grid once. Pixels past the last whole tile on
//     either axis are discarded.
//  2. Cells are visited in row-major order (row outer, column inner).
//  3. In ModeOriginal every cell is classified and copied to its natural
//     position in the output.
//  4. In ModeOptimized every cell is fingerprinted and fed to a
//     Deduplicator; only first-seen tiles are classified and packed into a
//     fixed-column atlas.
//  5. The manifest lists the final tiles in ascending id order.
//
// # Pixel Format
//
// Sources are *image.NRGBA (straight alpha, four bytes per pixel) with
// bounds starting at (0,0). Use Normalize for decoded images or NewSource
// for raw RGBA buffers. Tile bytes are copied verbatim; no resampling,
// filtering, or premultiplication happens anywhere in the pipeline.
//
// # Thread Safety
//
// Process keeps no state between calls and may be called concurrently on
// the same source. A Rasterizer, Deduplicator, or Atlas belongs to one
// goroutine unless documented otherwise.
//
// # Errors
//
// Structural failures (ErrInvalidDimensions, ErrSurfaceAllocation,
// ErrInvalidConfig, ErrInvalidSource) abort the run and no Result is
// returned. ErrCollisionProbe is recovered per tile: the tile is reported as
// not solid and the run continues.
package tileset
