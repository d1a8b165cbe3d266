// Package imaging provides the file and rendering operations around the tile
// pipeline for the MCP server.
//
// This package loads tileset sources from disk, inspects single tiles, compares
// tiles byte for byte, renders annotated previews of processed tilesets, and
// writes the pipeline outputs (atlas PNG, JSON manifest, Tiled TSX). The
// pipeline itself lives in package tileset; everything here works on the
// *image.NRGBA sources it expects and the *tileset.Result it returns.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Tiles are addressed by (col, row) in the
// source grid; cell index is row*cols+col.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Cached sources are shared and
// must not be modified. All other functions are stateless and can be called
// concurrently.
//
// # Color Representation
//
// Tile colors are straight-alpha RGBA. Palette entries report each exact color
// in several formats:
//   - Hex: 6-character format "#rrggbb" (alpha excluded)
//   - RGBA: 8-bit components with alpha (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Tiles outside the source grid
//   - Sources smaller than one tile (wrapping tileset.ErrInvalidDimensions)
//   - File I/O errors during loading or writing
//   - Encoding errors during image output
//
// # Performance Considerations
//
// Sources are decoded and converted once per path and kept in the ImageCache.
// Use Evict() or Clear() to manage memory for long-running processes.
package imaging
