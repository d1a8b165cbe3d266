package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// ImageCache provides thread-safe caching of decoded tileset sources to
// avoid redundant disk reads.
//
// Every cached image is normalized to an *image.NRGBA whose bounds start at
// (0,0), the pixel format the tile pipeline works on. Once an image is loaded,
// subsequent Load() calls for the same path return the cached copy without
// disk I/O or conversion.
//
// ImageCache is safe for concurrent use by multiple goroutines. Cached images
// are shared between callers and must be treated as read-only.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// A tileset is usually processed many times with different tile sizes or
// modes while it is being tuned, so entries are kept until the caller drops
// them.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	src, err := cache.Load("/path/to/tileset.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := tileset.Process(ctx, src, tileset.Config{TileSize: 48})
//	cache.Evict("/path/to/tileset.png") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.NRGBA
}

// NewImageCache creates and initializes a new empty image cache.
//
// The returned cache is ready for immediate use and is safe for concurrent access.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.NRGBA),
	}
}

// Load retrieves a source image from the cache or loads it from disk if not
// cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF, BMP and WebP.
//
// Returns:
//   - *image.NRGBA: The decoded image converted to straight-alpha RGBA, with
//     bounds starting at (0,0).
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a supported image format
func (c *ImageCache) Load(path string) (*image.NRGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	decoded, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := tileset.Normalize(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache, freeing the associated memory.
//
// After Clear(), all images must be reloaded from disk on subsequent Load()
// calls.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.NRGBA)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// Parameters:
//   - path: The exact path string used when the image was loaded.
//
// If the path is not in the cache, this method does nothing.
// After eviction, the next Load() call for this path will read from disk.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// SourceInfo contains metadata about a loaded tileset source.
//
// This struct provides essential information about a source image without
// requiring the caller to analyze the pixel data directly.
type SourceInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the detected image format: "png", "jpeg", "gif", "bmp",
	// "webp", or "unknown". Detection is based on file extension, not file
	// contents.
	Format string `json:"format"`

	// HasTransparency is true when at least one pixel is not fully opaque.
	// A source without transparency classifies every tile as solid.
	HasTransparency bool `json:"has_transparency"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadSourceInfo loads a source image and returns metadata about it.
//
// This function loads the image into the cache (if not already cached) and
// extracts its dimensions, format, transparency and file size.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//
// Returns:
//   - *SourceInfo: Metadata about the image.
//   - error: Non-nil if the image cannot be loaded or the file cannot be stat'd.
//
// # Format Detection
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func LoadSourceInfo(cache *ImageCache, path string) (*SourceInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &SourceInfo{
		Width:           img.Rect.Dx(),
		Height:          img.Rect.Dy(),
		Format:          formatFromPath(path),
		HasTransparency: !img.Opaque(),
		FileSizeBytes:   stat.Size(),
	}, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".webp":
		return "webp"
	}
	return "unknown"
}

// GridResult describes how a source partitions into tiles.
type GridResult struct {
	// Width and Height are the source dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	TileSize   int `json:"tile_size"`
	Cols       int `json:"cols"`
	Rows       int `json:"rows"`
	TotalTiles int `json:"total_tiles"`

	// RemainderX and RemainderY are the pixels on the right and bottom
	// edges that fall outside every whole tile and are ignored.
	RemainderX int `json:"remainder_x"`
	RemainderY int `json:"remainder_y"`
}

// GetGrid loads a source and partitions it with the given tile size.
//
// Parameters:
//   - cache: The image cache to use for loading. Must not be nil.
//   - path: Path to the image file.
//   - tileSize: Edge length of a square tile in pixels.
//
// Returns:
//   - *GridResult: The partition.
//   - error: Non-nil if the image cannot be loaded or is smaller than one
//     tile (wrapping tileset.ErrInvalidDimensions).
func GetGrid(cache *ImageCache, path string, tileSize int) (*GridResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	grid, err := tileset.Partition(img.Rect.Dx(), img.Rect.Dy(), tileSize)
	if err != nil {
		return nil, err
	}

	return &GridResult{
		Width:      img.Rect.Dx(),
		Height:     img.Rect.Dy(),
		TileSize:   grid.TileSize,
		Cols:       grid.Cols,
		Rows:       grid.Rows,
		TotalTiles: grid.Total(),
		RemainderX: grid.RemainderX,
		RemainderY: grid.RemainderY,
	}, nil
}
