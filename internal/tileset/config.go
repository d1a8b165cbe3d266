package tileset

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how tiles are laid out in the output image.
type Mode int

const (
	// ModeOriginal keeps every cell at its natural grid position.
	ModeOriginal Mode = iota

	// ModeOptimized keeps only first-seen unique tiles, packed into a
	// fixed-column atlas.
	ModeOptimized
)

// DefaultColumns is the atlas column count used when Config.Columns is zero.
const DefaultColumns = 8

// String returns "original" or "optimized".
func (m Mode) String() string {
	switch m {
	case ModeOriginal:
		return "original"
	case ModeOptimized:
		return "optimized"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. Matching is case-insensitive and an empty
// string means ModeOriginal.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "original":
		return ModeOriginal, nil
	case "optimized":
		return ModeOptimized, nil
	default:
		return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeOriginal && m != ModeOptimized {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config controls one pipeline invocation.
type Config struct {
	// TileSize is the edge length of a square tile in pixels. Must be > 0.
	TileSize int

	// Mode selects identity layout or deduplicated packing.
	Mode Mode

	// Columns is the atlas column count in ModeOptimized. Zero means
	// DefaultColumns. Ignored in ModeOriginal.
	Columns int

	// Workers bounds the goroutines used for per-cell work. Zero or one
	// runs sequentially. Output does not depend on this value.
	Workers int
}

func (c Config) withDefaults() Config {
	if c.Columns == 0 {
		c.Columns = DefaultColumns
	}
	return c
}

// Validate checks the configuration invariants after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if c.TileSize <= 0 {
		return fmt.Errorf("%w: tile size must be positive, got %d", ErrInvalidConfig, c.TileSize)
	}
	if c.Columns <= 0 {
		return fmt.Errorf("%w: columns must be positive, got %d", ErrInvalidConfig, c.Columns)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Mode != ModeOriginal && c.Mode != ModeOptimized {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(c.Mode))
	}
	return nil
}

// DefaultMaxSurfacePixels caps the pixel count of any surface the pipeline
// allocates (1<<28 pixels is 1 GiB of NRGBA data).
const DefaultMaxSurfacePixels = 1 << 28

// ToolName identifies this tool in manifests.
const ToolName = "tileset-tools-mcp"

// Version is the tool version written to manifests unless WithVersion
// overrides it.
var Version = "0.1.0"

type options struct {
	now              func() time.Time
	version          string
	maxSurfacePixels int
}

func defaultOptions() options {
	return options{
		now:              time.Now,
		version:          Version,
		maxSurfacePixels: DefaultMaxSurfacePixels,
	}
}

// Option customizes a Process call.
type Option func(*options)

// WithClock sets the clock used for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithVersion sets the version string written to the manifest.
func WithVersion(v string) Option {
	return func(o *options) {
		if v != "" {
			o.version = v
		}
	}
}

// WithMaxSurfacePixels caps the size of allocated surfaces. Values <= 0
// keep DefaultMaxSurfacePixels.
func WithMaxSurfacePixels(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSurfacePixels = n
		}
	}
}
