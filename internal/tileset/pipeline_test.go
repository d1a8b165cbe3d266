package tileset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var fixedClock = WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) })

// distinctColors returns n mutually different opaque colors.
func distinctColors(n int) []color.NRGBA {
	colors := make([]color.NRGBA, n)
	for i := range colors {
		colors[i] = color.NRGBA{R: uint8(i * 23), G: uint8(255 - i*11), B: uint8(i * 7), A: 255}
	}
	return colors
}

func mustProcess(t *testing.T, img image.Image, cfg Config) *Result {
	t.Helper()
	res, err := Process(context.Background(), img, cfg, fixedClock)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return res
}

func TestProcess_OriginalGrid(t *testing.T) {
	src := newTiledSource(48, 2, 2, distinctColors(4))
	res := mustProcess(t, src, Config{TileSize: 48, Mode: ModeOriginal})

	if res.Grid.Cols != 2 || res.Grid.Rows != 2 {
		t.Errorf("grid: got %dx%d, want 2x2", res.Grid.Cols, res.Grid.Rows)
	}
	if res.TotalTiles != 4 || res.UniqueTiles != 4 {
		t.Errorf("counts: got total=%d unique=%d, want 4/4", res.TotalTiles, res.UniqueTiles)
	}
	if res.Width != 96 || res.Height != 96 {
		t.Errorf("output: got %dx%d, want 96x96", res.Width, res.Height)
	}

	wantOrigins := []image.Point{{0, 0}, {48, 0}, {0, 48}, {48, 48}}
	for i, tile := range res.Tiles {
		if tile.ID != i {
			t.Errorf("tile %d has id %d", i, tile.ID)
		}
		if (image.Point{tile.X, tile.Y}) != wantOrigins[i] {
			t.Errorf("tile %d origin: got (%d,%d), want %v", i, tile.X, tile.Y, wantOrigins[i])
		}
		if !tile.Solid {
			t.Errorf("opaque tile %d should be solid", i)
		}
	}
	if !reflect.DeepEqual(res.CellMap, []int{0, 1, 2, 3}) {
		t.Errorf("CellMap: got %v", res.CellMap)
	}
	if !bytes.Equal(res.Image.Pix, src.Pix) {
		t.Error("original mode output should equal the source for an exact grid")
	}
}

func TestProcess_OriginalKeepsDuplicates(t *testing.T) {
	c := distinctColors(1)[0]
	src := newTiledSource(16, 3, 1, []color.NRGBA{c, c, c})
	res := mustProcess(t, src, Config{TileSize: 16})

	if res.UniqueTiles != res.TotalTiles || res.TotalTiles != 3 {
		t.Errorf("original mode must not deduplicate: total=%d unique=%d", res.TotalTiles, res.UniqueTiles)
	}
}

func TestProcess_OriginalDiscardsRemainder(t *testing.T) {
	src := newPatternSource(50, 35)
	res := mustProcess(t, src, Config{TileSize: 16})

	if res.Width != 48 || res.Height != 32 {
		t.Errorf("output: got %dx%d, want 48x32", res.Width, res.Height)
	}
	if res.Image.NRGBAAt(47, 31) != src.NRGBAAt(47, 31) {
		t.Error("last whole-tile pixel not copied verbatim")
	}
}

func TestProcess_OptimizedIdenticalHalves(t *testing.T) {
	c := color.NRGBA{R: 40, G: 80, B: 120, A: 255}
	src := newTiledSource(48, 2, 1, []color.NRGBA{c, c})
	res := mustProcess(t, src, Config{TileSize: 48, Mode: ModeOptimized, Columns: 8})

	if res.TotalTiles != 2 || res.UniqueTiles != 1 {
		t.Errorf("counts: got total=%d unique=%d, want 2/1", res.TotalTiles, res.UniqueTiles)
	}
	if res.Width != 48 || res.Height != 48 {
		t.Errorf("output: got %dx%d, want 48x48", res.Width, res.Height)
	}
	if len(res.Tiles) != 1 || res.Tiles[0].ID != 0 || !res.Tiles[0].Solid {
		t.Errorf("tiles: got %+v", res.Tiles)
	}
	if !reflect.DeepEqual(res.CellMap, []int{0, 0}) {
		t.Errorf("CellMap: got %v", res.CellMap)
	}
}

func TestProcess_OptimizedWrapsColumns(t *testing.T) {
	src := newTiledSource(48, 10, 1, distinctColors(10))
	res := mustProcess(t, src, Config{TileSize: 48, Mode: ModeOptimized, Columns: 8})

	if res.UniqueTiles != 10 {
		t.Fatalf("UniqueTiles: got %d, want 10", res.UniqueTiles)
	}
	if res.Width != 384 || res.Height != 96 {
		t.Errorf("output: got %dx%d, want 384x96", res.Width, res.Height)
	}
	if got := res.Tiles[8]; got.X != 0 || got.Y != 48 {
		t.Errorf("tile 8 origin: got (%d,%d), want (0,48)", got.X, got.Y)
	}
	if got := res.Tiles[9]; got.X != 48 || got.Y != 48 {
		t.Errorf("tile 9 origin: got (%d,%d), want (48,48)", got.X, got.Y)
	}
	if res.Image.NRGBAAt(60, 60) != distinctColors(10)[9] {
		t.Error("tile 9 pixels not placed at row 1, column 1")
	}
}

func TestProcess_OptimizedFirstSeenOrder(t *testing.T) {
	colors := distinctColors(3)
	a, b, c := colors[0], colors[1], colors[2]
	// Row-major scan: b a / c b / a c
	src := newTiledSource(8, 2, 3, []color.NRGBA{b, a, c, b, a, c})
	res := mustProcess(t, src, Config{TileSize: 8, Mode: ModeOptimized, Columns: 2})

	if !reflect.DeepEqual(res.CellMap, []int{0, 1, 2, 0, 1, 2}) {
		t.Errorf("CellMap: got %v", res.CellMap)
	}
	for id, want := range []color.NRGBA{b, a, c} {
		tile := res.Tiles[id]
		if got := res.Image.NRGBAAt(tile.X, tile.Y); got != want {
			t.Errorf("tile %d: got %v, want %v", id, got, want)
		}
	}
}

func TestProcess_OptimizedCollisionPerUniqueTile(t *testing.T) {
	solid := color.NRGBA{R: 1, A: 255}
	empty := color.NRGBA{}
	src := newTiledSource(8, 4, 1, []color.NRGBA{empty, solid, empty, solid})
	res := mustProcess(t, src, Config{TileSize: 8, Mode: ModeOptimized})

	if res.UniqueTiles != 2 {
		t.Fatalf("UniqueTiles: got %d, want 2", res.UniqueTiles)
	}
	if res.Tiles[0].Solid || !res.Tiles[1].Solid {
		t.Errorf("collision flags: got %+v", res.Tiles)
	}
}

func TestProcess_UniqueCountProperty(t *testing.T) {
	distinct := newTiledSource(8, 3, 3, distinctColors(9))
	res := mustProcess(t, distinct, Config{TileSize: 8, Mode: ModeOptimized})
	if res.UniqueTiles != res.TotalTiles {
		t.Errorf("all distinct: unique=%d total=%d", res.UniqueTiles, res.TotalTiles)
	}

	colors := distinctColors(9)
	colors[8] = colors[3]
	dup := newTiledSource(8, 3, 3, colors)
	res = mustProcess(t, dup, Config{TileSize: 8, Mode: ModeOptimized})
	if res.UniqueTiles != res.TotalTiles-1 {
		t.Errorf("one duplicate: unique=%d total=%d", res.UniqueTiles, res.TotalTiles)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	colors := distinctColors(5)
	cells := make([]color.NRGBA, 24)
	for i := range cells {
		cells[i] = colors[(i*7)%5]
	}
	src := newTiledSource(8, 6, 4, cells)
	cfg := Config{TileSize: 8, Mode: ModeOptimized, Columns: 3}

	first := mustProcess(t, src, cfg)
	for i := 0; i < 5; i++ {
		again := mustProcess(t, src, cfg)
		if !reflect.DeepEqual(first.Tiles, again.Tiles) || !reflect.DeepEqual(first.CellMap, again.CellMap) {
			t.Fatal("repeated runs produced different tiles")
		}
		if !bytes.Equal(first.PNG, again.PNG) || !bytes.Equal(first.Manifest, again.Manifest) {
			t.Fatal("repeated runs produced different output")
		}
	}
}

func TestProcess_ParallelMatchesSequential(t *testing.T) {
	colors := distinctColors(6)
	cells := make([]color.NRGBA, 40)
	for i := range cells {
		cells[i] = colors[(i*i)%6]
	}
	src := newTiledSource(8, 8, 5, cells)

	for _, mode := range []Mode{ModeOriginal, ModeOptimized} {
		t.Run(mode.String(), func(t *testing.T) {
			seq := mustProcess(t, src, Config{TileSize: 8, Mode: mode, Columns: 4})
			par := mustProcess(t, src, Config{TileSize: 8, Mode: mode, Columns: 4, Workers: 4})

			if !reflect.DeepEqual(seq.Tiles, par.Tiles) || !reflect.DeepEqual(seq.CellMap, par.CellMap) {
				t.Error("parallel tiles differ from sequential")
			}
			if !bytes.Equal(seq.Image.Pix, par.Image.Pix) {
				t.Error("parallel output image differs from sequential")
			}
		})
	}
}

func TestProcess_PNGRoundTrip(t *testing.T) {
	src := newPatternSource(32, 32)
	for _, mode := range []Mode{ModeOriginal, ModeOptimized} {
		res := mustProcess(t, src, Config{TileSize: 16, Mode: mode})

		decoded, err := png.Decode(bytes.NewReader(res.PNG))
		if err != nil {
			t.Fatalf("%v: failed to decode PNG: %v", mode, err)
		}
		got, err := Normalize(decoded)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if got.Rect != res.Image.Rect || !bytes.Equal(got.Pix, res.Image.Pix) {
			t.Errorf("%v: PNG does not round-trip byte-exact", mode)
		}
	}
}

func TestProcess_ManifestRoundTrip(t *testing.T) {
	colors := distinctColors(4)
	colors[1].A = 0
	colors[3].A = 5
	src := newTiledSource(8, 4, 1, colors)

	for _, mode := range []Mode{ModeOriginal, ModeOptimized} {
		res := mustProcess(t, src, Config{TileSize: 8, Mode: mode})
		m, err := ParseManifest(res.Manifest)
		if err != nil {
			t.Fatalf("ParseManifest failed: %v", err)
		}
		if len(m.Tiles) != len(res.Tiles) {
			t.Fatalf("tile count: got %d, want %d", len(m.Tiles), len(res.Tiles))
		}
		for i, tile := range res.Tiles {
			if m.Tiles[i].ID != tile.ID || m.Tiles[i].Collision != tile.Solid {
				t.Errorf("%v tile %d: manifest %+v, result %+v", mode, i, m.Tiles[i], tile)
			}
		}
		if m.Config.Mode != mode || m.Config.Width != res.Width || m.Config.Height != res.Height {
			t.Errorf("config echo: got %+v", m.Config)
		}
		if m.Info.GeneratedAt != "2026-01-02T03:04:05Z" {
			t.Errorf("GeneratedAt: got %s", m.Info.GeneratedAt)
		}
	}
}

func TestProcess_InvalidDimensions(t *testing.T) {
	src := newPatternSource(40, 40)
	res, err := Process(context.Background(), src, Config{TileSize: 48})
	if !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("got %v, want ErrInvalidDimensions", err)
	}
	if res != nil {
		t.Error("no result should be produced")
	}
}

func TestProcess_InvalidConfig(t *testing.T) {
	src := newPatternSource(16, 16)
	for _, cfg := range []Config{{TileSize: 0}, {TileSize: 8, Columns: -2}, {TileSize: 8, Mode: Mode(5)}} {
		if _, err := Process(context.Background(), src, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%+v: got %v, want ErrInvalidConfig", cfg, err)
		}
	}
	if _, err := Process(context.Background(), nil, Config{TileSize: 8}); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("nil image: got %v, want ErrInvalidSource", err)
	}
}

func TestProcess_SurfaceAllocationFailure(t *testing.T) {
	src := newPatternSource(64, 64)
	res, err := Process(context.Background(), src, Config{TileSize: 8}, WithMaxSurfacePixels(1000))
	if !errors.Is(err, ErrSurfaceAllocation) {
		t.Errorf("got %v, want ErrSurfaceAllocation", err)
	}
	if res != nil {
		t.Error("no result should be produced")
	}
}

func TestProcess_Cancelled(t *testing.T) {
	src := newPatternSource(64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, cfg := range []Config{
		{TileSize: 8},
		{TileSize: 8, Mode: ModeOptimized},
		{TileSize: 8, Workers: 3},
		{TileSize: 8, Mode: ModeOptimized, Workers: 3},
	} {
		res, err := Process(ctx, src, cfg)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("%+v: got %v, want context.Canceled", cfg, err)
		}
		if res != nil {
			t.Errorf("%+v: cancelled run returned a result", cfg)
		}
	}
}

// cancelAfter is a context that cancels itself on the n-th Err call, which
// lands the cancellation on a known cell of the scan.
type cancelAfter struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int32
}

func newCancelAfter(n int32) *cancelAfter {
	ctx, cancel := context.WithCancel(context.Background())
	c := &cancelAfter{Context: ctx, cancel: cancel}
	c.left.Store(n)
	return c
}

func (c *cancelAfter) Err() error {
	if c.left.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Err()
}

func TestProcess_CancelledMidRun(t *testing.T) {
	src := newTiledSource(8, 4, 4, distinctColors(16))

	tests := []struct {
		name    string
		cfg     Config
		after   int32
		wantMsg string
	}{
		{"original scan", Config{TileSize: 8}, 5, "scan cancelled at cell 4"},
		{"optimized scan", Config{TileSize: 8, Mode: ModeOptimized}, 5, "scan cancelled at cell 4"},
		{"optimized merge after parallel hashing", Config{TileSize: 8, Mode: ModeOptimized, Workers: 4}, 3, "scan cancelled at cell 2"},
		{"optimized packing", Config{TileSize: 8, Mode: ModeOptimized}, 18, "packing cancelled at tile 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newCancelAfter(tt.after)
			defer ctx.cancel()

			res, err := Process(ctx, src, tt.cfg)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("got %v, want context.Canceled", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err, tt.wantMsg)
			}
			if res != nil {
				t.Error("cancelled run returned a result")
			}
		})
	}
}

func TestProcess_TileFingerprints(t *testing.T) {
	colors := distinctColors(3)
	src := newTiledSource(8, 4, 1, []color.NRGBA{colors[0], colors[1], colors[0], colors[2]})

	orig := mustProcess(t, src, Config{TileSize: 8})
	if orig.Tiles[0].Fingerprint != orig.Tiles[2].Fingerprint {
		t.Error("equal tiles should share a fingerprint")
	}
	if orig.Tiles[0].Fingerprint == orig.Tiles[1].Fingerprint {
		t.Error("different tiles should not share a fingerprint")
	}

	opt := mustProcess(t, src, Config{TileSize: 8, Mode: ModeOptimized})
	for cell, id := range opt.CellMap {
		if opt.Tiles[id].Fingerprint != orig.Tiles[cell].Fingerprint {
			t.Errorf("cell %d: unique tile %d fingerprint %v, want %v",
				cell, id, opt.Tiles[id].Fingerprint, orig.Tiles[cell].Fingerprint)
		}
	}
}

func TestProcess_OffsetSource(t *testing.T) {
	big := newPatternSource(40, 40)
	sub := big.SubImage(image.Rect(8, 8, 40, 40))
	res := mustProcess(t, sub, Config{TileSize: 16})

	if res.Width != 32 || res.Height != 32 {
		t.Fatalf("output: got %dx%d, want 32x32", res.Width, res.Height)
	}
	if res.Image.NRGBAAt(0, 0) != big.NRGBAAt(8, 8) {
		t.Error("offset source not rebased to the origin")
	}
}

func TestProcess_Version(t *testing.T) {
	src := newPatternSource(8, 8)
	res, err := Process(context.Background(), src, Config{TileSize: 8}, WithVersion("9.9.9"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	m, err := ParseManifest(res.Manifest)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Info.Version != "9.9.9" || m.Info.Tool != ToolName {
		t.Errorf("Info: got %+v", m.Info)
	}
}
