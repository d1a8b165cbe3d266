package tileset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Tile is one tile of the output image.
type Tile struct {
	// ID is contiguous from 0. In ModeOriginal it is row*cols+col of the
	// source cell; in ModeOptimized it is the tile's first-seen scan rank.
	ID int `json:"id"`

	// X and Y are the tile's pixel origin in the output image.
	X int `json:"x"`
	Y int `json:"y"`

	// Solid is the collision flag inferred from opacity density.
	Solid bool `json:"collision"`

	// Fingerprint is the content hash of the tile's pixels. Equal tiles
	// share it; in ModeOptimized it identifies the deduplicated tile.
	Fingerprint Fingerprint `json:"fingerprint"`
}

// Result is the outcome of one Process call.
type Result struct {
	// Image is the output surface; PNG is its lossless encoding.
	Image *image.NRGBA `json:"-"`
	PNG   []byte       `json:"-"`

	Width       int `json:"width"`
	Height      int `json:"height"`
	TotalTiles  int `json:"total_tiles"`
	UniqueTiles int `json:"unique_tiles"`

	// Tiles is ordered by id.
	Tiles []Tile `json:"tiles"`

	// CellMap holds, for each source cell in row-major order, the id of the
	// output tile that represents it.
	CellMap []int `json:"cell_map"`

	// Grid is the partition of the source image.
	Grid Grid `json:"grid"`

	// Manifest is the encoded JSON manifest.
	Manifest []byte `json:"-"`
}

// Process runs the tile pipeline over img.
//
// The source is partitioned once, cells are visited in row-major order, and
// the output is laid out according to cfg.Mode. ctx is checked between
// cells; a cancelled or failed run returns a nil Result.
func Process(ctx context.Context, img image.Image, cfg Config, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src, err := Normalize(img)
	if err != nil {
		return nil, err
	}
	grid, err := Partition(src.Rect.Dx(), src.Rect.Dy(), cfg.TileSize)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	Logger().Debug("tileset: partitioned source",
		"width", src.Rect.Dx(), "height", src.Rect.Dy(),
		"cols", grid.Cols, "rows", grid.Rows, "mode", cfg.Mode.String())

	r := &run{ctx: ctx, src: src, cfg: cfg, grid: grid, opts: o}
	out, err := planFor(cfg.Mode).execute(r)
	if err != nil {
		return nil, err
	}

	atlas := out.atlas.Image()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, atlas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode output image: %w", err)
	}

	width, height := atlas.Rect.Dx(), atlas.Rect.Dy()
	manifest, err := BuildManifest(cfg, width, height, out.tiles, o.version, o.now()).Encode()
	if err != nil {
		return nil, err
	}

	Logger().Debug("tileset: processed",
		"total", grid.Total(), "unique", len(out.tiles),
		"width", width, "height", height, "elapsed", time.Since(start))

	return &Result{
		Image:       atlas,
		PNG:         buf.Bytes(),
		Width:       width,
		Height:      height,
		TotalTiles:  grid.Total(),
		UniqueTiles: len(out.tiles),
		Tiles:       out.tiles,
		CellMap:     out.cellMap,
		Grid:        grid,
		Manifest:    manifest,
	}, nil
}

// run carries the state of one Process call.
type run struct {
	ctx  context.Context
	src  *image.NRGBA
	cfg  Config
	grid Grid
	opts options
}

// packed is what a plan hands back to Process.
type packed struct {
	atlas   *Atlas
	tiles   []Tile
	cellMap []int
}

// plan is the layout strategy for one mode. Exactly two implementations
// exist: originalPlan and optimizedPlan.
type plan interface {
	execute(r *run) (*packed, error)
}

func planFor(m Mode) plan {
	if m == ModeOptimized {
		return optimizedPlan{}
	}
	return originalPlan{}
}

// originalPlan copies every cell to its natural grid position.
type originalPlan struct{}

func (originalPlan) execute(r *run) (*packed, error) {
	total := r.grid.Total()
	atlas, err := NewAtlas(r.grid.Cols, total, r.cfg.TileSize, r.opts.maxSurfacePixels)
	if err != nil {
		return nil, err
	}

	tiles := make([]Tile, total)
	cellMap := make([]int, total)
	err = r.forEachCell(func(ras *Rasterizer, i int) {
		col, row := r.grid.Cell(i)
		tile := ras.Extract(col, row)
		solid := Classify(tile, r.cfg.TileSize)
		at := atlas.Place(i, tile)
		tiles[i] = Tile{ID: i, X: at.X, Y: at.Y, Solid: solid, Fingerprint: FingerprintOf(tile)}
		cellMap[i] = i
	})
	if err != nil {
		return nil, err
	}
	return &packed{atlas: atlas, tiles: tiles, cellMap: cellMap}, nil
}

// optimizedPlan keeps first-seen unique tiles and packs them into
// cfg.Columns columns.
type optimizedPlan struct{}

func (optimizedPlan) execute(r *run) (*packed, error) {
	total := r.grid.Total()
	dedup := NewDeduplicator()
	cellMap := make([]int, total)

	var prints []Fingerprint
	if r.cfg.Workers > 1 {
		// Hash concurrently, then merge in scan order below.
		prints = make([]Fingerprint, total)
		err := r.forEachCell(func(ras *Rasterizer, i int) {
			col, row := r.grid.Cell(i)
			prints[i] = FingerprintOf(ras.Extract(col, row))
		})
		if err != nil {
			return nil, err
		}
	}

	ras := NewRasterizer(r.src, r.cfg.TileSize)
	for i := 0; i < total; i++ {
		if err := r.ctx.Err(); err != nil {
			return nil, fmt.Errorf("tileset: scan cancelled at cell %d: %w", i, err)
		}
		col, row := r.grid.Cell(i)
		tile := ras.Extract(col, row)
		if prints != nil {
			cellMap[i], _ = dedup.AddHashed(prints[i], tile)
		} else {
			cellMap[i], _ = dedup.Add(tile)
		}
	}

	unique := dedup.Len()
	Logger().Debug("tileset: deduplicated", "total", total, "unique", unique)

	atlas, err := NewAtlas(r.cfg.Columns, unique, r.cfg.TileSize, r.opts.maxSurfacePixels)
	if err != nil {
		return nil, err
	}
	tiles := make([]Tile, unique)
	for id := 0; id < unique; id++ {
		if err := r.ctx.Err(); err != nil {
			return nil, fmt.Errorf("tileset: packing cancelled at tile %d: %w", id, err)
		}
		tile := dedup.Unique(id)
		solid := Classify(tile, r.cfg.TileSize)
		at := atlas.Place(id, tile)
		dedup.Release(id)
		tiles[id] = Tile{ID: id, X: at.X, Y: at.Y, Solid: solid, Fingerprint: dedup.Fingerprint(id)}
	}
	return &packed{atlas: atlas, tiles: tiles, cellMap: cellMap}, nil
}

// forEachCell calls fn for every cell index. With more than one worker the
// cells are striped across goroutines, each owning its own Rasterizer; fn
// must only write state belonging to its cell.
func (r *run) forEachCell(fn func(ras *Rasterizer, i int)) error {
	total := r.grid.Total()
	workers := r.cfg.Workers
	if workers > total {
		workers = total
	}

	if workers <= 1 {
		ras := NewRasterizer(r.src, r.cfg.TileSize)
		for i := 0; i < total; i++ {
			if err := r.ctx.Err(); err != nil {
				return fmt.Errorf("tileset: scan cancelled at cell %d: %w", i, err)
			}
			fn(ras, i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(r.ctx)
	for w := 0; w < workers; w++ {
		first := w
		g.Go(func() error {
			ras := NewRasterizer(r.src, r.cfg.TileSize)
			for i := first; i < total; i += workers {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("tileset: scan cancelled at cell %d: %w", i, err)
				}
				fn(ras, i)
			}
			return nil
		})
	}
	return g.Wait()
}
