package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ironsheep/tileset-tools-mcp/internal/imaging"
	"github.com/ironsheep/tileset-tools-mcp/internal/server"
	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const description = `Tileset pipeline: classify collision per tile, deduplicate identical tiles and pack the atlas.

Without a command the MCP server runs over stdin/stdout. Configure it in your MCP client.`

type Globals struct {
	LogLevel string           `name:"log-level" env:"TILESET_MCP_LOG_LEVEL" enum:"info,debug" default:"info" help:"Log verbosity (info, debug)."`
	Workers  int              `env:"TILESET_MCP_WORKERS" default:"0" help:"Goroutines for per-tile work. 0 runs sequentially."`
	Version  kong.VersionFlag `short:"v" help:"Print version information."`
}

type cli struct {
	Globals

	Serve   serveCmd   `cmd:"" default:"1" help:"Run the MCP server over stdin/stdout."`
	Process processCmd `cmd:"" help:"Process a tileset file and write the atlas, manifest and optional TSX."`
}

type serveCmd struct{}

func (c *serveCmd) Run(ctx context.Context, g *Globals) error {
	if g.LogLevel == "debug" {
		log.Printf("Tileset MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv := server.New(
		server.WithVersion(Version),
		server.WithWorkers(g.Workers),
		server.WithDebug(g.LogLevel == "debug"),
	)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type processCmd struct {
	Input    string `arg:"" type:"existingfile" help:"Source tileset image."`
	TileSize int    `short:"t" name:"tile-size" env:"TILESET_MCP_TILE_SIZE" default:"16" help:"Tile edge length in pixels."`
	Mode     string `short:"m" enum:"original,optimized" default:"original" help:"original keeps every tile in place; optimized keeps unique tiles packed into columns."`
	Columns  int    `short:"c" default:"8" help:"Atlas column count in optimized mode."`
	Out      string `short:"o" type:"path" help:"Output PNG (default <input>.tileset.png)."`
	Manifest string `type:"path" help:"Output JSON manifest (default <out> with .json)."`
	TSX      string `name:"tsx" type:"path" help:"Optional Tiled tileset (.tsx) referencing the output PNG."`
}

func (c *processCmd) Run(ctx context.Context, g *Globals) error {
	mode, err := tileset.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	src, err := imaging.NewImageCache().Load(c.Input)
	if err != nil {
		return err
	}

	res, err := tileset.Process(ctx, src, tileset.Config{
		TileSize: c.TileSize,
		Mode:     mode,
		Columns:  c.Columns,
		Workers:  g.Workers,
	}, tileset.WithVersion(Version))
	if err != nil {
		return err
	}

	paths := c.outputPaths()
	written, err := imaging.WriteOutputs(res, paths)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d tiles, %d unique, %dx%d %s atlas\n",
		c.Input, res.TotalTiles, res.UniqueTiles, res.Width, res.Height, mode)
	for _, p := range []string{paths.Image, paths.Manifest, paths.TSX} {
		if n, ok := written[p]; ok {
			fmt.Printf("  wrote %s (%d bytes)\n", p, n)
		}
	}
	return nil
}

func (c *processCmd) outputPaths() imaging.OutputPaths {
	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(c.Input, filepath.Ext(c.Input)) + ".tileset.png"
	}
	manifest := c.Manifest
	if manifest == "" {
		manifest = strings.TrimSuffix(out, filepath.Ext(out)) + ".json"
	}
	return imaging.OutputPaths{Image: out, Manifest: manifest, TSX: c.TSX}
}

func main() {
	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var app cli
	kctx := kong.Parse(&app,
		kong.Name("tileset-mcp"),
		kong.Description(description),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("tileset-tools-mcp %s (built %s, commit %s)", Version, BuildTime, GitCommit)},
	)

	if app.LogLevel == "debug" {
		tileset.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&app.Globals)
	stop()
	kctx.FatalIfErrorf(err)
}
