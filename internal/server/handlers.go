package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/tileset-tools-mcp/internal/imaging"
	"github.com/ironsheep/tileset-tools-mcp/internal/tileset"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tileset_load", "tileset_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramError marks a tool error caused by the caller's arguments rather than
// by the tool itself.
type paramError struct {
	err error
}

func (e *paramError) Error() string { return e.err.Error() }
func (e *paramError) Unwrap() error { return e.err }

func invalidParams(err error) error {
	return &paramError{err: err}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Argument errors, including invalid pipeline configuration, return a
// JSON-RPC error response with code -32602. Tool execution errors return
// code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		var pe *paramError
		if errors.As(err, &pe) || errors.Is(err, tileset.ErrInvalidConfig) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads the source from cache
//  4. Calls the appropriate tileset/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Source Information
	case "tileset_load":
		return s.handleTilesetLoad(args)
	case "tileset_grid":
		return s.handleTilesetGrid(args)

	// Pipeline
	case "tileset_process":
		return s.handleTilesetProcess(ctx, args)

	// Tile Inspection
	case "tileset_tile":
		return s.handleTilesetTile(args)
	case "tileset_compare_tiles":
		return s.handleTilesetCompareTiles(args)
	case "tileset_preview":
		return s.handleTilesetPreview(ctx, args)

	default:
		return nil, invalidParams(fmt.Errorf("unknown tool: %s", name))
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, reporting failures as parameter errors.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

// pipelineConfig builds a tileset.Config from tool arguments, falling back to
// the server's worker count.
func (s *Server) pipelineConfig(tileSize int, mode string, columns, workers int) (tileset.Config, error) {
	m, err := tileset.ParseMode(mode)
	if err != nil {
		return tileset.Config{}, err
	}
	if workers == 0 {
		workers = s.workers
	}
	return tileset.Config{TileSize: tileSize, Mode: m, Columns: columns, Workers: workers}, nil
}

// === Source Information Handlers ===

type tilesetLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleTilesetLoad(args json.RawMessage) (interface{}, error) {
	var a tilesetLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadSourceInfo(s.cache, a.Path)
}

type tilesetGridArgs struct {
	Path     string `json:"path"`
	TileSize int    `json:"tile_size"`
}

func (s *Server) handleTilesetGrid(args json.RawMessage) (interface{}, error) {
	var a tilesetGridArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetGrid(s.cache, a.Path, a.TileSize)
}

// === Pipeline Handlers ===

type tilesetProcessArgs struct {
	Path         string `json:"path"`
	TileSize     int    `json:"tile_size"`
	Mode         string `json:"mode"`
	Columns      int    `json:"columns"`
	Workers      int    `json:"workers"`
	OutputPath   string `json:"output_path"`
	ManifestPath string `json:"manifest_path"`
	TSXPath      string `json:"tsx_path"`
	IncludeImage bool   `json:"include_image"`
}

// processResult is the tileset_process response: the pipeline result plus
// the decoded manifest and whatever was written to disk.
type processResult struct {
	*tileset.Result
	Mode        string               `json:"mode"`
	Manifest    json.RawMessage      `json:"manifest"`
	Written     imaging.WrittenFiles `json:"written,omitempty"`
	ImageBase64 string               `json:"image_base64,omitempty"`
	MimeType    string               `json:"mime_type,omitempty"`
}

func (s *Server) handleTilesetProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tilesetProcessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.pipelineConfig(a.TileSize, a.Mode, a.Columns, a.Workers)
	if err != nil {
		return nil, err
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := tileset.Process(ctx, src, cfg, tileset.WithVersion(s.version))
	if err != nil {
		return nil, err
	}

	written, err := imaging.WriteOutputs(res, imaging.OutputPaths{
		Image:    a.OutputPath,
		Manifest: a.ManifestPath,
		TSX:      a.TSXPath,
	})
	if err != nil {
		return nil, err
	}

	out := &processResult{
		Result:   res,
		Mode:     cfg.Mode.String(),
		Manifest: json.RawMessage(res.Manifest),
		Written:  written,
	}
	if a.IncludeImage {
		out.ImageBase64 = base64.StdEncoding.EncodeToString(res.PNG)
		out.MimeType = "image/png"
	}
	return out, nil
}

// === Tile Inspection Handlers ===

type tilesetTileArgs struct {
	Path     string `json:"path"`
	TileSize int    `json:"tile_size"`
	Col      int    `json:"col"`
	Row      int    `json:"row"`
	Scale    int    `json:"scale"`
}

func (s *Server) handleTilesetTile(args json.RawMessage) (interface{}, error) {
	var a tilesetTileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1
	}
	if a.Scale < 0 || a.Scale > imaging.MaxPreviewScale {
		return nil, invalidParams(fmt.Errorf("scale must be between 1 and %d, got %d", imaging.MaxPreviewScale, a.Scale))
	}
	if a.TileSize <= 0 {
		return nil, invalidParams(fmt.Errorf("tile_size must be positive, got %d", a.TileSize))
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.ExtractTile(src, a.TileSize, a.Col, a.Row, a.Scale)
}

type tilesetCompareTilesArgs struct {
	Path     string       `json:"path"`
	TileSize int          `json:"tile_size"`
	A        imaging.Cell `json:"a"`
	B        imaging.Cell `json:"b"`
}

func (s *Server) handleTilesetCompareTiles(args json.RawMessage) (interface{}, error) {
	var a tilesetCompareTilesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.TileSize <= 0 {
		return nil, invalidParams(fmt.Errorf("tile_size must be positive, got %d", a.TileSize))
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CompareTiles(src, a.TileSize, a.A, a.B)
}

type tilesetPreviewArgs struct {
	Path             string  `json:"path"`
	TileSize         int     `json:"tile_size"`
	Mode             string  `json:"mode"`
	Columns          int     `json:"columns"`
	Scale            int     `json:"scale"`
	ShowGrid         *bool   `json:"show_grid"`
	ShowIDs          *bool   `json:"show_ids"`
	ShowCollision    *bool   `json:"show_collision"`
	GridColor        string  `json:"grid_color"`
	CollisionColor   string  `json:"collision_color"`
	CollisionOpacity float64 `json:"collision_opacity"`
}

func (s *Server) handleTilesetPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a tilesetPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 2
	}
	if a.Scale < 0 || a.Scale > imaging.MaxPreviewScale {
		return nil, invalidParams(fmt.Errorf("scale must be between 1 and %d, got %d", imaging.MaxPreviewScale, a.Scale))
	}
	if a.CollisionOpacity < 0 || a.CollisionOpacity > 1 {
		return nil, invalidParams(fmt.Errorf("collision_opacity must be between 0 and 1, got %v", a.CollisionOpacity))
	}
	cfg, err := s.pipelineConfig(a.TileSize, a.Mode, a.Columns, 0)
	if err != nil {
		return nil, err
	}

	src, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	res, err := tileset.Process(ctx, src, cfg, tileset.WithVersion(s.version))
	if err != nil {
		return nil, err
	}

	return imaging.RenderPreview(res, imaging.PreviewOptions{
		Scale:            a.Scale,
		ShowGrid:         boolOr(a.ShowGrid, true),
		ShowIDs:          boolOr(a.ShowIDs, true),
		ShowCollision:    boolOr(a.ShowCollision, true),
		GridColor:        a.GridColor,
		CollisionColor:   a.CollisionColor,
		CollisionOpacity: a.CollisionOpacity,
	})
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
