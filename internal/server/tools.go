package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the tileset image (PNG, JPEG, GIF, BMP or WebP)",
	}
}

func tileSizeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Edge length of a square tile in pixels",
		"minimum":     1,
	}
}

func modeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"original", "optimized"},
		"description": "original keeps every tile at its grid position; optimized keeps unique tiles only, packed into columns. Default original",
		"default":     "original",
	}
}

func columnsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Atlas column count in optimized mode (default 8)",
		"default":     8,
	}
}

func cellProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"col": map[string]interface{}{"type": "integer"},
			"row": map[string]interface{}{"type": "integer"},
		},
		"required":    []string{"col", "row"},
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source Information
		{
			Name:        "tileset_load",
			Description: "Load a tileset image and return its dimensions, format and whether it has transparency.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tileset_grid",
			Description: "Partition a tileset into square tiles and report columns, rows, tile count and the discarded right/bottom remainder.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"tile_size": tileSizeProperty(),
				},
				"required": []string{"path", "tile_size"},
			},
		},

		// Pipeline
		{
			Name:        "tileset_process",
			Description: "Run the tile pipeline: classify collision per tile, optionally deduplicate identical tiles, and pack the output image. Returns tiles with positions and collision flags, the source cell map and the JSON manifest. Writes the atlas PNG, manifest and Tiled TSX when paths are given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"tile_size": tileSizeProperty(),
					"mode":      modeProperty(),
					"columns":   columnsProperty(),
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Goroutines used for per-tile work. Output does not depend on it. Default: server setting",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the output PNG",
					},
					"manifest_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the JSON manifest",
					},
					"tsx_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for a Tiled tileset (.tsx) referencing the output PNG",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether to return the output PNG as base64 (default false)",
						"default":     false,
					},
				},
				"required": []string{"path", "tile_size"},
			},
		},

		// Tile Inspection
		{
			Name:        "tileset_tile",
			Description: "Extract one source tile as base64 PNG with its fingerprint, opaque pixel count, collision flag and color palette.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"tile_size": tileSizeProperty(),
					"col":       map[string]interface{}{"type": "integer", "description": "Tile column (0-based)"},
					"row":       map[string]interface{}{"type": "integer", "description": "Tile row (0-based)"},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer zoom for the returned image, nearest-neighbour (default 1)",
						"default":     1,
					},
				},
				"required": []string{"path", "tile_size", "col", "row"},
			},
		},
		{
			Name:        "tileset_compare_tiles",
			Description: "Compare two source tiles byte for byte, the way deduplication decides identity. Reports whether they are identical, their fingerprints and how many pixels differ.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"tile_size": tileSizeProperty(),
					"a":         cellProperty("First tile"),
					"b":         cellProperty("Second tile"),
				},
				"required": []string{"path", "tile_size", "a", "b"},
			},
		},
		{
			Name:        "tileset_preview",
			Description: "Render the processed output image with tile grid, tile id labels and a tint over tiles classified as collision, enlarged with nearest-neighbour sampling.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty(),
					"tile_size": tileSizeProperty(),
					"mode":      modeProperty(),
					"columns":   columnsProperty(),
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Integer zoom (1-16, default 2)",
						"default":     2,
					},
					"show_grid": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw tile boundaries (default true)",
						"default":     true,
					},
					"show_ids": map[string]interface{}{
						"type":        "boolean",
						"description": "Label every tile with its id (default true)",
						"default":     true,
					},
					"show_collision": map[string]interface{}{
						"type":        "boolean",
						"description": "Tint tiles classified as collision (default true)",
						"default":     true,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex (default #FF0000)",
						"default":     "#FF0000",
					},
					"collision_color": map[string]interface{}{
						"type":        "string",
						"description": "Collision tint color as hex (default #FF00FF)",
						"default":     "#FF00FF",
					},
					"collision_opacity": map[string]interface{}{
						"type":        "number",
						"description": "Collision tint opacity (0-1, default 0.45)",
						"default":     0.45,
					},
				},
				"required": []string{"path", "tile_size"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
