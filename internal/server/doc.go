// Package server implements the MCP (Model Context Protocol) server for the
// tileset tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the tile pipeline
// through the MCP protocol, so MCP-compatible clients can inspect a tileset,
// run collision classification and deduplication, and write the packed atlas.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Source Information:
//   - tileset_load: Load a tileset and get its metadata
//   - tileset_grid: Partition into tiles and report the discarded remainder
//
// Pipeline:
//   - tileset_process: Classify, deduplicate and pack; optionally write the
//     atlas PNG, JSON manifest and Tiled TSX
//
// Tile Inspection:
//   - tileset_tile: Extract one tile with fingerprint, collision and palette
//   - tileset_compare_tiles: Byte-exact comparison of two tiles
//   - tileset_preview: Annotated render of the processed atlas
//
// # Image Caching
//
// Decoded sources are cached by path and reused across tool calls for the
// lifetime of the server process.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32700: the request line is not valid JSON
//   - -32601: unknown method
//   - -32602: bad tool arguments, unknown tool, or invalid pipeline config
//   - -32000: the tool failed (missing file, tile larger than source, ...)
//
// The data field carries the Go error string.
//
// # Usage
//
//	srv := server.New(server.WithVersion(version), server.WithWorkers(4))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
