// Package server implements the MCP (Model Context Protocol) server for plate
// recognition tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the plate reader
// through the MCP protocol, so that an assistant can read plates, inspect
// the intermediate images and manage the blacklist.
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
// Recognition:
//   - plate_recognize: Read the plate text
//   - plate_recognize_debug: Read the plate with the full trace
//   - plate_predict: Read, check against the blacklist, save and record
//
// Image views:
//   - plate_enhance: Enhanced image (standard or aggressive)
//   - plate_variants: The four enhanced views
//   - plate_annotate: Frame with plate regions outlined
//   - image_dimensions: Width and height
//   - image_crop: Extract a rectangular region
//
// Blacklist and history:
//   - blacklist_add, blacklist_add_by_photo, blacklist_list, blacklist_remove
//   - plate_history: Most recent recorded predictions
//
// # Image Caching
//
// Images are addressed by path and cached for the lifetime of the server
// process, so several tools can inspect the same photo without re-reading it.
// plate_predict reads the file directly because captures are saved from the
// uploaded bytes.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure), -32602 (invalid arguments)
//     or -32601 (unknown method)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(plates, enhance.New(), server.Options{Version: version})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
