// Package server implements the MCP (Model Context Protocol) server for mesh tools.
//
// This package provides a JSON-RPC 2.0 server that exposes mesh generation,
// mesh boolean operations and plotting through the MCP protocol.
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
// Primitives:
//   - mesh_sphere, mesh_cube, mesh_cylinder
//
// File I/O:
//   - mesh_load: Read a mesh and summarize it
//   - mesh_save: Convert between .stl, .obj and .ply
//
// Filters:
//   - mesh_triangulate, mesh_transform
//
// Booleans:
//   - mesh_boolean_union, mesh_boolean_intersection, mesh_boolean_difference
//
// Plotting:
//   - mesh_plot: Interactive X3DOM page
//   - mesh_screenshot: PNG, JPEG, GIF, TIFF or BMP from an isometric camera
//   - render_sphere: Base64 PNG of a colored sphere
//
// Diagnostics:
//   - hello_world: Reachability check
//
// # Tool Registry
//
// Tools are registered with [Register], which reflects the input schema
// from the argument struct and validates arguments before the handler runs.
//
// # Output Files
//
// Every tool that produces a file accepts an optional output_path. When it
// is empty a name of the form <kind>-<id>.<ext> is generated in the
// configured output directory. Relative paths, for inputs and outputs, are
// resolved against the same directory.
//
// # Mesh Caching
//
// Loaded meshes are cached by path and reused until the file changes or a
// tool overwrites it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The error text
//
// # Usage
//
//	srv := server.New(cfg, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
