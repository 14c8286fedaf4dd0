// Package render turns meshes into pictures for the MCP plotting tools.
//
// Two outputs are supported:
//
//   - Screenshot rasterizes a Scene into an RGBA image with a z-buffer and a
//     headlight Lambert shade. The camera looks at the scene bounds from the
//     (+1, +1, +1) diagonal with +Z up, the same isometric default most mesh
//     viewers use.
//   - ExportHTML writes a self-contained X3DOM page so the scene can be
//     rotated interactively in a browser.
//
// # Colors
//
// Actor and background colors accept a small set of CSS/matplotlib names
// ("blue", "tan", "lightsteelblue", ...) or hex strings "#RGB", "#RRGGBB" and
// "#RRGGBBAA". The alpha byte of an 8-digit hex color multiplies the actor
// opacity.
//
// # Anti-aliasing
//
// Screenshots are rendered at Supersample times the requested size and
// downscaled with a linear filter.
package render
