// Package mesh provides the polygonal surface kernel behind the MCP mesh tools.
//
// A Mesh is a list of points plus a list of polygonal faces that index into
// those points. Faces are wound counter-clockwise when viewed from outside
// the surface, so that the right-hand normal points outward. Every
// constructor in this package produces meshes with that orientation, and the
// boolean operations preserve it.
//
// # Primitives
//
//   - Sphere: latitude/longitude tessellation with triangular pole caps
//   - Cube: six quads, axis aligned
//   - Cylinder: capped or open tube along an arbitrary axis
//
// # Boolean Operations
//
// Union, Intersection and Difference operate on closed surfaces using a BSP
// tree of convex polygons. Results are triangulated and duplicate points are
// welded. Operands that are not closed produce undefined (but non-failing)
// results.
//
// # Measurements
//
// Bounds, Area and Volume are computed directly from the face list. Volume
// uses the divergence theorem and is therefore signed: an inside-out mesh
// has negative volume.
//
// # Thread Safety
//
// Mesh values are treated as immutable by every function in this package;
// operations return new meshes. Concurrent reads of the same Mesh are safe.
package mesh
