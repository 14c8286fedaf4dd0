// Package meshio reads and writes mesh files for the MCP server.
//
// The file format is selected from the path extension (case-insensitive):
//
//   - .stl: STL, binary on write, binary or ASCII on read
//   - .obj: Wavefront OBJ, vertices and faces only
//   - .ply: Stanford PLY, ASCII encoding only
//
// STL stores an unindexed triangle soup, so coincident vertices are welded
// when an STL file is read. OBJ and PLY keep polygonal faces as written.
//
// # Caching
//
// Cache keeps decoded meshes keyed by path so repeated tool calls against
// the same file avoid re-parsing. Entries are invalidated when the file's
// size or modification time changes, and Cache.Save evicts the written path.
package meshio
