package server

import "github.com/ironsheep/mesh-tools-mcp/internal/mesh"

// registerTools adds the mesh tool catalog. The order here is the order
// reported by tools/list.
func (s *Server) registerTools() {
	r := s.registry

	// Primitives
	Register(r, "mesh_sphere",
		"Create a UV sphere and write it to a mesh file. Returns the file path and a mesh summary.",
		s.handleSphere)
	Register(r, "mesh_cube",
		"Create an axis aligned box and write it to a mesh file. Returns the file path and a mesh summary.",
		s.handleCube)
	Register(r, "mesh_cylinder",
		"Create a cylinder around an arbitrary axis and write it to a mesh file. Returns the file path and a mesh summary.",
		s.handleCylinder)

	// File I/O
	Register(r, "mesh_load",
		"Read a mesh file (.stl, .obj or .ply) and report point and face counts, bounds, center, area, volume and file size.",
		s.handleLoad)
	Register(r, "mesh_save",
		"Convert a mesh file to another format. The output format follows the output_path extension.",
		s.handleSave)

	// Filters
	Register(r, "mesh_triangulate",
		"Split every polygonal face of a mesh into triangles and write the result.",
		s.handleTriangulate)
	Register(r, "mesh_transform",
		"Scale a mesh about the origin and then translate it. Returns the transformed mesh path and summary.",
		s.handleTransform)

	// Booleans
	Register(r, "mesh_boolean_union",
		"Compute the union of two closed meshes (the region inside either).",
		s.booleanHandler(mesh.OpUnion))
	Register(r, "mesh_boolean_intersection",
		"Compute the intersection of two closed meshes (the region inside both).",
		s.booleanHandler(mesh.OpIntersection))
	Register(r, "mesh_boolean_difference",
		"Compute the difference of two closed meshes (the region inside path_a but outside path_b).",
		s.booleanHandler(mesh.OpDifference))

	// Plotting
	Register(r, "mesh_plot",
		"Plot one or more meshes into a standalone interactive HTML page. Returns the page path and optionally the HTML.",
		s.handlePlot)
	Register(r, "mesh_screenshot",
		"Render one or more meshes to a PNG image from an isometric viewpoint. Returns the image path and optionally base64 data.",
		s.handleScreenshot)
	Register(r, "render_sphere",
		"Render a default sphere in the given color and return it as a base64 PNG.",
		s.handleRenderSphere)

	// Diagnostics
	Register(r, "hello_world",
		"Return a greeting. Useful to check that the server is reachable.",
		s.handleHello)
}
