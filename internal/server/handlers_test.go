package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callTool runs a tools/call request and decodes the text content.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	require.NoError(t, err)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	require.NotNil(t, resp)
	if resp.Error != nil {
		return nil, resp.Error
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), &out))
	return out, nil
}

func mustCall(t *testing.T, s *Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	out, rpcErr := callTool(t, s, name, args)
	require.Nil(t, rpcErr, "%s: %v", name, rpcErr)
	return out
}

func requireToolError(t *testing.T, s *Server, name string, args interface{}) string {
	t.Helper()
	_, rpcErr := callTool(t, s, name, args)
	require.NotNil(t, rpcErr, name)
	assert.Equal(t, -32000, rpcErr.Code)
	data, _ := rpcErr.Data.(string)
	return data
}

func num(t *testing.T, v interface{}) float64 {
	t.Helper()
	f, ok := v.(float64)
	require.True(t, ok, "expected number, got %T", v)
	return f
}

func floats(t *testing.T, v interface{}) []float64 {
	t.Helper()
	list, ok := v.([]interface{})
	require.True(t, ok, "expected array, got %T", v)
	out := make([]float64, len(list))
	for i := range list {
		out[i] = num(t, list[i])
	}
	return out
}

// writeCube creates a cube mesh file through the tool and returns its path.
func writeCube(t *testing.T, s *Server, name string, size float64, center []float64) string {
	t.Helper()
	out := mustCall(t, s, "mesh_cube", map[string]interface{}{
		"x_length":    size,
		"y_length":    size,
		"z_length":    size,
		"center":      center,
		"output_path": filepath.Join(s.cfg.OutputDir, name),
	})
	return out["path"].(string)
}

func TestHandleToolsCall_Sphere(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "mesh_sphere", map[string]interface{}{})

	path := out["path"].(string)
	assert.Equal(t, s.cfg.OutputDir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "sphere-"), path)
	assert.Equal(t, ".stl", filepath.Ext(path))
	assert.FileExists(t, path)

	assert.Equal(t, "stl", out["format"])
	assert.EqualValues(t, 2+29*30, out["n_points"])
	assert.EqualValues(t, 2*30*29, out["n_faces"])
	assert.Equal(t, true, out["triangulated"])
	assert.InDelta(t, 4.0/3*math.Pi*0.125, num(t, out["volume"]), 0.01)
	assert.Equal(t, []float64{-0.5, 0.5}, floats(t, out["bounds"])[4:])
}

func TestHandleToolsCall_Sphere_Options(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "mesh_sphere", map[string]interface{}{
		"radius":           2,
		"center":           []float64{1, 0, 0},
		"theta_resolution": 8,
		"phi_resolution":   4,
		"output_path":      "nested/dir/ball.ply",
	})

	assert.Equal(t, filepath.Join(s.cfg.OutputDir, "nested", "dir", "ball.ply"), out["path"])
	assert.FileExists(t, out["path"].(string))
	assert.Equal(t, "ply", out["format"])
	assert.EqualValues(t, 2+3*8, out["n_points"])
	center := floats(t, out["center"])
	assert.InDelta(t, 1.0, center[0], 1e-9)
	assert.InDelta(t, 0.0, center[1], 1e-9)
	assert.InDelta(t, 0.0, center[2], 1e-9)
}

func TestHandleToolsCall_Sphere_InvalidArgs(t *testing.T) {
	s := newTestServer(t)
	for _, args := range []map[string]interface{}{
		{"radius": -1},
		{"theta_resolution": 2},
		{"center": []float64{1, 2}},
		{"output_path": filepath.Join(s.cfg.OutputDir, "ball.xyz")},
	} {
		data := requireToolError(t, s, "mesh_sphere", args)
		assert.NotEmpty(t, data)
	}
}

func TestHandleToolsCall_Cube(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "mesh_cube", map[string]interface{}{
		"output_path": filepath.Join(s.cfg.OutputDir, "cube.obj"),
	})

	assert.Equal(t, "obj", out["format"])
	assert.EqualValues(t, 8, out["n_points"])
	assert.EqualValues(t, 6, out["n_faces"])
	assert.Equal(t, false, out["triangulated"])
	assert.InDelta(t, 1.0, num(t, out["volume"]), 1e-9)
	assert.InDelta(t, 6.0, num(t, out["area"]), 1e-9)
	assert.Equal(t, []float64{-0.5, 0.5, -0.5, 0.5, -0.5, 0.5}, floats(t, out["bounds"]))
}

func TestHandleToolsCall_Cylinder(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "mesh_cylinder", nil)
	assert.EqualValues(t, 200, out["n_points"])
	assert.EqualValues(t, 102, out["n_faces"])
	assert.InDelta(t, math.Pi/4, num(t, out["volume"]), 1e-3)

	// default axis is +x
	b := floats(t, out["bounds"])
	assert.InDelta(t, -0.5, b[0], 1e-6)
	assert.InDelta(t, 0.5, b[1], 1e-6)

	out = mustCall(t, s, "mesh_cylinder", map[string]interface{}{
		"capping":    false,
		"resolution": 12,
		"direction":  []float64{0, 0, 1},
	})
	assert.EqualValues(t, 24, out["n_points"])
	assert.EqualValues(t, 12, out["n_faces"])
}

func TestHandleToolsCall_Load(t *testing.T) {
	s := newTestServer(t)
	path := writeCube(t, s, "cube.stl", 1, nil)

	out := mustCall(t, s, "mesh_load", map[string]interface{}{"path": path})
	assert.Equal(t, path, out["path"])
	assert.Equal(t, "stl", out["format"])
	assert.EqualValues(t, 8, out["n_points"])
	assert.EqualValues(t, 12, out["n_faces"])
	assert.Equal(t, true, out["triangulated"])
	assert.InDelta(t, 1.0, num(t, out["volume"]), 1e-6)

	// binary STL: 80 byte header, 4 byte count, 50 bytes per triangle
	assert.EqualValues(t, 84+50*12, out["file_size_bytes"])
}

func TestHandleToolsCall_Load_Errors(t *testing.T) {
	s := newTestServer(t)

	data := requireToolError(t, s, "mesh_load", map[string]interface{}{
		"path": filepath.Join(s.cfg.OutputDir, "missing.stl"),
	})
	assert.Contains(t, data, "failed to open mesh")

	bad := filepath.Join(s.cfg.OutputDir, "mesh.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))
	data = requireToolError(t, s, "mesh_load", map[string]interface{}{"path": bad})
	assert.Contains(t, data, "unsupported mesh format")

	data = requireToolError(t, s, "mesh_load", map[string]interface{}{})
	assert.Contains(t, data, "invalid arguments")

	negative := filepath.Join(s.cfg.OutputDir, "negative.ply")
	require.NoError(t, os.WriteFile(negative, []byte("ply\nformat ascii 1.0\nelement vertex -1\n"+
		"property float x\nproperty float y\nproperty float z\nend_header\n"), 0o644))
	data = requireToolError(t, s, "mesh_load", map[string]interface{}{"path": negative})
	assert.Contains(t, data, "invalid ply element count")

	// the server keeps answering after a malformed file
	mustCall(t, s, "hello_world", nil)
}

func TestHandleToolsCall_Save(t *testing.T) {
	s := newTestServer(t)
	path := writeCube(t, s, "cube.obj", 1, nil)

	dst := filepath.Join(s.cfg.OutputDir, "converted", "cube.ply")
	out := mustCall(t, s, "mesh_save", map[string]interface{}{
		"path":        path,
		"output_path": dst,
	})
	assert.Equal(t, dst, out["path"])
	assert.Equal(t, "ply", out["format"])

	loaded := mustCall(t, s, "mesh_load", map[string]interface{}{"path": dst})
	assert.EqualValues(t, 8, loaded["n_points"])
	assert.EqualValues(t, 6, loaded["n_faces"])

	data := requireToolError(t, s, "mesh_save", map[string]interface{}{"path": path})
	assert.Contains(t, data, "invalid arguments")
}

func TestHandleToolsCall_Triangulate(t *testing.T) {
	s := newTestServer(t)
	path := writeCube(t, s, "quads.obj", 1, nil)

	out := mustCall(t, s, "mesh_triangulate", map[string]interface{}{"path": path})
	assert.Equal(t, ".obj", filepath.Ext(out["path"].(string)))
	assert.True(t, strings.HasPrefix(filepath.Base(out["path"].(string)), "triangulated-"))
	assert.EqualValues(t, 12, out["n_faces"])
	assert.Equal(t, true, out["triangulated"])
	assert.InDelta(t, 1.0, num(t, out["volume"]), 1e-9)
}

func TestHandleToolsCall_Transform(t *testing.T) {
	s := newTestServer(t)
	path := writeCube(t, s, "cube.stl", 1, nil)

	out := mustCall(t, s, "mesh_transform", map[string]interface{}{
		"path":      path,
		"scale":     []float64{2, 2, 2},
		"translate": []float64{1, 0, 0},
	})
	assert.InDelta(t, 8.0, num(t, out["volume"]), 1e-6)
	assert.Equal(t, []float64{0, 2, -1, 1, -1, 1}, floats(t, out["bounds"]))

	// translate only keeps the size
	out = mustCall(t, s, "mesh_transform", map[string]interface{}{
		"path":      path,
		"translate": []float64{0, 0, 3},
	})
	assert.InDelta(t, 1.0, num(t, out["volume"]), 1e-6)

	// mirroring keeps the volume positive
	out = mustCall(t, s, "mesh_transform", map[string]interface{}{
		"path":  path,
		"scale": []float64{-1, 1, 1},
	})
	assert.InDelta(t, 1.0, num(t, out["volume"]), 1e-6)

	requireToolError(t, s, "mesh_transform", map[string]interface{}{
		"path":  path,
		"scale": []float64{0, 1, 1},
	})
}

func TestHandleToolsCall_Booleans(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 2, nil)
	b := writeCube(t, s, "b.stl", 2, []float64{1, 1, 1})

	tests := []struct {
		tool   string
		prefix string
		volume float64
	}{
		{"mesh_boolean_union", "union-", 15},
		{"mesh_boolean_intersection", "intersection-", 1},
		{"mesh_boolean_difference", "difference-", 7},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			out := mustCall(t, s, tt.tool, map[string]interface{}{"path_a": a, "path_b": b})
			path := out["path"].(string)
			assert.True(t, strings.HasPrefix(filepath.Base(path), tt.prefix), path)
			assert.FileExists(t, path)
			assert.Equal(t, true, out["triangulated"])
			assert.InDelta(t, tt.volume, num(t, out["volume"]), 1e-6)

			// the written file holds the same solid
			loaded := mustCall(t, s, "mesh_load", map[string]interface{}{"path": path})
			assert.InDelta(t, tt.volume, num(t, loaded["volume"]), 1e-4)
		})
	}
}

func TestHandleToolsCall_Boolean_MissingOperand(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)

	data := requireToolError(t, s, "mesh_boolean_difference", map[string]interface{}{
		"path_a": a,
		"path_b": filepath.Join(s.cfg.OutputDir, "nope.stl"),
	})
	assert.Contains(t, data, "path_b")

	data = requireToolError(t, s, "mesh_boolean_union", map[string]interface{}{"path_a": a})
	assert.Contains(t, data, "invalid arguments")
}

func TestHandleToolsCall_Plot(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)
	b := writeCube(t, s, "b.obj", 1, []float64{2, 0, 0})

	out := mustCall(t, s, "mesh_plot", map[string]interface{}{
		"meshes": []map[string]interface{}{
			{"path": a, "color": "red", "show_edges": true},
			{"path": b, "opacity": 0.5, "label": "second"},
		},
		"title":       "Two cubes",
		"return_html": true,
	})

	path := out["path"].(string)
	assert.Equal(t, ".html", filepath.Ext(path))
	assert.EqualValues(t, 2, out["actors"])

	html := out["html"].(string)
	assert.Contains(t, html, "x3dom")
	assert.Contains(t, html, "<title>Two cubes</title>")
	assert.Contains(t, html, "a.stl: 8 points, 12 faces")
	assert.Contains(t, html, "second: 8 points, 6 faces")
	assert.Contains(t, html, `diffuseColor="1 0 0"`)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, html, string(onDisk))
}

func TestHandleToolsCall_Plot_Errors(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)

	requireToolError(t, s, "mesh_plot", map[string]interface{}{"meshes": []interface{}{}})
	requireToolError(t, s, "mesh_plot", map[string]interface{}{
		"meshes": []map[string]interface{}{{"path": a, "opacity": 2}},
	})
	requireToolError(t, s, "mesh_plot", map[string]interface{}{
		"meshes": []map[string]interface{}{{"path": a, "color": "not-a-color"}},
	})

	out := mustCall(t, s, "mesh_plot", map[string]interface{}{
		"meshes": []map[string]interface{}{{"path": a}},
	})
	_, hasHTML := out["html"]
	assert.False(t, hasHTML)
}

func TestHandleToolsCall_Screenshot(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)

	out := mustCall(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes":        []map[string]interface{}{{"path": a, "color": "green"}},
		"width":         40,
		"height":        30,
		"background":    "black",
		"return_base64": true,
	})
	assert.EqualValues(t, 40, out["width"])
	assert.EqualValues(t, 30, out["height"])
	assert.Equal(t, "image/png", out["mime_type"])

	saved, err := imaging.Open(out["path"].(string))
	require.NoError(t, err)
	assert.Equal(t, 40, saved.Bounds().Dx())

	raw, err := base64.StdEncoding.DecodeString(out["image_base64"].(string))
	require.NoError(t, err)
	decoded, err := imaging.Decode(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, 30, decoded.Bounds().Dy())

	// defaults come from config
	out = mustCall(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes": []map[string]interface{}{{"path": a}},
	})
	assert.EqualValues(t, 64, out["width"])
	assert.EqualValues(t, 48, out["height"])
	assert.True(t, strings.HasPrefix(filepath.Base(out["path"].(string)), "screenshot-"))
	_, hasImage := out["image_base64"]
	assert.False(t, hasImage)
}

func TestHandleToolsCall_Screenshot_Formats(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)

	out := mustCall(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes":        []map[string]interface{}{{"path": a}},
		"output_path":   "shot.jpg",
		"return_base64": true,
	})
	assert.Equal(t, "image/jpeg", out["mime_type"])
	assert.Equal(t, filepath.Join(s.cfg.OutputDir, "shot.jpg"), out["path"])

	raw, err := base64.StdEncoding.DecodeString(out["image_base64"].(string))
	require.NoError(t, err)
	require.Greater(t, len(raw), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, raw[:2], "base64 payload should be the saved JPEG")
	onDisk, err := os.ReadFile(out["path"].(string))
	require.NoError(t, err)
	assert.Equal(t, onDisk, raw)

	out = mustCall(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes":      []map[string]interface{}{{"path": a}},
		"output_path": "shot.gif",
	})
	assert.Equal(t, "image/gif", out["mime_type"])

	data := requireToolError(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes":      []map[string]interface{}{{"path": a}},
		"output_path": "shot.xyz",
	})
	assert.Contains(t, data, "unsupported image file")
	_, err = os.Stat(filepath.Join(s.cfg.OutputDir, "shot.xyz"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleToolsCall_ZeroOpacity(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)
	meshes := []map[string]interface{}{{"path": a, "color": "red", "opacity": 0}}

	out := mustCall(t, s, "mesh_screenshot", map[string]interface{}{
		"meshes":     meshes,
		"width":      40,
		"height":     40,
		"background": "white",
	})
	img, err := imaging.Open(out["path"].(string))
	require.NoError(t, err)
	r, g, b, _ := img.At(20, 20).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b})

	out = mustCall(t, s, "mesh_plot", map[string]interface{}{
		"meshes":      meshes,
		"return_html": true,
	})
	assert.Contains(t, out["html"], `transparency="1"`)

	// omitted opacity stays opaque
	out = mustCall(t, s, "mesh_plot", map[string]interface{}{
		"meshes":      []map[string]interface{}{{"path": a}},
		"return_html": true,
	})
	assert.Contains(t, out["html"], `transparency="0"`)
}

func TestHandleToolsCall_CancelledContext(t *testing.T) {
	s := newTestServer(t)
	a := writeCube(t, s, "a.stl", 1, nil)
	b := writeCube(t, s, "b.stl", 1, []float64{0.5, 0, 0})
	meshes := []map[string]interface{}{{"path": a}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before, err := os.ReadDir(s.cfg.OutputDir)
	require.NoError(t, err)

	for name, args := range map[string]interface{}{
		"mesh_sphere":        nil,
		"mesh_cube":          nil,
		"mesh_cylinder":      nil,
		"mesh_triangulate":   map[string]interface{}{"path": a},
		"mesh_transform":     map[string]interface{}{"path": a, "translate": []float64{1, 0, 0}},
		"mesh_boolean_union": map[string]interface{}{"path_a": a, "path_b": b},
		"mesh_plot":          map[string]interface{}{"meshes": meshes},
		"mesh_screenshot":    map[string]interface{}{"meshes": meshes},
		"render_sphere":      nil,
	} {
		raw, err := json.Marshal(args)
		require.NoError(t, err)
		_, err = s.registry.Call(ctx, name, raw)
		assert.ErrorIs(t, err, context.Canceled, name)
	}

	after, err := os.ReadDir(s.cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "cancelled calls must not write files")
}

func TestHandleToolsCall_RenderSphere(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "render_sphere", nil)
	assert.Equal(t, "blue", out["color"])
	assert.Equal(t, "image/png", out["mime_type"])

	raw, err := base64.StdEncoding.DecodeString(out["image_base64"].(string))
	require.NoError(t, err)
	img, err := imaging.Decode(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	r, g, b, _ := img.At(32, 24).RGBA()
	assert.Greater(t, b, r)
	assert.Greater(t, b, g)

	data := requireToolError(t, s, "render_sphere", map[string]interface{}{"color": "chartreuse-ish"})
	assert.NotEmpty(t, data)
}

func TestHandleToolsCall_HelloWorld(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "hello_world", nil)
	assert.Equal(t, "Hello world!", out["message"])
	assert.Equal(t, "mesh-tools-mcp", out["server"])
	assert.Equal(t, "test", out["version"])
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)
	data := requireToolError(t, s, "mesh_teapot", map[string]interface{}{})
	assert.Contains(t, data, "unknown tool")
	assert.Contains(t, data, "mesh_teapot")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)

	resp = s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"arguments":{}}`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_CacheSeesRewrites(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(s.cfg.OutputDir, "shape.stl")

	writeCube(t, s, "shape.stl", 1, nil)
	first := mustCall(t, s, "mesh_load", map[string]interface{}{"path": path})
	assert.InDelta(t, 1.0, num(t, first["volume"]), 1e-6)

	mustCall(t, s, "mesh_sphere", map[string]interface{}{"output_path": path})
	second := mustCall(t, s, "mesh_load", map[string]interface{}{"path": path})
	assert.EqualValues(t, 872, second["n_points"])
}

func TestOutputPath(t *testing.T) {
	s := newTestServer(t)

	p1 := s.outputPath("", "cube", ".stl")
	p2 := s.outputPath("", "cube", ".stl")
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, s.cfg.OutputDir, filepath.Dir(p1))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(filepath.Base(p1), "cube-"), ".stl"), 8)

	assert.Equal(t, "/abs/x.obj", s.outputPath("/abs/x.obj", "cube", ".stl"))
	assert.Equal(t, filepath.Join(s.cfg.OutputDir, "rel", "x.obj"), s.outputPath("rel/x.obj", "cube", ".stl"))
}
