package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
	"github.com/ironsheep/mesh-tools-mcp/internal/meshio"
	"github.com/ironsheep/mesh-tools-mcp/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "mesh_sphere", "mesh_boolean_union").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if params.Name == "" {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", "missing tool name")
	}

	started := time.Now()
	result, err := s.registry.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		logger.KV(xlog.ERROR, "tool", params.Name, "err", err.Error())
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
	}
	logger.KV(xlog.DEBUG, "tool", params.Name, "elapsed", time.Since(started).String())

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

// mustMarshalJSON renders a tool result as indented JSON.
func mustMarshalJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}

// =============================================================================
// Results
// =============================================================================

// meshResult reports a mesh written to disk.
type meshResult struct {
	Path   string        `json:"path"`
	Format meshio.Format `json:"format"`
	mesh.Summary
}

// loadResult reports a mesh read from disk.
type loadResult struct {
	meshResult
	FileSizeBytes int64 `json:"file_size_bytes"`
}

type plotResult struct {
	Path   string `json:"path"`
	Actors int    `json:"actors"`
	HTML   string `json:"html,omitempty"`
}

type screenshotResult struct {
	Path        string `json:"path"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MimeType    string `json:"mime_type"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type renderSphereResult struct {
	Color string `json:"color"`
	*render.EncodedImage
}

// =============================================================================
// Primitives
// =============================================================================

type sphereArgs struct {
	Radius          float64   `json:"radius,omitempty" jsonschema:"description=Sphere radius,default=0.5" validate:"gt=0"`
	Center          []float64 `json:"center,omitempty" jsonschema:"description=Center point as [x y z] (default origin)" validate:"omitempty,len=3"`
	ThetaResolution int       `json:"theta_resolution,omitempty" jsonschema:"description=Number of points around the polar axis,default=30" validate:"gte=3,lte=1024"`
	PhiResolution   int       `json:"phi_resolution,omitempty" jsonschema:"description=Number of latitude bands from pole to pole,default=30" validate:"gte=2,lte=1024"`
	OutputPath      string    `json:"output_path,omitempty" jsonschema:"description=Output mesh file (.stl .obj or .ply). Generated in the output directory when empty"`
}

func (a *sphereArgs) setDefaults() {
	if a.Radius == 0 {
		a.Radius = 0.5
	}
	if a.ThetaResolution == 0 {
		a.ThetaResolution = 30
	}
	if a.PhiResolution == 0 {
		a.PhiResolution = 30
	}
}

func (s *Server) handleSphere(ctx context.Context, a *sphereArgs) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mesh.Sphere(mesh.SphereOptions{
		Center:          vec3(a.Center, mgl64.Vec3{}),
		Radius:          a.Radius,
		ThetaResolution: a.ThetaResolution,
		PhiResolution:   a.PhiResolution,
	})
	if err != nil {
		return nil, err
	}
	return s.saveMesh(m, a.OutputPath, "sphere", ".stl")
}

type cubeArgs struct {
	Center     []float64 `json:"center,omitempty" jsonschema:"description=Center point as [x y z] (default origin)" validate:"omitempty,len=3"`
	XLength    float64   `json:"x_length,omitempty" jsonschema:"description=Length along X,default=1" validate:"gt=0"`
	YLength    float64   `json:"y_length,omitempty" jsonschema:"description=Length along Y,default=1" validate:"gt=0"`
	ZLength    float64   `json:"z_length,omitempty" jsonschema:"description=Length along Z,default=1" validate:"gt=0"`
	OutputPath string    `json:"output_path,omitempty" jsonschema:"description=Output mesh file (.stl .obj or .ply). Generated in the output directory when empty"`
}

func (a *cubeArgs) setDefaults() {
	if a.XLength == 0 {
		a.XLength = 1
	}
	if a.YLength == 0 {
		a.YLength = 1
	}
	if a.ZLength == 0 {
		a.ZLength = 1
	}
}

func (s *Server) handleCube(ctx context.Context, a *cubeArgs) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mesh.Cube(mesh.CubeOptions{
		Center:  vec3(a.Center, mgl64.Vec3{}),
		XLength: a.XLength,
		YLength: a.YLength,
		ZLength: a.ZLength,
	})
	if err != nil {
		return nil, err
	}
	return s.saveMesh(m, a.OutputPath, "cube", ".stl")
}

type cylinderArgs struct {
	Center     []float64 `json:"center,omitempty" jsonschema:"description=Center point as [x y z] (default origin)" validate:"omitempty,len=3"`
	Direction  []float64 `json:"direction,omitempty" jsonschema:"description=Axis direction as [x y z] (default [1 0 0])" validate:"omitempty,len=3"`
	Radius     float64   `json:"radius,omitempty" jsonschema:"description=Cylinder radius,default=0.5" validate:"gt=0"`
	Height     float64   `json:"height,omitempty" jsonschema:"description=Length along the axis,default=1" validate:"gt=0"`
	Resolution int       `json:"resolution,omitempty" jsonschema:"description=Number of points around the circumference,default=100" validate:"gte=3,lte=4096"`
	Capping    *bool     `json:"capping,omitempty" jsonschema:"description=Close both ends,default=true"`
	OutputPath string    `json:"output_path,omitempty" jsonschema:"description=Output mesh file (.stl .obj or .ply). Generated in the output directory when empty"`
}

func (a *cylinderArgs) setDefaults() {
	if a.Radius == 0 {
		a.Radius = 0.5
	}
	if a.Height == 0 {
		a.Height = 1
	}
	if a.Resolution == 0 {
		a.Resolution = 100
	}
	if a.Capping == nil {
		capping := true
		a.Capping = &capping
	}
}

func (s *Server) handleCylinder(ctx context.Context, a *cylinderArgs) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mesh.Cylinder(mesh.CylinderOptions{
		Center:     vec3(a.Center, mgl64.Vec3{}),
		Direction:  vec3(a.Direction, mgl64.Vec3{1, 0, 0}),
		Radius:     a.Radius,
		Height:     a.Height,
		Resolution: a.Resolution,
		Capping:    *a.Capping,
	})
	if err != nil {
		return nil, err
	}
	return s.saveMesh(m, a.OutputPath, "cylinder", ".stl")
}

// =============================================================================
// File I/O
// =============================================================================

type loadArgs struct {
	Path string `json:"path" jsonschema:"description=Mesh file to read (.stl .obj or .ply)" validate:"required"`
}

func (s *Server) handleLoad(_ context.Context, a *loadArgs) (interface{}, error) {
	path := s.resolvePath(a.Path)
	m, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	format, err := meshio.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat mesh")
	}
	return &loadResult{
		meshResult: meshResult{
			Path:    path,
			Format:  format,
			Summary: mesh.Summarize(m),
		},
		FileSizeBytes: stat.Size(),
	}, nil
}

type saveArgs struct {
	Path       string `json:"path" jsonschema:"description=Mesh file to read" validate:"required"`
	OutputPath string `json:"output_path" jsonschema:"description=Destination file. The extension (.stl .obj or .ply) selects the format" validate:"required"`
}

func (s *Server) handleSave(_ context.Context, a *saveArgs) (interface{}, error) {
	m, err := s.cache.Load(s.resolvePath(a.Path))
	if err != nil {
		return nil, err
	}
	return s.saveMesh(m, a.OutputPath, "mesh", ".stl")
}

// =============================================================================
// Filters
// =============================================================================

type triangulateArgs struct {
	Path       string `json:"path" jsonschema:"description=Mesh file to triangulate" validate:"required"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"description=Output mesh file. Generated in the output directory when empty"`
}

func (s *Server) handleTriangulate(ctx context.Context, a *triangulateArgs) (interface{}, error) {
	path := s.resolvePath(a.Path)
	m, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.saveMesh(mesh.Triangulate(m), a.OutputPath, "triangulated", extOf(path))
}

type transformArgs struct {
	Path       string    `json:"path" jsonschema:"description=Mesh file to transform" validate:"required"`
	Translate  []float64 `json:"translate,omitempty" jsonschema:"description=Offset as [x y z] applied after scaling" validate:"omitempty,len=3"`
	Scale      []float64 `json:"scale,omitempty" jsonschema:"description=Per axis scale factors as [x y z] (default [1 1 1])" validate:"omitempty,len=3"`
	OutputPath string    `json:"output_path,omitempty" jsonschema:"description=Output mesh file. Generated in the output directory when empty"`
}

func (a *transformArgs) setDefaults() {
	if len(a.Scale) == 0 {
		a.Scale = []float64{1, 1, 1}
	}
}

func (s *Server) handleTransform(ctx context.Context, a *transformArgs) (interface{}, error) {
	path := s.resolvePath(a.Path)
	m, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scaled, err := mesh.Scale(m, vec3(a.Scale, mgl64.Vec3{1, 1, 1}))
	if err != nil {
		return nil, err
	}
	out := mesh.Translate(scaled, vec3(a.Translate, mgl64.Vec3{}))
	return s.saveMesh(out, a.OutputPath, "transformed", extOf(path))
}

// =============================================================================
// Booleans
// =============================================================================

type booleanArgs struct {
	PathA      string `json:"path_a" jsonschema:"description=First operand mesh file" validate:"required"`
	PathB      string `json:"path_b" jsonschema:"description=Second operand mesh file" validate:"required"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"description=Output mesh file. Generated in the output directory when empty"`
}

// booleanHandler returns the tool handler for op. Both operands should be
// closed surfaces.
func (s *Server) booleanHandler(op mesh.Operation) func(context.Context, *booleanArgs) (interface{}, error) {
	return func(ctx context.Context, a *booleanArgs) (interface{}, error) {
		pathA := s.resolvePath(a.PathA)
		ma, err := s.cache.Load(pathA)
		if err != nil {
			return nil, errors.Wrap(err, "path_a")
		}
		mb, err := s.cache.Load(s.resolvePath(a.PathB))
		if err != nil {
			return nil, errors.Wrap(err, "path_b")
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		out, err := mesh.Boolean(op, ma, mb)
		if err != nil {
			return nil, err
		}
		logger.KV(xlog.DEBUG,
			"op", op,
			"faces_a", ma.NumFaces(),
			"faces_b", mb.NumFaces(),
			"faces_out", out.NumFaces(),
			"elapsed", time.Since(started).String())

		return s.saveMesh(out, a.OutputPath, string(op), extOf(pathA))
	}
}

// =============================================================================
// Plotting
// =============================================================================

type actorArgs struct {
	Path      string   `json:"path" jsonschema:"description=Mesh file to draw" validate:"required"`
	Color     string   `json:"color,omitempty" jsonschema:"description=Color name or hex string such as #ff8800 (default from config)"`
	Opacity   *float64 `json:"opacity,omitempty" jsonschema:"description=Opacity from 0 (hidden) to 1 (opaque),default=1" validate:"omitempty,gte=0,lte=1"`
	ShowEdges bool     `json:"show_edges,omitempty" jsonschema:"description=Outline every face"`
	Label     string   `json:"label,omitempty" jsonschema:"description=Legend label (default file name)"`
}

type plotArgs struct {
	Meshes     []actorArgs `json:"meshes" jsonschema:"description=Meshes to draw" validate:"required,min=1,dive"`
	Title      string      `json:"title,omitempty" jsonschema:"description=Page title"`
	OutputPath string      `json:"output_path,omitempty" jsonschema:"description=Output HTML file. Generated in the output directory when empty"`
	ReturnHTML bool        `json:"return_html,omitempty" jsonschema:"description=Include the HTML document in the result"`
}

func (s *Server) handlePlot(ctx context.Context, a *plotArgs) (interface{}, error) {
	scene, err := s.buildScene(a.Meshes)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scene.Title = a.Title

	html, err := render.ExportHTML(scene)
	if err != nil {
		return nil, err
	}

	path := s.outputPath(a.OutputPath, "plot", ".html")
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return nil, errors.Wrap(err, "failed to write html")
	}

	result := &plotResult{Path: path, Actors: len(scene.Actors)}
	if a.ReturnHTML {
		result.HTML = html
	}
	return result, nil
}

type screenshotArgs struct {
	Meshes       []actorArgs `json:"meshes" jsonschema:"description=Meshes to draw" validate:"required,min=1,dive"`
	Width        int         `json:"width,omitempty" jsonschema:"description=Image width in pixels (default from config)" validate:"gte=0,lte=4096"`
	Height       int         `json:"height,omitempty" jsonschema:"description=Image height in pixels (default from config)" validate:"gte=0,lte=4096"`
	Background   string      `json:"background,omitempty" jsonschema:"description=Background color name or hex string (default from config)"`
	OutputPath   string      `json:"output_path,omitempty" jsonschema:"description=Output image file (.png .jpg .gif .tif or .bmp). Generated in the output directory when empty"`
	ReturnBase64 bool        `json:"return_base64,omitempty" jsonschema:"description=Include the saved image as base64 in the result"`
}

func (s *Server) handleScreenshot(ctx context.Context, a *screenshotArgs) (interface{}, error) {
	scene, err := s.buildScene(a.Meshes)
	if err != nil {
		return nil, err
	}
	scene.Background = orDefault(a.Background, s.cfg.Render.Background)

	path := s.outputPath(a.OutputPath, "screenshot", ".png")
	mimeType, err := render.MimeType(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := render.Screenshot(scene, s.screenshotOptions(a.Width, a.Height))
	if err != nil {
		return nil, err
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	if err := render.SaveImage(path, img); err != nil {
		return nil, err
	}

	result := &screenshotResult{
		Path:     path,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		MimeType: mimeType,
	}
	if a.ReturnBase64 {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read image")
		}
		result.ImageBase64 = base64.StdEncoding.EncodeToString(b)
	}
	return result, nil
}

type renderSphereArgs struct {
	Color string `json:"color,omitempty" jsonschema:"description=Sphere color name or hex string,default=blue"`
}

func (a *renderSphereArgs) setDefaults() {
	if a.Color == "" {
		a.Color = "blue"
	}
}

func (s *Server) handleRenderSphere(ctx context.Context, a *renderSphereArgs) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mesh.Sphere(mesh.SphereOptions{Radius: 0.5, ThetaResolution: 30, PhiResolution: 30})
	if err != nil {
		return nil, err
	}
	scene := &render.Scene{Background: s.cfg.Render.Background}
	scene.Add(render.Actor{Mesh: m, Label: "sphere", Color: a.Color})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := render.Screenshot(scene, s.screenshotOptions(0, 0))
	if err != nil {
		return nil, err
	}
	enc, err := render.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &renderSphereResult{Color: a.Color, EncodedImage: enc}, nil
}

// =============================================================================
// Diagnostics
// =============================================================================

type helloArgs struct{}

type helloResult struct {
	Message string `json:"message"`
	Server  string `json:"server"`
	Version string `json:"version"`
}

func (s *Server) handleHello(_ context.Context, _ *helloArgs) (interface{}, error) {
	return &helloResult{Message: "Hello world!", Server: serverName, Version: s.version}, nil
}

// =============================================================================
// Helpers
// =============================================================================

// saveMesh writes m to the requested path, or to a generated one, and
// reports the result.
func (s *Server) saveMesh(m *mesh.Mesh, requested, kind, ext string) (*meshResult, error) {
	path := s.outputPath(requested, kind, ext)
	format, err := meshio.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Save(path, m); err != nil {
		return nil, err
	}
	logger.KV(xlog.DEBUG, "saved", path, "points", m.NumPoints(), "faces", m.NumFaces())
	return &meshResult{Path: path, Format: format, Summary: mesh.Summarize(m)}, nil
}

// buildScene loads every mesh named in items.
func (s *Server) buildScene(items []actorArgs) (*render.Scene, error) {
	scene := &render.Scene{
		Background:   s.cfg.Render.Background,
		DefaultColor: s.cfg.Render.MeshColor,
	}
	for i, it := range items {
		path := s.resolvePath(it.Path)
		m, err := s.cache.Load(path)
		if err != nil {
			return nil, errors.Wrapf(err, "meshes[%d]", i)
		}
		scene.Add(render.Actor{
			Mesh:      m,
			Label:     orDefault(it.Label, filepath.Base(path)),
			Color:     it.Color,
			Opacity:   it.Opacity,
			ShowEdges: it.ShowEdges,
		})
	}
	return scene, nil
}

func (s *Server) screenshotOptions(width, height int) render.ScreenshotOptions {
	if width == 0 {
		width = s.cfg.Render.Width
	}
	if height == 0 {
		height = s.cfg.Render.Height
	}
	return render.ScreenshotOptions{
		Width:       width,
		Height:      height,
		Supersample: s.cfg.Render.Supersample,
	}
}

// outputPath returns the resolved requested path, or a fresh
// <output_dir>/<kind>-<id><ext> when none was given.
func (s *Server) outputPath(requested, kind, ext string) string {
	if requested != "" {
		return s.resolvePath(requested)
	}
	name := fmt.Sprintf("%s-%s%s", kind, uuid.NewString()[:8], ext)
	return filepath.Join(s.cfg.OutputDir, name)
}

// resolvePath anchors relative paths at the output directory.
func (s *Server) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.cfg.OutputDir, p)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	return nil
}

// extOf keeps the input format for derived meshes.
func extOf(path string) string {
	if f, err := meshio.FormatFromPath(path); err == nil {
		return f.Extension()
	}
	return ".stl"
}

func vec3(v []float64, def mgl64.Vec3) mgl64.Vec3 {
	if len(v) != 3 {
		return def
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
