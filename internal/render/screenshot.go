package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/transform"
	"github.com/cockroachdb/errors"
	"github.com/disintegration/imaging"
	"github.com/go-gl/mathgl/mgl64"
)

// ScreenshotOptions controls raster output size.
type ScreenshotOptions struct {
	Width  int
	Height int
	// Supersample renders at this multiple of the size before downscaling.
	// Values below 1 are treated as 1. It is lowered when the supersampled
	// frame would exceed MaxPixels.
	Supersample int
}

// MaxPixels bounds the framebuffer a single screenshot may allocate,
// supersampling included.
const MaxPixels = 4096 * 4096

const (
	ambient   = 0.3
	edgeDepth = 1e-2
)

var edgeColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}

// Screenshot rasterizes the scene.
//
// Opaque actors are drawn first with depth writes; translucent actors are
// blended on top afterwards, tested against but not writing depth.
func Screenshot(scene *Scene, opts ScreenshotOptions) (*image.RGBA, error) {
	ss, err := supersample(opts)
	if err != nil {
		return nil, err
	}

	box, err := scene.Bounds()
	if err != nil {
		return nil, err
	}
	actors, bg, err := scene.resolve()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(actors, func(i, j int) bool {
		return actors[i].opacity >= 1 && actors[j].opacity < 1
	})

	w, h := opts.Width*ss, opts.Height*ss
	cam := fitCamera(box, w, h)
	fb := newFramebuffer(w, h, bg.rgba())

	for _, a := range actors {
		fb.drawMesh(cam, a)
	}

	if ss == 1 {
		return fb.img, nil
	}
	return transform.Resize(fb.img, opts.Width, opts.Height, transform.Linear), nil
}

// supersample validates the requested size and returns the largest
// supersample factor, up to the requested one, that fits in MaxPixels.
func supersample(opts ScreenshotOptions) (int, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return 0, errors.Newf("screenshot size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	pixels := int64(opts.Width) * int64(opts.Height)
	if pixels > MaxPixels {
		return 0, errors.Newf("screenshot size %dx%d exceeds %d pixels", opts.Width, opts.Height, MaxPixels)
	}
	ss := int64(max(opts.Supersample, 1))
	for ss > 1 && pixels*ss*ss > MaxPixels {
		ss--
	}
	return int(ss), nil
}

type framebuffer struct {
	img   *image.RGBA
	depth []float64
	w, h  int
}

func newFramebuffer(w, h int, bg color.RGBA) *framebuffer {
	fb := &framebuffer{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float64, w*h),
		w:     w,
		h:     h,
	}
	for i := range fb.depth {
		fb.depth[i] = math.Inf(1)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fb.img.SetRGBA(x, y, bg)
		}
	}
	return fb
}

func (fb *framebuffer) drawMesh(cam camera, a resolved) {
	m := a.Mesh
	projected := make([]mgl64.Vec3, len(m.Points))
	visible := make([]bool, len(m.Points))
	for i, p := range m.Points {
		projected[i], visible[i] = cam.project(p)
	}

	opaque := a.opacity >= 1
	faces := m.Faces
	if a.opacity <= 0 {
		faces = nil
	}
	for i, f := range faces {
		if len(f) < 3 {
			continue
		}
		n := m.FaceNormal(i)
		light := cam.eye.Sub(m.Points[f[0]]).Normalize()
		intensity := ambient + (1-ambient)*math.Abs(n.Dot(light))
		c := a.color.shade(intensity)

		for j := 1; j+1 < len(f); j++ {
			i0, i1, i2 := f[0], f[j], f[j+1]
			if !visible[i0] || !visible[i1] || !visible[i2] {
				continue
			}
			fb.fillTriangle(projected[i0], projected[i1], projected[i2], c, a.opacity, opaque)
		}
	}

	if !a.ShowEdges {
		return
	}
	for _, f := range m.Faces {
		for j := range f {
			p, q := f[j], f[(j+1)%len(f)]
			if visible[p] && visible[q] {
				fb.drawLine(projected[p], projected[q])
			}
		}
	}
}

func edge(a, b, p mgl64.Vec3) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

func (fb *framebuffer) fillTriangle(v0, v1, v2 mgl64.Vec3, c color.RGBA, opacity float64, writeDepth bool) {
	area := edge(v0, v1, v2)
	if area == 0 {
		return
	}

	minX := max(int(math.Floor(min(v0[0], v1[0], v2[0]))), 0)
	maxX := min(int(math.Ceil(max(v0[0], v1[0], v2[0]))), fb.w-1)
	minY := max(int(math.Floor(min(v0[1], v1[1], v2[1]))), 0)
	maxY := min(int(math.Ceil(max(v0[1], v1[1], v2[1]))), fb.h-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := mgl64.Vec3{float64(x) + 0.5, float64(y) + 0.5, 0}
			w0 := edge(v1, v2, p) / area
			w1 := edge(v2, v0, p) / area
			w2 := edge(v0, v1, p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*v0[2] + w1*v1[2] + w2*v2[2]
			idx := y*fb.w + x
			if z >= fb.depth[idx] {
				continue
			}
			if writeDepth {
				fb.depth[idx] = z
				fb.img.SetRGBA(x, y, c)
				continue
			}
			fb.img.SetRGBA(x, y, blend(fb.img.RGBAAt(x, y), c, opacity))
		}
	}
}

// drawLine draws a depth tested segment, letting edges that lie on a visible
// surface win over it.
func (fb *framebuffer) drawLine(a, b mgl64.Vec3) {
	steps := int(math.Ceil(math.Max(math.Abs(b[0]-a[0]), math.Abs(b[1]-a[1]))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(a[0] + (b[0]-a[0])*t)
		y := int(a[1] + (b[1]-a[1])*t)
		if x < 0 || y < 0 || x >= fb.w || y >= fb.h {
			continue
		}
		z := a[2] + (b[2]-a[2])*t
		idx := y*fb.w + x
		if z <= fb.depth[idx]+edgeDepth {
			fb.img.SetRGBA(x, y, edgeColor)
		}
	}
}

func blend(dst, src color.RGBA, alpha float64) color.RGBA {
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d)*(1-alpha) + float64(s)*alpha))
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 255}
}

// EncodedImage is a base64 PNG ready to embed in a tool result.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

var mimeTypes = map[imaging.Format]string{
	imaging.JPEG: "image/jpeg",
	imaging.PNG:  "image/png",
	imaging.GIF:  "image/gif",
	imaging.TIFF: "image/tiff",
	imaging.BMP:  "image/bmp",
}

// MimeType returns the MIME type SaveImage produces for path.
func MimeType(path string) (string, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return "", errors.Wrapf(err, "unsupported image file %s", path)
	}
	return mimeTypes[f], nil
}

// SaveImage writes img to path. The format follows the extension (png, jpg,
// gif, tif or bmp).
func SaveImage(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "failed to save image %s", path)
	}
	return nil
}
