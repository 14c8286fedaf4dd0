package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

const fieldOfView = 30.0 // degrees, vertical

var (
	viewDirection = mgl64.Vec3{1, 1, 1}
	viewUp        = mgl64.Vec3{0, 0, 1}
)

type camera struct {
	eye    mgl64.Vec3
	center mgl64.Vec3
	mvp    mgl64.Mat4
	width  float64
	height float64
}

// fitCamera places an isometric camera so the bounding sphere of box fits
// the viewport.
func fitCamera(box mesh.Box, width, height int) camera {
	center := box.Center()
	radius := box.Size().Len() / 2
	if radius == 0 {
		radius = 1
	}

	aspect := float64(width) / float64(height)
	half := mgl64.DegToRad(fieldOfView) / 2
	if aspect < 1 {
		half = math.Atan(math.Tan(half) * aspect)
	}
	dist := radius / math.Sin(half) * 1.05

	eye := center.Add(viewDirection.Normalize().Mul(dist))
	view := mgl64.LookAtV(eye, center, viewUp)
	near := math.Max(dist-radius*1.5, dist*0.01)
	proj := mgl64.Perspective(mgl64.DegToRad(fieldOfView), aspect, near, dist+radius*1.5)

	return camera{
		eye:    eye,
		center: center,
		mvp:    proj.Mul4(view),
		width:  float64(width),
		height: float64(height),
	}
}

// project maps a world point to pixel coordinates and NDC depth. ok is false
// for points behind the camera.
func (c camera) project(p mgl64.Vec3) (v mgl64.Vec3, ok bool) {
	clip := c.mvp.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return mgl64.Vec3{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip[3])
	return mgl64.Vec3{
		(ndc[0] + 1) * 0.5 * c.width,
		(1 - ndc[1]) * 0.5 * c.height,
		ndc[2],
	}, true
}

// orientation returns the X3D axis-angle rotation that turns the default
// X3D view direction (0, 0, -1) toward the scene center.
func (c camera) orientation() (mgl64.Vec3, float64) {
	d := c.center.Sub(c.eye).Normalize()
	from := mgl64.Vec3{0, 0, -1}
	axis := from.Cross(d)
	if axis.Len() < 1e-9 {
		return mgl64.Vec3{0, 1, 0}, 0
	}
	angle := math.Acos(mgl64.Clamp(from.Dot(d), -1, 1))
	return axis.Normalize(), angle
}
