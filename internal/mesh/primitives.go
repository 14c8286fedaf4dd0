package mesh

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// SphereOptions describes a UV sphere.
type SphereOptions struct {
	Center mgl64.Vec3
	Radius float64
	// ThetaResolution is the number of points around the Z axis (longitude).
	ThetaResolution int
	// PhiResolution is the number of latitude bands from pole to pole.
	PhiResolution int
}

// Sphere builds a closed, outward oriented sphere made of triangles.
//
// The poles lie on the Z axis through the center. ThetaResolution must be at
// least 3 and PhiResolution at least 2.
func Sphere(opts SphereOptions) (*Mesh, error) {
	if opts.Radius <= 0 {
		return nil, errors.Newf("sphere radius must be positive, got %g", opts.Radius)
	}
	if opts.ThetaResolution < 3 {
		return nil, errors.Newf("theta resolution must be >= 3, got %d", opts.ThetaResolution)
	}
	if opts.PhiResolution < 2 {
		return nil, errors.Newf("phi resolution must be >= 2, got %d", opts.PhiResolution)
	}

	nt, np := opts.ThetaResolution, opts.PhiResolution
	c, r := opts.Center, opts.Radius

	points := make([]mgl64.Vec3, 0, 2+(np-1)*nt)
	points = append(points, c.Add(mgl64.Vec3{0, 0, r}), c.Add(mgl64.Vec3{0, 0, -r}))
	for i := 1; i < np; i++ {
		phi := math.Pi * float64(i) / float64(np)
		sp, cp := math.Sincos(phi)
		for j := 0; j < nt; j++ {
			theta := 2 * math.Pi * float64(j) / float64(nt)
			st, ct := math.Sincos(theta)
			points = append(points, c.Add(mgl64.Vec3{r * sp * ct, r * sp * st, r * cp}))
		}
	}

	ring := func(i, j int) int {
		return 2 + (i-1)*nt + j%nt
	}

	faces := make([][]int, 0, 2*nt*(np-1))
	for j := 0; j < nt; j++ {
		faces = append(faces, []int{0, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < np-1; i++ {
		for j := 0; j < nt; j++ {
			a, b, cc, d := ring(i, j), ring(i+1, j), ring(i+1, j+1), ring(i, j+1)
			faces = append(faces, []int{a, b, cc}, []int{a, cc, d})
		}
	}
	for j := 0; j < nt; j++ {
		faces = append(faces, []int{1, ring(np-1, j+1), ring(np-1, j)})
	}

	return &Mesh{Points: points, Faces: faces}, nil
}

// CubeOptions describes an axis aligned box.
type CubeOptions struct {
	Center  mgl64.Vec3
	XLength float64
	YLength float64
	ZLength float64
}

// Cube builds an axis aligned box with six quadrilateral faces.
func Cube(opts CubeOptions) (*Mesh, error) {
	if opts.XLength <= 0 || opts.YLength <= 0 || opts.ZLength <= 0 {
		return nil, errors.Newf("cube edge lengths must be positive, got (%g, %g, %g)",
			opts.XLength, opts.YLength, opts.ZLength)
	}

	half := mgl64.Vec3{opts.XLength / 2, opts.YLength / 2, opts.ZLength / 2}
	points := make([]mgl64.Vec3, 8)
	// bit 0 selects +x, bit 1 +y, bit 2 +z
	for i := range points {
		var p mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				p[axis] = half[axis]
			} else {
				p[axis] = -half[axis]
			}
		}
		points[i] = opts.Center.Add(p)
	}

	faces := [][]int{
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
	}
	return &Mesh{Points: points, Faces: faces}, nil
}

// CylinderOptions describes a cylinder around an arbitrary axis.
type CylinderOptions struct {
	Center    mgl64.Vec3
	Direction mgl64.Vec3
	Radius    float64
	Height    float64
	// Resolution is the number of points around the circumference.
	Resolution int
	// Capping closes both ends with a polygon.
	Capping bool
}

// Cylinder builds a cylinder whose axis passes through Center along
// Direction. The side is made of quads; caps, when enabled, are single
// polygons.
func Cylinder(opts CylinderOptions) (*Mesh, error) {
	if opts.Radius <= 0 || opts.Height <= 0 {
		return nil, errors.Newf("cylinder radius and height must be positive, got %g and %g", opts.Radius, opts.Height)
	}
	if opts.Resolution < 3 {
		return nil, errors.Newf("cylinder resolution must be >= 3, got %d", opts.Resolution)
	}
	if opts.Direction.Len() == 0 {
		return nil, errors.New("cylinder direction must be non-zero")
	}

	d := opts.Direction.Normalize()
	u, w := basis(d)
	n := opts.Resolution
	h := opts.Height / 2

	points := make([]mgl64.Vec3, 0, 2*n)
	for _, z := range []float64{-h, h} {
		for j := 0; j < n; j++ {
			st, ct := math.Sincos(2 * math.Pi * float64(j) / float64(n))
			p := u.Mul(opts.Radius * ct).Add(w.Mul(opts.Radius * st)).Add(d.Mul(z))
			points = append(points, opts.Center.Add(p))
		}
	}

	faces := make([][]int, 0, n+2)
	for j := 0; j < n; j++ {
		k := (j + 1) % n
		faces = append(faces, []int{j, k, n + k, n + j})
	}
	if opts.Capping {
		top := make([]int, n)
		bottom := make([]int, n)
		for j := 0; j < n; j++ {
			top[j] = n + j
			bottom[j] = n - 1 - j
		}
		faces = append(faces, top, bottom)
	}
	return &Mesh{Points: points, Faces: faces}, nil
}

// basis returns two unit vectors u, w such that (u, w, d) is a right-handed
// orthonormal frame.
func basis(d mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	ref := mgl64.Vec3{0, 0, 1}
	if math.Abs(d.Dot(ref)) > 0.9 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	u := ref.Sub(d.Mul(ref.Dot(d))).Normalize()
	w := d.Cross(u)
	return u, w
}
