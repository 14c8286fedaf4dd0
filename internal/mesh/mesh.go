package mesh

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrEmptyMesh is returned by operations that need at least one face.
var ErrEmptyMesh = errors.New("mesh has no faces")

// Mesh is a polygonal surface.
//
// Faces hold indices into Points. A face with fewer than three indices is
// ignored by measurements and dropped by Triangulate.
type Mesh struct {
	Points []mgl64.Vec3
	Faces  [][]int
}

// New returns a mesh over the given points and faces without copying them.
func New(points []mgl64.Vec3, faces [][]int) *Mesh {
	return &Mesh{Points: points, Faces: faces}
}

// NumPoints returns the number of points.
func (m *Mesh) NumPoints() int {
	if m == nil {
		return 0
	}
	return len(m.Points)
}

// NumFaces returns the number of faces.
func (m *Mesh) NumFaces() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return m.NumFaces() == 0
}

// IsTriangulated reports whether every face is a triangle.
func (m *Mesh) IsTriangulated() bool {
	for _, f := range m.Faces {
		if len(f) != 3 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of m.
func (m *Mesh) Clone() *Mesh {
	points := make([]mgl64.Vec3, len(m.Points))
	copy(points, m.Points)
	faces := make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = append([]int(nil), f...)
	}
	return &Mesh{Points: points, Faces: faces}
}

// Validate checks that every face index refers to an existing point.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Points) {
				return errors.Newf("face %d references point %d, mesh has %d points", i, idx, len(m.Points))
			}
		}
	}
	return nil
}

// FaceNormal returns the unit normal of face i using Newell's method.
// Degenerate faces yield the zero vector.
func (m *Mesh) FaceNormal(i int) mgl64.Vec3 {
	f := m.Faces[i]
	var n mgl64.Vec3
	for j := range f {
		cur := m.Points[f[j]]
		next := m.Points[f[(j+1)%len(f)]]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	if n.Len() == 0 {
		return n
	}
	return n.Normalize()
}

// Triangulate splits every polygon into a triangle fan.
//
// Faces are assumed convex, which holds for every mesh produced by this
// package. Triangles with zero area are dropped.
func Triangulate(m *Mesh) *Mesh {
	out := &Mesh{Points: append([]mgl64.Vec3(nil), m.Points...)}
	out.Faces = make([][]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		for j := 1; j+1 < len(f); j++ {
			tri := []int{f[0], f[j], f[j+1]}
			if triangleArea(m.Points[tri[0]], m.Points[tri[1]], m.Points[tri[2]]) <= degenerateArea {
				continue
			}
			out.Faces = append(out.Faces, tri)
		}
	}
	return out
}

// degenerateArea is the area below which a triangle is considered a sliver.
const degenerateArea = 1e-12

func triangleArea(a, b, c mgl64.Vec3) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Len() / 2
}

// Merge concatenates meshes into one without welding points.
func Merge(meshes ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		offset := len(out.Points)
		out.Points = append(out.Points, m.Points...)
		for _, f := range m.Faces {
			nf := make([]int, len(f))
			for i, idx := range f {
				nf[i] = idx + offset
			}
			out.Faces = append(out.Faces, nf)
		}
	}
	return out
}
