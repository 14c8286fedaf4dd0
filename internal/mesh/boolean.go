package mesh

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// Operation names a boolean set operation.
type Operation string

// Supported boolean operations.
const (
	OpUnion        Operation = "union"
	OpIntersection Operation = "intersection"
	OpDifference   Operation = "difference"
)

// Boolean applies op to a and b.
func Boolean(op Operation, a, b *Mesh) (*Mesh, error) {
	switch op {
	case OpUnion:
		return Union(a, b)
	case OpIntersection:
		return Intersection(a, b)
	case OpDifference:
		return Difference(a, b)
	default:
		return nil, errors.Newf("unknown boolean operation: %s", op)
	}
}

// Union returns the region covered by a or b.
func Union(a, b *Mesh) (*Mesh, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	switch {
	case a.IsEmpty():
		return Triangulate(b), nil
	case b.IsEmpty():
		return Triangulate(a), nil
	}

	na, nb := newNode(toPolygons(a)), newNode(toPolygons(b))
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	return fromPolygons(na.allPolygons()), nil
}

// Intersection returns the region covered by both a and b.
func Intersection(a, b *Mesh) (*Mesh, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	if a.IsEmpty() || b.IsEmpty() {
		return &Mesh{}, nil
	}

	na, nb := newNode(toPolygons(a)), newNode(toPolygons(b))
	na.invert()
	nb.clipTo(na)
	nb.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	na.build(nb.allPolygons())
	na.invert()
	return fromPolygons(na.allPolygons()), nil
}

// Difference returns the region covered by a but not by b.
func Difference(a, b *Mesh) (*Mesh, error) {
	if err := checkOperands(a, b); err != nil {
		return nil, err
	}
	switch {
	case a.IsEmpty():
		return &Mesh{}, nil
	case b.IsEmpty():
		return Triangulate(a), nil
	}

	na, nb := newNode(toPolygons(a)), newNode(toPolygons(b))
	na.invert()
	na.clipTo(nb)
	nb.clipTo(na)
	nb.invert()
	nb.clipTo(na)
	nb.invert()
	na.build(nb.allPolygons())
	na.invert()
	return fromPolygons(na.allPolygons()), nil
}

func checkOperands(a, b *Mesh) error {
	if a == nil || b == nil {
		return errors.New("boolean operands must not be nil")
	}
	if err := a.Validate(); err != nil {
		return errors.Wrap(err, "first operand")
	}
	if err := b.Validate(); err != nil {
		return errors.Wrap(err, "second operand")
	}
	return nil
}

// toPolygons converts faces into BSP polygons. Non-planar faces are
// triangulated first so every polygon is planar.
func toPolygons(m *Mesh) []*polygon {
	src := m
	if !m.IsTriangulated() {
		src = Triangulate(m)
	}
	polys := make([]*polygon, 0, len(src.Faces))
	for i, f := range src.Faces {
		if len(f) < 3 {
			continue
		}
		n := src.FaceNormal(i)
		if n.Len() == 0 {
			continue
		}
		verts := make([]mgl64.Vec3, len(f))
		for j, idx := range f {
			verts[j] = src.Points[idx]
		}
		polys = append(polys, &polygon{
			vertices: verts,
			plane:    plane{normal: n, w: n.Dot(verts[0])},
		})
	}
	return polys
}

// weldScale quantizes coordinates when merging coincident points.
const weldScale = 1e6

// fromPolygons builds a welded, triangulated mesh from BSP output.
func fromPolygons(polys []*polygon) *Mesh {
	index := make(map[[3]int64]int)
	m := &Mesh{}
	for _, p := range polys {
		face := make([]int, 0, len(p.vertices))
		for _, v := range p.vertices {
			key := [3]int64{
				int64(math.Round(v[0] * weldScale)),
				int64(math.Round(v[1] * weldScale)),
				int64(math.Round(v[2] * weldScale)),
			}
			idx, ok := index[key]
			if !ok {
				idx = len(m.Points)
				index[key] = idx
				m.Points = append(m.Points, v)
			}
			if len(face) > 0 && face[len(face)-1] == idx {
				continue
			}
			face = append(face, idx)
		}
		if len(face) > 1 && face[0] == face[len(face)-1] {
			face = face[:len(face)-1]
		}
		if len(face) >= 3 {
			m.Faces = append(m.Faces, face)
		}
	}
	return Triangulate(m)
}
