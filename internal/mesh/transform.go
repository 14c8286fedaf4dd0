package mesh

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// Translate returns a copy of m moved by offset.
func Translate(m *Mesh, offset mgl64.Vec3) *Mesh {
	out := m.Clone()
	for i, p := range out.Points {
		out.Points[i] = p.Add(offset)
	}
	return out
}

// Scale returns a copy of m scaled per axis about the origin.
//
// A negative factor on an odd number of axes mirrors the mesh; face winding
// is reversed in that case so the result stays outward oriented.
func Scale(m *Mesh, factors mgl64.Vec3) (*Mesh, error) {
	if factors[0] == 0 || factors[1] == 0 || factors[2] == 0 {
		return nil, errors.Newf("scale factors must be non-zero, got %v", factors)
	}
	out := m.Clone()
	for i, p := range out.Points {
		out.Points[i] = mgl64.Vec3{p[0] * factors[0], p[1] * factors[1], p[2] * factors[2]}
	}
	if factors[0]*factors[1]*factors[2] < 0 {
		flip(out)
	}
	return out, nil
}

// flip reverses the winding of every face in place.
func flip(m *Mesh) {
	for _, f := range m.Faces {
		for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
			f[i], f[j] = f[j], f[i]
		}
	}
}
