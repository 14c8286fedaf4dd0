package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Box is an axis aligned bounding box.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Center returns the midpoint of the box.
func (b Box) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge lengths of the box.
func (b Box) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], o.Min[i])
		b.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return b
}

// Bounds returns the bounding box of all points.
// An empty mesh yields the zero box.
func (m *Mesh) Bounds() Box {
	if len(m.Points) == 0 {
		return Box{}
	}
	b := Box{Min: m.Points[0], Max: m.Points[0]}
	for _, p := range m.Points[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], p[i])
			b.Max[i] = math.Max(b.Max[i], p[i])
		}
	}
	return b
}

// Center returns the average of all points.
func (m *Mesh) Center() mgl64.Vec3 {
	var c mgl64.Vec3
	if len(m.Points) == 0 {
		return c
	}
	for _, p := range m.Points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(m.Points)))
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var area float64
	for _, f := range m.Faces {
		for j := 1; j+1 < len(f); j++ {
			area += triangleArea(m.Points[f[0]], m.Points[f[j]], m.Points[f[j+1]])
		}
	}
	return area
}

// Volume returns the signed enclosed volume. It is only meaningful for closed
// surfaces; outward oriented meshes have positive volume.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, f := range m.Faces {
		for j := 1; j+1 < len(f); j++ {
			a, b, c := m.Points[f[0]], m.Points[f[j]], m.Points[f[j+1]]
			vol += a.Dot(b.Cross(c))
		}
	}
	return vol / 6
}

// Summary is a JSON friendly description of a mesh.
type Summary struct {
	// NumPoints is the number of points in the mesh.
	NumPoints int `json:"n_points"`

	// NumFaces is the number of polygonal faces.
	NumFaces int `json:"n_faces"`

	// Triangulated is true when every face is a triangle.
	Triangulated bool `json:"triangulated"`

	// Bounds is [xmin, xmax, ymin, ymax, zmin, zmax].
	Bounds [6]float64 `json:"bounds"`

	// Center is the average point position.
	Center [3]float64 `json:"center"`

	Area   float64 `json:"area"`
	Volume float64 `json:"volume"`
}

// Summarize computes a Summary for m.
func Summarize(m *Mesh) Summary {
	b := m.Bounds()
	c := m.Center()
	return Summary{
		NumPoints:    m.NumPoints(),
		NumFaces:     m.NumFaces(),
		Triangulated: m.IsTriangulated(),
		Bounds:       [6]float64{b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2]},
		Center:       [3]float64{c[0], c[1], c[2]},
		Area:         round(m.Area()),
		Volume:       round(m.Volume()),
	}
}

// round trims floating point noise for reporting.
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
