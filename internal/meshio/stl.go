package meshio

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hschendel/stl"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

// stlWeldScale controls how close two STL vertices must be to merge. STL
// stores float32, so anything finer than ~1e-6 is noise.
const stlWeldScale = 1e6

func readSTL(path string) (*mesh.Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, err
	}

	index := make(map[[3]int64]int)
	m := &mesh.Mesh{Faces: make([][]int, 0, len(solid.Triangles))}
	for _, tri := range solid.Triangles {
		face := make([]int, 3)
		for i, v := range tri.Vertices {
			p := mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
			key := [3]int64{
				int64(math.Round(p[0] * stlWeldScale)),
				int64(math.Round(p[1] * stlWeldScale)),
				int64(math.Round(p[2] * stlWeldScale)),
			}
			idx, ok := index[key]
			if !ok {
				idx = len(m.Points)
				index[key] = idx
				m.Points = append(m.Points, p)
			}
			face[i] = idx
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}

func writeSTL(path string, m *mesh.Mesh) error {
	tri := mesh.Triangulate(m)
	solid := &stl.Solid{
		Name:      "mesh-tools-mcp",
		Triangles: make([]stl.Triangle, len(tri.Faces)),
	}
	for i, f := range tri.Faces {
		n := tri.FaceNormal(i)
		t := stl.Triangle{Normal: toSTLVec(n)}
		for j := 0; j < 3; j++ {
			t.Vertices[j] = toSTLVec(tri.Points[f[j]])
		}
		solid.Triangles[i] = t
	}
	return solid.WriteFile(path)
}

func toSTLVec(v mgl64.Vec3) stl.Vec3 {
	return stl.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}
