package mesh

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolean_OverlappingCubes(t *testing.T) {
	a := unitCube(t, mgl64.Vec3{})
	b := unitCube(t, mgl64.Vec3{0.5, 0, 0})

	tests := []struct {
		op         Operation
		wantVolume float64
		wantMinX   float64
		wantMaxX   float64
	}{
		{OpUnion, 1.5, -0.5, 1.0},
		{OpIntersection, 0.5, 0.0, 0.5},
		{OpDifference, 0.5, -0.5, 0.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			m, err := Boolean(tt.op, a, b)
			require.NoError(t, err)
			require.False(t, m.IsEmpty())

			assert.True(t, m.IsTriangulated())
			assert.NoError(t, m.Validate())
			assert.InDelta(t, tt.wantVolume, m.Volume(), 1e-6)

			bounds := m.Bounds()
			assert.InDelta(t, tt.wantMinX, bounds.Min[0], 1e-6)
			assert.InDelta(t, tt.wantMaxX, bounds.Max[0], 1e-6)
		})
	}

	// operands are not modified
	assert.Equal(t, 6, a.NumFaces())
	assert.InDelta(t, 1.0, b.Volume(), 1e-9)
}

func TestUnion_Disjoint(t *testing.T) {
	a := unitCube(t, mgl64.Vec3{})
	s, err := Sphere(SphereOptions{Center: mgl64.Vec3{5, 0, 0}, Radius: 1, ThetaResolution: 16, PhiResolution: 16})
	require.NoError(t, err)

	m, err := Union(a, s)
	require.NoError(t, err)

	assert.InDelta(t, a.Volume()+s.Volume(), m.Volume(), 1e-6)
	bounds := m.Bounds()
	assert.InDelta(t, -0.5, bounds.Min[0], 1e-6)
	assert.InDelta(t, 6.0, bounds.Max[0], 1e-6)
}

func TestIntersection_Disjoint(t *testing.T) {
	a := unitCube(t, mgl64.Vec3{})
	b := unitCube(t, mgl64.Vec3{3, 0, 0})

	m, err := Intersection(a, b)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestDifference_SphereMinusCube(t *testing.T) {
	s, err := Sphere(SphereOptions{Radius: 0.5, ThetaResolution: 24, PhiResolution: 24})
	require.NoError(t, err)
	c := unitCube(t, mgl64.Vec3{0.5, 0.5, 0.5})

	m, err := Difference(s, c)
	require.NoError(t, err)

	// removes roughly one octant
	ratio := m.Volume() / s.Volume()
	assert.InDelta(t, 7.0/8.0, ratio, 0.01)
	assert.LessOrEqual(t, m.Bounds().Max[0], 0.5+1e-9)
}

func TestDifference_Contained(t *testing.T) {
	outer, err := Cube(CubeOptions{XLength: 2, YLength: 2, ZLength: 2})
	require.NoError(t, err)
	inner := unitCube(t, mgl64.Vec3{})

	m, err := Difference(outer, inner)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, m.Volume(), 1e-6)

	m, err = Difference(inner, outer)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, math.Abs(m.Volume()), 1e-6)
}

func TestBoolean_EmptyOperands(t *testing.T) {
	a := unitCube(t, mgl64.Vec3{})
	empty := &Mesh{}

	m, err := Union(empty, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Volume(), 1e-9)

	m, err = Intersection(a, empty)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())

	m, err = Difference(a, empty)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Volume(), 1e-9)

	m, err = Difference(empty, a)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestBoolean_Errors(t *testing.T) {
	a := unitCube(t, mgl64.Vec3{})

	_, err := Boolean("xor", a, a)
	assert.Error(t, err)

	_, err = Union(a, nil)
	assert.Error(t, err)

	bad := New([]mgl64.Vec3{{0, 0, 0}}, [][]int{{0, 1, 2}})
	_, err = Difference(a, bad)
	assert.Error(t, err)
}
