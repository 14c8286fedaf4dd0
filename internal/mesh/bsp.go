package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
)

// planeEpsilon is the distance under which a point is treated as lying on a
// splitting plane.
const planeEpsilon = 1e-5

// Point classification against a plane. Spanning is front|back.
const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

type plane struct {
	normal mgl64.Vec3
	w      float64
}

func (p *plane) flip() {
	p.normal = p.normal.Mul(-1)
	p.w = -p.w
}

// polygon is a convex planar polygon.
type polygon struct {
	vertices []mgl64.Vec3
	plane    plane
}

func (p *polygon) flip() {
	v := p.vertices
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
	p.plane.flip()
}

// split sorts poly into one of the four lists depending on which side of pl
// it lies. Spanning polygons are cut in two; coplanar ones go to the list
// matching their facing.
func (pl *plane) split(poly *polygon, coplanarFront, coplanarBack, fronts, backs *[]*polygon) {
	kind := coplanar
	types := make([]int, len(poly.vertices))
	for i, v := range poly.vertices {
		t := pl.normal.Dot(v) - pl.w
		typ := coplanar
		if t < -planeEpsilon {
			typ = back
		} else if t > planeEpsilon {
			typ = front
		}
		kind |= typ
		types[i] = typ
	}

	switch kind {
	case coplanar:
		if pl.normal.Dot(poly.plane.normal) > 0 {
			*coplanarFront = append(*coplanarFront, poly)
		} else {
			*coplanarBack = append(*coplanarBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	case spanning:
		n := len(poly.vertices)
		f := make([]mgl64.Vec3, 0, n+1)
		b := make([]mgl64.Vec3, 0, n+1)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.vertices[i], poly.vertices[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if (ti | tj) == spanning {
				edge := vj.Sub(vi)
				t := (pl.w - pl.normal.Dot(vi)) / pl.normal.Dot(edge)
				v := vi.Add(edge.Mul(t))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, &polygon{vertices: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, &polygon{vertices: b, plane: poly.plane})
		}
	}
}

// node is a BSP tree node. Polygons stored at a node are coplanar with its
// plane; front and back subtrees hold what lies on either side.
type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polys []*polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

// invert turns solid space into empty space and vice versa.
func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.plane != nil {
		n.plane.flip()
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside the solid
// represented by this tree.
func (n *node) clipPolygons(polys []*polygon) []*polygon {
	if n.plane == nil {
		return append([]*polygon(nil), polys...)
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &fronts, &backs, &fronts, &backs)
	}
	if n.front != nil {
		fronts = n.front.clipPolygons(fronts)
	}
	if n.back != nil {
		backs = n.back.clipPolygons(backs)
	} else {
		backs = nil
	}
	return append(fronts, backs...)
}

// clipTo removes every polygon in this tree that is inside other.
func (n *node) clipTo(other *node) {
	n.polygons = other.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *node) allPolygons() []*polygon {
	polys := append([]*polygon(nil), n.polygons...)
	if n.front != nil {
		polys = append(polys, n.front.allPolygons()...)
	}
	if n.back != nil {
		polys = append(polys, n.back.allPolygons()...)
	}
	return polys
}

// build inserts polys into the tree, using the first polygon's plane as the
// splitter for a fresh node.
func (n *node) build(polys []*polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		pl := polys[0].plane
		n.plane = &pl
	}
	var fronts, backs []*polygon
	for _, p := range polys {
		n.plane.split(p, &n.polygons, &n.polygons, &fronts, &backs)
	}
	if len(fronts) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(fronts)
	}
	if len(backs) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(backs)
	}
}
