package render

import (
	"github.com/cockroachdb/errors"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

// Actor is a mesh placed in a scene with its display properties.
type Actor struct {
	Mesh *mesh.Mesh

	// Label is shown in HTML exports; optional.
	Label string

	// Color is a color name or hex string. Empty uses the scene default.
	Color string

	// Opacity in [0, 1]. Nil means fully opaque; zero hides the surface
	// but keeps its edges.
	Opacity *float64

	// ShowEdges outlines every face.
	ShowEdges bool
}

// Scene is the set of actors rendered together.
type Scene struct {
	Actors []Actor

	// Title is used by HTML exports.
	Title string

	// Background is a color name or hex string. Empty means white.
	Background string

	// DefaultColor applies to actors without a Color. Empty means
	// lightsteelblue.
	DefaultColor string
}

// Add appends an actor and returns the scene for chaining.
func (s *Scene) Add(a Actor) *Scene {
	s.Actors = append(s.Actors, a)
	return s
}

// Bounds returns the combined bounds of every non-empty actor.
func (s *Scene) Bounds() (mesh.Box, error) {
	var box mesh.Box
	found := false
	for _, a := range s.Actors {
		if a.Mesh == nil || a.Mesh.IsEmpty() {
			continue
		}
		b := a.Mesh.Bounds()
		if !found {
			box = b
			found = true
			continue
		}
		box = box.Union(b)
	}
	if !found {
		return mesh.Box{}, errors.Wrap(mesh.ErrEmptyMesh, "scene has nothing to render")
	}
	return box, nil
}

// resolved holds an actor with its colors parsed.
type resolved struct {
	Actor
	color   Color
	opacity float64
}

func (s *Scene) resolve() ([]resolved, Color, error) {
	bg, err := ParseColor(orDefault(s.Background, "white"))
	if err != nil {
		return nil, Color{}, errors.Wrap(err, "background")
	}

	out := make([]resolved, 0, len(s.Actors))
	for i, a := range s.Actors {
		if a.Mesh == nil || a.Mesh.IsEmpty() {
			continue
		}
		c, err := ParseColor(orDefault(a.Color, orDefault(s.DefaultColor, "lightsteelblue")))
		if err != nil {
			return nil, Color{}, errors.Wrapf(err, "actor %d", i)
		}
		opacity := 1.0
		if a.Opacity != nil {
			opacity = min(max(*a.Opacity, 0), 1)
		}
		out = append(out, resolved{Actor: a, color: c, opacity: opacity * c.Alpha})
	}
	return out, bg, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
