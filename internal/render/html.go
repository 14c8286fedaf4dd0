package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
)

const x3domVersion = "1.8.3"

var sceneTemplate = template.Must(template.New("scene").Funcs(sprig.HtmlFuncMap()).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="generator" content="mesh-tools-mcp">
<title>{{ .Title | default "Mesh scene" }}</title>
<script type="text/javascript" src="https://www.x3dom.org/download/{{ .X3DOMVersion }}/x3dom.js"></script>
<link rel="stylesheet" type="text/css" href="https://www.x3dom.org/download/{{ .X3DOMVersion }}/x3dom.css">
<style>
body { margin: 0; font-family: sans-serif; }
x3d { width: 100vw; height: 100vh; border: none; display: block; }
#legend { position: absolute; top: 8px; left: 8px; background: rgba(255,255,255,0.8); padding: 4px 8px; font-size: 12px; }
</style>
</head>
<body>
<div id="legend">
<strong>{{ .Title | default "Mesh scene" }}</strong>
{{- range .Actors }}
<div>{{ .Label | default "mesh" }}: {{ .NumPoints }} points, {{ .NumFaces }} faces</div>
{{- end }}
</div>
<x3d>
<scene>
<background skyColor="{{ .Background }}"></background>
<viewpoint position="{{ .Eye }}" orientation="{{ .Orientation }}" centerOfRotation="{{ .Center }}"></viewpoint>
{{- range .Actors }}
<shape>
<appearance><material diffuseColor="{{ .Diffuse }}" transparency="{{ .Transparency }}"></material></appearance>
<indexedFaceSet solid="false" coordIndex="{{ .CoordIndex | join " " }}"><coordinate point="{{ .Points | join " " }}"></coordinate></indexedFaceSet>
</shape>
{{- if .ShowEdges }}
<shape>
<appearance><material emissiveColor="0 0 0"></material></appearance>
<indexedLineSet coordIndex="{{ .EdgeIndex | join " " }}"><coordinate point="{{ .Points | join " " }}"></coordinate></indexedLineSet>
</shape>
{{- end }}
{{- end }}
</scene>
</x3d>
</body>
</html>
`))

type htmlActor struct {
	Label        string
	NumPoints    int
	NumFaces     int
	Diffuse      string
	Transparency string
	Points       []string
	CoordIndex   []string
	EdgeIndex    []string
	ShowEdges    bool
}

type htmlScene struct {
	Title        string
	X3DOMVersion string
	Background   string
	Eye          string
	Orientation  string
	Center       string
	Actors       []htmlActor
}

// ExportHTML renders the scene as a standalone X3DOM page.
func ExportHTML(scene *Scene) (string, error) {
	box, err := scene.Bounds()
	if err != nil {
		return "", err
	}
	actors, bg, err := scene.resolve()
	if err != nil {
		return "", err
	}

	cam := fitCamera(box, 4, 3)
	axis, angle := cam.orientation()
	data := htmlScene{
		Title:        scene.Title,
		X3DOMVersion: x3domVersion,
		Background:   bg.X3D(),
		Eye:          vec(cam.eye[0], cam.eye[1], cam.eye[2]),
		Orientation:  vec(axis[0], axis[1], axis[2]) + " " + num(angle),
		Center:       vec(cam.center[0], cam.center[1], cam.center[2]),
	}

	for _, a := range actors {
		m := a.Mesh
		ha := htmlActor{
			Label:        a.Label,
			NumPoints:    m.NumPoints(),
			NumFaces:     m.NumFaces(),
			Diffuse:      a.color.X3D(),
			Transparency: num(1 - a.opacity),
			ShowEdges:    a.ShowEdges,
			Points:       make([]string, 0, len(m.Points)),
		}
		for _, p := range m.Points {
			ha.Points = append(ha.Points, vec(p[0], p[1], p[2]))
		}
		for _, f := range m.Faces {
			for _, idx := range f {
				ha.CoordIndex = append(ha.CoordIndex, strconv.Itoa(idx))
			}
			ha.CoordIndex = append(ha.CoordIndex, "-1")
			if a.ShowEdges && len(f) > 0 {
				for _, idx := range f {
					ha.EdgeIndex = append(ha.EdgeIndex, strconv.Itoa(idx))
				}
				ha.EdgeIndex = append(ha.EdgeIndex, strconv.Itoa(f[0]), "-1")
			}
		}
		data.Actors = append(data.Actors, ha)
	}

	var buf bytes.Buffer
	if err := sceneTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "failed to render html")
	}
	return buf.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func vec(x, y, z float64) string {
	return fmt.Sprintf("%s %s %s", num(x), num(y), num(z))
}
