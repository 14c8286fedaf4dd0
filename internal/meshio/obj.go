package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

func readFile(path string, decode func(io.Reader) (*mesh.Mesh, error)) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(bufio.NewReader(f))
}

func writeFile(path string, m *mesh.Mesh, encode func(io.Writer, *mesh.Mesh) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := encode(w, m); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readOBJ parses "v" and "f" statements. Texture and normal references in
// face tokens (v/vt/vn) are ignored; negative indices are relative to the
// end of the vertex list as the format allows.
func readOBJ(r io.Reader) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, errors.Newf("line %d: vertex needs 3 coordinates", line)
			}
			var p mgl64.Vec3
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				p[i] = v
			}
			m.Points = append(m.Points, p)
		case "f":
			if len(fields) < 4 {
				return nil, errors.Newf("line %d: face needs at least 3 vertices", line)
			}
			face := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, _, _ := strings.Cut(tok, "/")
				idx, err := strconv.Atoi(ref)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", line)
				}
				switch {
				case idx > 0:
					idx--
				case idx < 0:
					idx += len(m.Points)
				default:
					return nil, errors.Newf("line %d: face index 0 is invalid", line)
				}
				face = append(face, idx)
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func writeOBJ(w io.Writer, m *mesh.Mesh) error {
	if _, err := fmt.Fprintf(w, "# mesh-tools-mcp\n# %d points, %d faces\n", m.NumPoints(), m.NumFaces()); err != nil {
		return err
	}
	for _, p := range m.Points {
		if _, err := fmt.Fprintf(w, "v %s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2])); err != nil {
			return err
		}
	}
	var sb strings.Builder
	for _, f := range m.Faces {
		sb.Reset()
		sb.WriteString("f")
		for _, idx := range f {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(idx + 1))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
