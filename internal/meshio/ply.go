package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

// maxPreallocated bounds the capacity reserved from header counts. Larger
// files grow by append as their lines are actually read.
const maxPreallocated = 1 << 16

// plyHeader holds the parts of a PLY header this package understands.
type plyHeader struct {
	vertices int
	faces    int
	// vertexProps lists vertex property names in declaration order.
	vertexProps []string
}

// readPLY parses ASCII PLY files. Vertex properties other than x, y and z are
// skipped; the face element must be a vertex index list.
func readPLY(r io.Reader) (*mesh.Mesh, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	hdr, err := readPLYHeader(scanner)
	if err != nil {
		return nil, err
	}

	axis := map[string]int{}
	for i, name := range hdr.vertexProps {
		if name == "x" || name == "y" || name == "z" {
			axis[name] = i
		}
	}
	if len(axis) != 3 {
		return nil, errors.New("ply vertex element must declare x, y and z")
	}

	m := &mesh.Mesh{
		Points: make([]mgl64.Vec3, 0, min(hdr.vertices, maxPreallocated)),
		Faces:  make([][]int, 0, min(hdr.faces, maxPreallocated)),
	}
	for len(m.Points) < hdr.vertices {
		fields, err := nextFields(scanner)
		if err != nil {
			return nil, errors.Wrap(err, "reading ply vertices")
		}
		if len(fields) < len(hdr.vertexProps) {
			return nil, errors.Newf("ply vertex %d has %d values, want %d", len(m.Points), len(fields), len(hdr.vertexProps))
		}
		var p mgl64.Vec3
		for i, name := range []string{"x", "y", "z"} {
			v, err := strconv.ParseFloat(fields[axis[name]], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "ply vertex %d", len(m.Points))
			}
			p[i] = v
		}
		m.Points = append(m.Points, p)
	}
	for len(m.Faces) < hdr.faces {
		fields, err := nextFields(scanner)
		if err != nil {
			return nil, errors.Wrap(err, "reading ply faces")
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 || len(fields) < n+1 {
			return nil, errors.Newf("ply face %d is malformed", len(m.Faces))
		}
		face := make([]int, n)
		for i := 0; i < n; i++ {
			if face[i], err = strconv.Atoi(fields[i+1]); err != nil {
				return nil, errors.Wrapf(err, "ply face %d", len(m.Faces))
			}
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}

func readPLYHeader(scanner *bufio.Scanner) (*plyHeader, error) {
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, errors.New("missing ply magic")
	}

	hdr := &plyHeader{}
	var current string
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, errors.Newf("only ascii ply is supported, got %q", strings.Join(fields[1:], " "))
			}
		case "element":
			if len(fields) != 3 {
				return nil, errors.Newf("malformed element line %q", scanner.Text())
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, errors.Wrap(err, "element count")
			}
			if count < 0 {
				return nil, errors.Newf("invalid ply element count %d", count)
			}
			current = fields[1]
			switch current {
			case "vertex":
				hdr.vertices = count
			case "face":
				hdr.faces = count
			default:
				if count > 0 {
					return nil, errors.Newf("unsupported ply element %q", current)
				}
			}
		case "property":
			if current == "vertex" {
				hdr.vertexProps = append(hdr.vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			return hdr, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, errors.New("ply header is not terminated")
}

func nextFields(scanner *bufio.Scanner) ([]string, error) {
	for scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

func writePLY(w io.Writer, m *mesh.Mesh) error {
	header := fmt.Sprintf("ply\nformat ascii 1.0\ncomment mesh-tools-mcp\n"+
		"element vertex %d\nproperty double x\nproperty double y\nproperty double z\n"+
		"element face %d\nproperty list uchar int vertex_indices\nend_header\n",
		m.NumPoints(), m.NumFaces())
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	for _, p := range m.Points {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2])); err != nil {
			return err
		}
	}
	var sb strings.Builder
	for _, f := range m.Faces {
		sb.Reset()
		sb.WriteString(strconv.Itoa(len(f)))
		for _, idx := range f {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(idx))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
