package meshio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ironsheep/mesh-tools-mcp/internal/mesh"
)

// ErrUnsupportedFormat is returned for paths whose extension has no codec.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Format identifies a mesh file format.
type Format string

// Supported formats.
const (
	FormatSTL Format = "stl"
	FormatOBJ Format = "obj"
	FormatPLY Format = "ply"
)

// Extension returns the canonical file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// FormatFromPath determines the format from the path extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL, nil
	case ".obj":
		return FormatOBJ, nil
	case ".ply":
		return FormatPLY, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", filepath.Ext(path))
	}
}

// Read decodes the mesh stored at path.
func Read(path string) (*mesh.Mesh, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var m *mesh.Mesh
	switch format {
	case FormatSTL:
		m, err = readSTL(path)
	case FormatOBJ:
		m, err = readFile(path, readOBJ)
	case FormatPLY:
		m, err = readFile(path, readPLY)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid mesh in %s", path)
	}
	return m, nil
}

// Write encodes m to path, creating parent directories as needed. The mesh
// is written to a temporary file in the same directory and renamed into
// place, so readers never observe a partially written file.
func Write(path string, m *mesh.Mesh) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*"+filepath.Ext(path))
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	switch format {
	case FormatSTL:
		err = writeSTL(tmpPath, m)
	case FormatOBJ:
		err = writeFile(tmpPath, m, writeOBJ)
	case FormatPLY:
		err = writeFile(tmpPath, m, writePLY)
	}
	if err == nil {
		err = os.Chmod(tmpPath, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
