// Package meshio reads seed point clouds and writes lattices to disk.
//
// The format is chosen by file extension. A trailing .zst or .lz4
// extension compresses or decompresses the stream transparently, so
// "cloud.xyz.zst" is a zstd compressed xyz file.
package meshio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/soypat/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrFormat is returned for unknown file extensions and malformed files.
var ErrFormat = errors.New("meshio: bad format")

// DefaultStrutRadius is the strut radius relative to the lattice bounding
// box diagonal used when writing STL files.
const DefaultStrutRadius = 2e-3

// Format returns the lowercase mesh extension of path without the dot,
// ignoring a compression extension. Format("a.XYZ.zst") is "xyz".
func Format(path string) string {
	ext, _ := splitExt(path)
	return ext
}

func splitExt(path string) (format string, codec codec) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".zst":
		codec = codecZstd
	case ".lz4":
		codec = codecLZ4
	}
	if codec != codecNone {
		path = strings.TrimSuffix(path, filepath.Ext(path))
		ext = strings.ToLower(filepath.Ext(path))
	}
	return strings.TrimPrefix(ext, "."), codec
}

// ReadPoints reads a point cloud from path. Supported formats are xyz and
// binary stl.
func ReadPoints(path string) ([]r3.Vec, error) {
	format, _ := splitExt(path)
	var read func(io.Reader) ([]r3.Vec, error)
	switch format {
	case "xyz":
		read = ReadXYZ
	case "stl":
		read = ReadSTLVertices
	default:
		return nil, fmt.Errorf("%w: cannot read points from %q", ErrFormat, path)
	}
	fp, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	points, err := read(fp)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return points, nil
}

// WritePoints writes a point cloud to path in xyz format.
func WritePoints(path string, points []r3.Vec) error {
	if format, _ := splitExt(path); format != "xyz" {
		return fmt.Errorf("%w: cannot write points to %q", ErrFormat, path)
	}
	fp, err := Create(path)
	if err != nil {
		return err
	}
	if err = WriteXYZ(fp, points); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// WriteLattice writes l to path. Supported formats are obj, ply and stl.
// STL output models each edge as a strut of DefaultStrutRadius.
func WriteLattice(path string, l lattice.Lattice) error {
	format, _ := splitExt(path)
	var write func(io.Writer, lattice.Lattice) error
	switch format {
	case "obj":
		write = WriteOBJ
	case "ply":
		write = WritePLY
	case "stl":
		write = func(w io.Writer, l lattice.Lattice) error {
			return WriteSTL(w, Struts(l, StrutRadius(l, DefaultStrutRadius)))
		}
	default:
		return fmt.Errorf("%w: cannot write lattice to %q", ErrFormat, path)
	}
	fp, err := Create(path)
	if err != nil {
		return err
	}
	if err = write(fp, l); err != nil {
		fp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fp.Close()
}

// StrutRadius returns rel times the diagonal of the bounding box of l.
func StrutRadius(l lattice.Lattice, rel float64) float64 {
	b := l.Bounds()
	return rel * r3.Norm(r3.Sub(b.Max, b.Min))
}
