package lattice

import (
	"fmt"

	"github.com/soypat/lattice/delaunay"
	"gonum.org/v1/gonum/spatial/r3"
)

// Build tetrahedralizes points and returns the dual lattice. Less than 4
// points yield an empty lattice and no error. Point sets that do not span
// 3D space return an error wrapping delaunay.ErrDegenerate.
func Build(points []r3.Vec) (Lattice, error) {
	if len(points) < 4 {
		return Lattice{}, nil
	}
	tri, err := delaunay.New(points)
	if err != nil {
		return Lattice{}, fmt.Errorf("tetrahedralizing %d points: %w", len(points), err)
	}
	return Extract(tri), nil
}

// MustBuild is like Build but panics on error.
func MustBuild(points []r3.Vec) Lattice {
	l, err := Build(points)
	if err != nil {
		panic(err)
	}
	return l
}
