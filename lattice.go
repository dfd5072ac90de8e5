// Package lattice computes the Voronoi lattice of a 3D point cloud: the
// circumcenters of a Delaunay tetrahedralization joined by an edge for
// every pair of tetrahedra sharing a face.
package lattice

import (
	"errors"
	"fmt"

	"github.com/soypat/lattice/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalid is wrapped by errors returned from Lattice.Validate.
var ErrInvalid = errors.New("invalid lattice")

// Edge joins two lattice vertices. Edges in a Lattice are stored with the
// lower index first.
type Edge [2]int

func minMax(a, b int) Edge {
	if a < b {
		return Edge{a, b}
	}
	return Edge{b, a}
}

func (e Edge) less(f Edge) bool {
	return e[0] < f[0] || e[0] == f[0] && e[1] < f[1]
}

// Lattice is a graph of 3D vertices. Every edge index is in range of
// Vertices and every vertex is the endpoint of at least one edge.
type Lattice struct {
	Vertices []r3.Vec
	Edges    []Edge
}

// NumVertices returns the number of lattice vertices.
func (l Lattice) NumVertices() int { return len(l.Vertices) }

// NumEdges returns the number of lattice edges.
func (l Lattice) NumEdges() int { return len(l.Edges) }

// Empty reports whether the lattice has no edges.
func (l Lattice) Empty() bool { return len(l.Edges) == 0 }

// Bounds returns the bounding box of the lattice vertices.
func (l Lattice) Bounds() r3.Box {
	return r3.Box(d3.Set(l.Vertices).Bounds())
}

// Edge returns the end points of edge i.
func (l Lattice) Edge(i int) (a, b r3.Vec) {
	e := l.Edges[i]
	return l.Vertices[e[0]], l.Vertices[e[1]]
}

// Degrees returns the number of edges incident to each vertex.
func (l Lattice) Degrees() []int {
	deg := make([]int, len(l.Vertices))
	for _, e := range l.Edges {
		deg[e[0]]++
		deg[e[1]]++
	}
	return deg
}

// Validate checks the lattice invariants: edge indices in range, lower
// index first, no repeated edges, no orphan vertices and finite
// coordinates.
func (l Lattice) Validate() error {
	seen := make(map[Edge]struct{}, len(l.Edges))
	for i, e := range l.Edges {
		if e[0] < 0 || e[1] >= len(l.Vertices) {
			return fmt.Errorf("%w: edge %d %v out of range of %d vertices", ErrInvalid, i, e, len(l.Vertices))
		}
		if e[0] >= e[1] {
			return fmt.Errorf("%w: edge %d %v not in canonical order", ErrInvalid, i, e)
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("%w: edge %d %v repeated", ErrInvalid, i, e)
		}
		seen[e] = struct{}{}
	}
	for i, d := range l.Degrees() {
		if d == 0 {
			return fmt.Errorf("%w: vertex %d not referenced by any edge", ErrInvalid, i)
		}
	}
	for i, v := range l.Vertices {
		if !d3.IsFinite(v) {
			return fmt.Errorf("%w: vertex %d has non-finite coordinates %v", ErrInvalid, i, v)
		}
	}
	return nil
}
