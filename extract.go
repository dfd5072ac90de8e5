package lattice

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tetrahedralization is a 3D tetrahedral mesh with face adjacency, such as
// a *delaunay.Triangulation.
type Tetrahedralization interface {
	// NumCells returns the number of tetrahedra.
	NumCells() int
	// CellCorner returns the point index of corner k (0..3) of cell c.
	CellCorner(c, k int) int
	// CellAdjacent returns the cell sharing the face of c opposite corner lf.
	// ok is false for boundary faces.
	CellAdjacent(c, lf int) (neighbor int, ok bool)
	// CellIsFinite reports whether all corners of c are real points.
	CellIsFinite(c int) bool
	// Point returns the position of point i.
	Point(i int) r3.Vec
}

// Extract computes the dual lattice of t: one vertex per cell circumcenter
// and one edge per face shared by two cells. Cells without neighbors are
// left out. Extract panics if t holds a non-finite or flat cell.
func Extract(t Tetrahedralization) Lattice {
	centers := circumcenters(t)
	edges := dedupe(dualEdges(t))
	vertices := compact(centers, edges)
	return Lattice{Vertices: vertices, Edges: edges}
}

// circumcenters returns the circumcenter of every cell, indexed by cell.
func circumcenters(t Tetrahedralization) []r3.Vec {
	n := t.NumCells()
	centers := make([]r3.Vec, n)
	for c := 0; c < n; c++ {
		if !t.CellIsFinite(c) {
			panic(fmt.Sprintf("cell %d is not finite", c))
		}
		centers[c] = Circumcenter(
			t.Point(t.CellCorner(c, 0)),
			t.Point(t.CellCorner(c, 1)),
			t.Point(t.CellCorner(c, 2)),
			t.Point(t.CellCorner(c, 3)),
		)
	}
	return centers
}

// dualEdges returns an edge for every face shared between two cells.
// A shared face is seen from both of its cells and is only recorded from
// the one with the lower index.
func dualEdges(t Tetrahedralization) []Edge {
	n := t.NumCells()
	edges := make([]Edge, 0, 2*n)
	for c1 := 0; c1 < n; c1++ {
		for lf := 0; lf < 4; lf++ {
			c2, ok := t.CellAdjacent(c1, lf)
			if !ok || c1 >= c2 {
				continue
			}
			edges = append(edges, minMax(c1, c2))
		}
	}
	return edges
}

// dedupe sorts edges lexicographically and removes repeated edges in place.
func dedupe(edges []Edge) []Edge {
	slices.SortFunc(edges, func(a, b Edge) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
	return slices.Clip(slices.Compact(edges))
}

// compact returns the vertices referenced by edges in order of first
// appearance and rewrites edges in place to index the returned slice.
// Rewritten edges keep the lower index first.
func compact(vertices []r3.Vec, edges []Edge) []r3.Vec {
	const unassigned = -1
	newID := make([]int, len(vertices))
	for i := range newID {
		newID[i] = unassigned
	}
	used := make([]r3.Vec, 0, len(vertices))
	for i := range edges {
		e := &edges[i]
		for k, old := range e {
			if newID[old] == unassigned {
				newID[old] = len(used)
				used = append(used, vertices[old])
			}
			e[k] = newID[old]
		}
		*e = minMax(e[0], e[1])
	}
	return slices.Clip(used)
}
