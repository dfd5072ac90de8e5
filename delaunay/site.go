package delaunay

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// site is an inserted point stored in the nearest neighbor tree.
type site struct {
	r3.Vec
	idx int
}

func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return s.X - q.X
	case 1:
		return s.Y - q.Y
	case 2:
		return s.Z - q.Z
	}
	panic("unreachable")
}

func (s site) Dims() int { return 3 }

// Distance returns the squared distance between two sites.
func (s site) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(s.Vec, c.(site).Vec))
}

// sites implements kdtree.Interface.
type sites []site

func (s sites) Index(i int) kdtree.Comparable { return s[i] }

func (s sites) Len() int { return len(s) }

func (s sites) Pivot(d kdtree.Dim) int {
	p := sitePlane{dim: d, sites: s}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (s sites) Slice(start, end int) kdtree.Interface { return s[start:end] }

type sitePlane struct {
	dim   kdtree.Dim
	sites sites
}

func (p sitePlane) Less(i, j int) bool {
	return p.sites[i].Compare(p.sites[j], p.dim) < 0
}
func (p sitePlane) Swap(i, j int) {
	p.sites[i], p.sites[j] = p.sites[j], p.sites[i]
}
func (p sitePlane) Len() int {
	return len(p.sites)
}
func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	p.sites = p.sites[start:end]
	return p
}
