// Package delaunay builds 3D Delaunay tetrahedralizations of point clouds.
//
// Points are inserted one at a time in input order. The convex hull is
// closed with a vertex at infinity so hull faces have a neighbor while
// building. Only finite cells are exposed once construction finishes and
// hull faces report no neighbor.
package delaunay

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/soypat/lattice/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrTooFewPoints is returned when less than 4 points are given.
	ErrTooFewPoints = errors.New("delaunay: at least 4 points are required")
	// ErrDegenerate is returned when the points do not span 3D space or
	// the insertion could not produce a valid tetrahedralization.
	ErrDegenerate = errors.New("delaunay: degenerate point configuration")
)

const (
	infinite = -1 // vertex index of the point at infinity.
	noCell   = -1
	// relTol scales tolerances to the size of the input.
	relTol = 1e-12
)

// Triangulation is a 3D Delaunay tetrahedralization. Cells are indexed
// 0..NumCells()-1 and every cell is finite.
type Triangulation struct {
	points []r3.Vec
	cells  [][4]int
	adj    [][4]int
	dups   int
}

// New tetrahedralizes points. Duplicate points are skipped and reported by
// Duplicates. New does not modify points and does not retain shared state
// between calls so it is safe to call concurrently.
func New(points []r3.Vec) (*Triangulation, error) {
	if len(points) < 4 {
		return nil, ErrTooFewPoints
	}
	b := newBuilder(points)
	first, err := b.init()
	if err != nil {
		return nil, err
	}
	for i := range points {
		if first[0] == i || first[1] == i || first[2] == i || first[3] == i {
			continue
		}
		if err := b.insert(i); err != nil {
			return nil, fmt.Errorf("inserting point %d %v: %w", i, points[i], err)
		}
	}
	return b.finish(), nil
}

// NumCells returns the number of finite tetrahedra.
func (t *Triangulation) NumCells() int { return len(t.cells) }

// CellCorner returns the point index of corner k of cell c.
func (t *Triangulation) CellCorner(c, k int) int { return t.cells[c][k] }

// CellAdjacent returns the cell across the face of c opposite corner lf.
// ok is false when the face lies on the convex hull.
func (t *Triangulation) CellAdjacent(c, lf int) (neighbor int, ok bool) {
	neighbor = t.adj[c][lf]
	return neighbor, neighbor >= 0
}

// CellIsFinite reports whether all corners of c are input points.
func (t *Triangulation) CellIsFinite(c int) bool {
	for _, v := range t.cells[c] {
		if v < 0 || v >= len(t.points) {
			return false
		}
	}
	return true
}

// Cell returns the four corner point indices of cell c.
func (t *Triangulation) Cell(c int) [4]int { return t.cells[c] }

// Point returns the position of input point i.
func (t *Triangulation) Point(i int) r3.Vec { return t.points[i] }

// NumPoints returns the number of input points, duplicates included.
func (t *Triangulation) NumPoints() int { return len(t.points) }

// Duplicates returns the number of input points skipped because they
// coincide with an earlier point.
func (t *Triangulation) Duplicates() int { return t.dups }

// cell is a tetrahedron during construction. Face i is opposite v[i]
// and n[i] is the cell sharing that face. Cells are positively oriented,
// for infinite cells as if the point at infinity lay just outside the hull.
type cell struct {
	v     [4]int
	n     [4]int
	cc    r3.Vec // circumcenter of finite cells.
	r2    float64
	alive bool
}

// infiniteSlot returns the corner holding the point at infinity or -1.
func (c *cell) infiniteSlot() int {
	for i, v := range c.v {
		if v == infinite {
			return i
		}
	}
	return -1
}

type facet struct {
	c, f int
}

type builder struct {
	points []r3.Vec
	cells  []cell
	// inc holds a live finite cell incident to each inserted point.
	inc  []int
	tree *kdtree.Tree
	rng  *rand.Rand
	dups int

	volTol  float64 // orientation values below are treated as flat.
	areaTol float64
	dupTol2 float64

	// cavity bookkeeping, reused between insertions.
	mark     []int
	stamp    int
	cavity   []int
	stack    []int
	boundary []facet
	faces    map[[3]int]facet
}

func newBuilder(points []r3.Vec) *builder {
	scale := d3.Set(points).Bounds().Diagonal()
	inc := make([]int, len(points))
	for i := range inc {
		inc[i] = noCell
	}
	return &builder{
		points:  points,
		cells:   make([]cell, 0, 8*len(points)),
		mark:    make([]int, 0, 8*len(points)),
		inc:     inc,
		rng:     rand.New(rand.NewSource(1)),
		volTol:  relTol * scale * scale * scale,
		areaTol: relTol * scale * scale,
		dupTol2: (relTol * scale) * (relTol * scale),
		faces:   make(map[[3]int]facet),
	}
}

// init creates the first tetrahedron from four affinely independent
// points and closes it with four infinite cells.
func (b *builder) init() (first [4]int, err error) {
	pts := b.points
	i0, i1, i2, i3 := 0, -1, -1, -1
	for i := range pts {
		if r3.Norm2(r3.Sub(pts[i], pts[i0])) > b.dupTol2 {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return first, ErrDegenerate
	}
	for i := i1 + 1; i < len(pts); i++ {
		n := r3.Cross(r3.Sub(pts[i1], pts[i0]), r3.Sub(pts[i], pts[i0]))
		if r3.Norm(n) > b.areaTol {
			i2 = i
			break
		}
	}
	if i2 < 0 {
		return first, ErrDegenerate
	}
	var o float64
	for i := i2 + 1; i < len(pts); i++ {
		o = d3.Orient(pts[i0], pts[i1], pts[i2], pts[i])
		if o > b.volTol || o < -b.volTol {
			i3 = i
			break
		}
	}
	if i3 < 0 {
		return first, ErrDegenerate
	}
	if o < 0 {
		i0, i1 = i1, i0
	}
	first = [4]int{i0, i1, i2, i3}
	if _, _, ok := d3.Circumsphere(pts[i0], pts[i1], pts[i2], pts[i3]); !ok {
		return first, ErrDegenerate
	}
	c0 := b.newCell(first)
	ids := []int{c0}
	for f := 0; f < 4; f++ {
		v := first
		v[f] = infinite
		// The point at infinity sits across face f so two corners are
		// swapped to keep the cell positively oriented.
		j, k := (f+1)%4, (f+2)%4
		v[j], v[k] = v[k], v[j]
		ids = append(ids, b.newCell(v))
	}
	for _, c := range ids {
		for f := 0; f < 4; f++ {
			b.glue(c, f)
		}
	}
	if len(b.faces) != 0 {
		panic("bug: unmatched faces in initial tetrahedron")
	}
	initial := make(sites, 0, 4)
	for _, v := range first {
		b.inc[v] = c0
		initial = append(initial, site{Vec: pts[v], idx: v})
	}
	b.tree = kdtree.New(initial, false)
	return first, nil
}

// insert adds point pi to the tetrahedralization.
func (b *builder) insert(pi int) error {
	p := b.points[pi]
	near, d2 := b.tree.Nearest(site{Vec: p, idx: -1})
	if d2 <= b.dupTol2 {
		b.dups++
		return nil
	}
	start := b.inc[near.(site).idx]
	if start == noCell || !b.cells[start].alive {
		start = b.anyFinite()
	}
	seed := b.locate(start, p)
	if seed == noCell {
		return ErrDegenerate
	}
	b.grow(seed, p)
	if err := b.seal(p); err != nil {
		return err
	}
	b.fill(pi)
	b.tree.Insert(site{Vec: p, idx: pi}, false)
	return nil
}

// locate walks from the finite cell start towards p and returns a cell
// in conflict with p: the finite cell containing it or the infinite cell
// across the hull face p lies beyond.
func (b *builder) locate(start int, p r3.Vec) int {
	c, prev := start, noCell
	for steps := 0; steps <= len(b.cells); steps++ {
		cl := &b.cells[c]
		off := b.rng.Intn(4)
		next := noCell
		for k := 0; k < 4; k++ {
			f := (off + k) % 4
			if cl.n[f] == prev {
				continue
			}
			if b.orientWith(cl, f, p) < 0 {
				next = cl.n[f]
				break
			}
		}
		if next == noCell {
			return c
		}
		if b.cells[next].infiniteSlot() >= 0 {
			return next
		}
		prev, c = c, next
	}
	// Walk cycled through flat cells: fall back to a full scan.
	for i := range b.cells {
		if b.cells[i].alive && b.conflict(i, p) {
			return i
		}
	}
	return noCell
}

// conflict reports whether p invalidates cell c. Finite cells conflict
// when p is inside their circumsphere. Infinite cells conflict when p is
// strictly outside their hull face, or coplanar with it and in conflict
// with the finite cell behind it.
func (b *builder) conflict(c int, p r3.Vec) bool {
	cl := &b.cells[c]
	k := cl.infiniteSlot()
	if k < 0 {
		return r3.Norm2(r3.Sub(p, cl.cc)) < cl.r2*(1-relTol)
	}
	o := b.orientWith(cl, k, p)
	if o > b.volTol {
		return true
	}
	if o < -b.volTol {
		return false
	}
	return b.conflict(cl.n[k], p)
}

// grow collects the connected set of cells in conflict with p.
func (b *builder) grow(seed int, p r3.Vec) {
	b.stamp++
	b.cavity = b.cavity[:0]
	b.stack = append(b.stack[:0], seed)
	b.mark[seed] = b.stamp
	for len(b.stack) > 0 {
		c := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		b.cavity = append(b.cavity, c)
		for _, nb := range b.cells[c].n {
			if b.mark[nb] == b.stamp || !b.conflict(nb, p) {
				continue
			}
			b.mark[nb] = b.stamp
			b.stack = append(b.stack, nb)
		}
	}
}

// seal computes the cavity boundary. Cells behind faces that would form a
// flat or inverted tetrahedron with p are absorbed into the cavity until
// every boundary face is strictly visible from p.
func (b *builder) seal(p r3.Vec) error {
	for {
		b.boundary = b.boundary[:0]
		grown := false
		for _, c := range b.cavity {
			for f, nb := range b.cells[c].n {
				if b.mark[nb] == b.stamp {
					continue
				}
				if !b.visible(c, f, p) {
					b.mark[nb] = b.stamp
					b.cavity = append(b.cavity, nb)
					grown = true
					continue
				}
				b.boundary = append(b.boundary, facet{c: c, f: f})
			}
		}
		if !grown {
			break
		}
		if len(b.cavity) == len(b.cells) {
			return ErrDegenerate
		}
	}
	if len(b.boundary) < 4 {
		return ErrDegenerate
	}
	return nil
}

// visible reports whether replacing corner f of cell c with p yields a
// valid cell.
func (b *builder) visible(c, f int, p r3.Vec) bool {
	cl := &b.cells[c]
	k := cl.infiniteSlot()
	if k >= 0 && k != f {
		// New hull cell: p and the two finite corners must span a triangle.
		var tri [2]r3.Vec
		n := 0
		for i, v := range cl.v {
			if i != k && i != f {
				tri[n] = b.points[v]
				n++
			}
		}
		return r3.Norm(r3.Cross(r3.Sub(tri[0], p), r3.Sub(tri[1], p))) > b.areaTol
	}
	if b.orientWith(cl, f, p) <= 0 {
		return false
	}
	var pos [4]r3.Vec
	for i, v := range cl.v {
		if i == f {
			pos[i] = p
		} else {
			pos[i] = b.points[v]
		}
	}
	_, _, ok := d3.Circumsphere(pos[0], pos[1], pos[2], pos[3])
	return ok
}

// fill replaces the cavity with cells joining point pi to every boundary face.
func (b *builder) fill(pi int) {
	first := len(b.cells)
	for _, bf := range b.boundary {
		v := b.cells[bf.c].v
		v[bf.f] = pi
		outside := b.cells[bf.c].n[bf.f]
		nc := b.newCell(v)
		b.cells[nc].n[bf.f] = outside
		nb := &b.cells[outside]
		for j := range nb.n {
			if nb.n[j] == bf.c {
				nb.n[j] = nc
				break
			}
		}
	}
	for nc := first; nc < len(b.cells); nc++ {
		for f, v := range b.cells[nc].v {
			if v != pi {
				b.glue(nc, f)
			}
		}
	}
	if len(b.faces) != 0 {
		panic("bug: cavity boundary is not closed")
	}
	for _, c := range b.cavity {
		b.cells[c].alive = false
	}
	for nc := first; nc < len(b.cells); nc++ {
		if b.cells[nc].infiniteSlot() >= 0 {
			continue
		}
		for _, v := range b.cells[nc].v {
			b.inc[v] = nc
		}
	}
}

// glue links face f of cell c with the matching pending face, or leaves
// it pending until its twin is glued.
func (b *builder) glue(c, f int) {
	key := faceKey(b.cells[c].v, f)
	other, ok := b.faces[key]
	if !ok {
		b.faces[key] = facet{c: c, f: f}
		return
	}
	delete(b.faces, key)
	b.cells[c].n[f] = other.c
	b.cells[other.c].n[other.f] = c
}

func (b *builder) newCell(v [4]int) int {
	c := cell{v: v, n: [4]int{noCell, noCell, noCell, noCell}, alive: true}
	if c.infiniteSlot() < 0 {
		c.cc, c.r2, _ = d3.Circumsphere(b.points[v[0]], b.points[v[1]], b.points[v[2]], b.points[v[3]])
	}
	b.cells = append(b.cells, c)
	b.mark = append(b.mark, 0)
	return len(b.cells) - 1
}

// orientWith returns the orientation of cell cl with corner f replaced by p.
// The remaining corners must be finite.
func (b *builder) orientWith(cl *cell, f int, p r3.Vec) float64 {
	var pos [4]r3.Vec
	for i, v := range cl.v {
		if i == f {
			pos[i] = p
		} else {
			pos[i] = b.points[v]
		}
	}
	return d3.Orient(pos[0], pos[1], pos[2], pos[3])
}

func (b *builder) anyFinite() int {
	for i := len(b.cells) - 1; i >= 0; i-- {
		if b.cells[i].alive && b.cells[i].infiniteSlot() < 0 {
			return i
		}
	}
	panic("bug: no finite cell alive")
}

// finish compacts live finite cells into a Triangulation.
func (b *builder) finish() *Triangulation {
	ids := make([]int, len(b.cells))
	n := 0
	for i := range b.cells {
		ids[i] = noCell
		if b.cells[i].alive && b.cells[i].infiniteSlot() < 0 {
			ids[i] = n
			n++
		}
	}
	t := &Triangulation{
		points: b.points,
		cells:  make([][4]int, n),
		adj:    make([][4]int, n),
		dups:   b.dups,
	}
	for i := range b.cells {
		id := ids[i]
		if id == noCell {
			continue
		}
		t.cells[id] = b.cells[i].v
		for f, nb := range b.cells[i].n {
			t.adj[id][f] = ids[nb]
		}
	}
	return t
}

// faceKey returns the sorted corners of face f.
func faceKey(v [4]int, f int) [3]int {
	var k [3]int
	n := 0
	for i := range v {
		if i != f {
			k[n] = v[i]
			n++
		}
	}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	if k[1] > k[2] {
		k[1], k[2] = k[2], k[1]
	}
	if k[0] > k[1] {
		k[0], k[1] = k[1], k[0]
	}
	return k
}
