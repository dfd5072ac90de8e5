package meshio

import (
	"math"

	"github.com/soypat/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// Struts models every edge of l as a triangular prism of the given radius
// and returns its 8 triangles per edge. Zero length edges are skipped.
func Struts(l lattice.Lattice, radius float64) []Triangle {
	model := make([]Triangle, 0, 8*l.NumEdges())
	for i := range l.Edges {
		a, b := l.Edge(i)
		model = appendStrut(model, a, b, radius)
	}
	return model
}

func appendStrut(dst []Triangle, a, b r3.Vec, radius float64) []Triangle {
	axis := r3.Sub(b, a)
	if r3.Norm2(axis) == 0 {
		return dst
	}
	u, v := orthonormal(r3.Unit(axis))
	var ra, rb [3]r3.Vec
	for k := range ra {
		s, c := math.Sincos(2 * math.Pi * float64(k) / 3)
		off := r3.Add(r3.Scale(radius*c, u), r3.Scale(radius*s, v))
		ra[k] = r3.Add(a, off)
		rb[k] = r3.Add(b, off)
	}
	// End caps face away from the strut.
	dst = append(dst, Triangle{ra[0], ra[2], ra[1]}, Triangle{rb[0], rb[1], rb[2]})
	for k := range ra {
		next := (k + 1) % 3
		dst = append(dst,
			Triangle{ra[k], ra[next], rb[next]},
			Triangle{ra[k], rb[next], rb[k]},
		)
	}
	return dst
}

// orthonormal returns two unit vectors perpendicular to unit vector n and
// to each other such that u×v = n.
func orthonormal(n r3.Vec) (u, v r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Cross(ref, n))
	v = r3.Cross(n, u)
	return u, v
}
