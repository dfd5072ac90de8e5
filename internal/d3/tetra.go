package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// degenerateTol is the relative volume below which a tetrahedron is
// considered flat. It is compared against the signed volume scaled by the
// cube of the longest edge.
const degenerateTol = 1e-12

// Orient returns six times the signed volume of tetrahedron abcd.
// The result is positive when d lies on the side of plane abc
// pointed to by (b-a)x(c-a).
func Orient(a, b, c, d r3.Vec) float64 {
	return r3.Dot(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)), r3.Sub(d, a))
}

// Circumsphere returns the center and squared radius of the sphere
// passing through a, b, c and d. ok is false when the four points are
// affinely dependent within tolerance or the solution is not finite.
func Circumsphere(a, b, c, d r3.Vec) (center r3.Vec, r2 float64, ok bool) {
	u := r3.Sub(b, a)
	v := r3.Sub(c, a)
	w := r3.Sub(d, a)
	u2, v2, w2 := r3.Norm2(u), r3.Norm2(v), r3.Norm2(w)
	vw := r3.Cross(v, w)
	det := r3.Dot(u, vw)

	// Longest edge sets the scale for the flatness test.
	l2 := math.Max(u2, math.Max(v2, w2))
	l2 = math.Max(l2, math.Max(r3.Norm2(r3.Sub(c, b)), math.Max(r3.Norm2(r3.Sub(d, b)), r3.Norm2(r3.Sub(d, c)))))
	if l2 == 0 || math.Abs(det) <= degenerateTol*l2*math.Sqrt(l2) {
		return r3.Vec{}, 0, false
	}
	num := r3.Add(r3.Scale(u2, vw), r3.Add(r3.Scale(v2, r3.Cross(w, u)), r3.Scale(w2, r3.Cross(u, v))))
	rel := r3.Scale(1/(2*det), num)
	center = r3.Add(a, rel)
	if !IsFinite(center) {
		return r3.Vec{}, 0, false
	}
	return center, r3.Norm2(rel), true
}
