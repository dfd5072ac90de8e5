package lattice

import (
	"fmt"

	"github.com/soypat/lattice/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Circumcenter returns the point equidistant from the four corners of
// tetrahedron abcd. It panics if the corners are affinely dependent since
// no such point exists and tetrahedralizations never produce flat finite
// cells for points in general position.
func Circumcenter(a, b, c, d r3.Vec) r3.Vec {
	center, _, ok := d3.Circumsphere(a, b, c, d)
	if !ok {
		panic(fmt.Sprintf("degenerate tetrahedron %v %v %v %v has no circumcenter", a, b, c, d))
	}
	return center
}
