package d3

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestCircumsphere(t *testing.T) {
	const tol = 1e-12
	for _, test := range []struct {
		name   string
		v      [4]r3.Vec
		center r3.Vec
		r2     float64
	}{
		{
			name:   "unit corner",
			v:      [4]r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}},
			center: Elem(0.5),
			r2:     0.75,
		},
		{
			name:   "translated regular",
			v:      [4]r3.Vec{{X: 11, Y: 11, Z: 11}, {X: 9, Y: 9, Z: 11}, {X: 9, Y: 11, Z: 9}, {X: 11, Y: 9, Z: 9}},
			center: Elem(10),
			r2:     3,
		},
	} {
		center, r2, ok := Circumsphere(test.v[0], test.v[1], test.v[2], test.v[3])
		if !ok {
			t.Fatalf("%s: unexpected degenerate result", test.name)
		}
		if !EqualWithin(center, test.center, tol) {
			t.Errorf("%s: center got %v, want %v", test.name, center, test.center)
		}
		if math.Abs(r2-test.r2) > tol {
			t.Errorf("%s: squared radius got %g, want %g", test.name, r2, test.r2)
		}
	}
}

func TestCircumsphereEquidistant(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	box := NewBox(r3.Vec{}, Elem(10))
	for i := 0; i < 100; i++ {
		v := box.RandomSet(rng, 4)
		center, r2, ok := Circumsphere(v[0], v[1], v[2], v[3])
		if !ok {
			continue
		}
		for _, p := range v {
			d2 := r3.Norm2(r3.Sub(p, center))
			if math.Abs(d2-r2) > 1e-6*r2 {
				t.Fatalf("point %v not on sphere: d2=%g r2=%g", p, d2, r2)
			}
		}
	}
}

func TestCircumsphereDegenerate(t *testing.T) {
	for _, v := range [][4]r3.Vec{
		{{}, {X: 1}, {Y: 1}, {X: 1, Y: 1}},
		{{}, {X: 1}, {X: 2}, {X: 3}},
		{{}, {}, {}, {}},
		{{}, {X: 1}, {Y: 1}, {X: 1, Z: 1e-15}},
	} {
		if _, _, ok := Circumsphere(v[0], v[1], v[2], v[3]); ok {
			t.Errorf("expected degenerate tetrahedron %v", v)
		}
	}
}

func TestOrient(t *testing.T) {
	a, b, c, d := r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}
	if got := Orient(a, b, c, d); got != 1 {
		t.Errorf("got %g, want 1", got)
	}
	if got := Orient(b, a, c, d); got != -1 {
		t.Errorf("swapped corners: got %g, want -1", got)
	}
}

func TestSetBounds(t *testing.T) {
	s := Set{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 5, Z: 0}}
	bb := s.Bounds()
	want := Box{Min: r3.Vec{X: -1, Y: -2, Z: 0}, Max: r3.Vec{X: 1, Y: 5, Z: 3}}
	if bb != want {
		t.Errorf("got %v, want %v", bb, want)
	}
	if (Set{}).Bounds() != (Box{}) {
		t.Error("empty set must have zero bounds")
	}
}
