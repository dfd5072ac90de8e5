package seed

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestEvaluate(t *testing.T) {
	sph, _ := Sphere(1)
	bx, _ := Box(r3.Vec{X: 2, Y: 4, Z: 6}, 0)
	cyl, _ := Cylinder(2, 1, 0)
	for _, test := range []struct {
		name string
		s    SDF3
		p    r3.Vec
		want float64
	}{
		{name: "sphere center", s: sph, p: r3.Vec{}, want: -1},
		{name: "sphere surface", s: sph, p: r3.Vec{Y: 1}, want: 0},
		{name: "sphere outside", s: sph, p: r3.Vec{X: 3}, want: 2},
		{name: "box center", s: bx, p: r3.Vec{}, want: -1},
		{name: "box face", s: bx, p: r3.Vec{Y: 3}, want: 1},
		{name: "box corner", s: bx, p: r3.Vec{X: 4, Y: 2, Z: 3}, want: 3},
		{name: "box inside", s: bx, p: r3.Vec{Z: 2.5}, want: -0.5},
		{name: "cylinder axis", s: cyl, p: r3.Vec{Z: 0.5}, want: -0.5},
		{name: "cylinder side", s: cyl, p: r3.Vec{X: 2}, want: 1},
		{name: "cylinder rim", s: cyl, p: r3.Vec{X: 4, Z: 5}, want: 5},
	} {
		got := test.s.Evaluate(test.p)
		if math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%s: got %g, want %g", test.name, got, test.want)
		}
	}
}

func TestShapeErrors(t *testing.T) {
	_, err := Shape("torus", 1)
	if !errors.Is(err, ErrShape) {
		t.Errorf("unknown shape: got %v", err)
	}
	for _, name := range Shapes {
		for _, size := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			if _, err := Shape(name, size); !errors.Is(err, ErrShape) {
				t.Errorf("%s size %g: got %v, want %v", name, size, err, ErrShape)
			}
		}
	}
	if _, err := Box(r3.Vec{X: 1, Y: 1, Z: 1}, 0.6); !errors.Is(err, ErrShape) {
		t.Errorf("over rounded box: got %v", err)
	}
	if _, err := Cylinder(1, 1, 0.6); !errors.Is(err, ErrShape) {
		t.Errorf("over rounded cylinder: got %v", err)
	}
}

func TestSample(t *testing.T) {
	for _, name := range Shapes {
		s, err := Shape(name, 2)
		if err != nil {
			t.Fatal(err)
		}
		points, err := Sample(s, 300, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(points) != 300 {
			t.Fatalf("%s: got %d points", name, len(points))
		}
		for i, p := range points {
			if d := s.Evaluate(p); d >= 0 {
				t.Fatalf("%s: point %d %v outside shape (distance %g)", name, i, p, d)
			}
		}
		again, err := Sample(s, 300, 1)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(points, again); diff != "" {
			t.Errorf("%s: same seed gave different points:\n%s", name, diff)
		}
		other, _ := Sample(s, 300, 2)
		if cmp.Equal(points, other) {
			t.Errorf("%s: different seeds gave identical points", name)
		}
	}
}

// thinShell is a sphere surface with no interior volume to sample.
type thinShell struct{}

func (thinShell) Evaluate(p r3.Vec) float64 { return math.Abs(r3.Norm(p) - 1) }
func (thinShell) Bounds() r3.Box {
	return r3.Box{Min: r3.Vec{X: -1, Y: -1, Z: -1}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}
}

func TestSampleErrors(t *testing.T) {
	if _, err := Sample(thinShell{}, 10, 1); err == nil {
		t.Error("expected error sampling shape without interior")
	}
	s, _ := Sphere(1)
	if _, err := Sample(s, -1, 1); err == nil {
		t.Error("expected error for negative count")
	}
	points, err := Sample(s, 0, 1)
	if err != nil || len(points) != 0 {
		t.Errorf("zero count: got %d points, %v", len(points), err)
	}
}

func BenchmarkSample(b *testing.B) {
	s, _ := Sphere(1)
	for i := 0; i < b.N; i++ {
		Sample(s, 1000, int64(i))
	}
}
