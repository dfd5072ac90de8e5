// Package seed generates synthetic point clouds inside signed distance
// field shapes. Clouds are drawn deterministically from a seed value so the
// same arguments always give the same points.
package seed

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/soypat/lattice/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// SDF3 is a 3D signed distance function.
type SDF3 interface {
	// Evaluate returns the distance from p to the shape surface, negative
	// inside the shape.
	Evaluate(p r3.Vec) float64
	// Bounds returns a box containing the shape.
	Bounds() r3.Box
}

// ErrShape is returned for unknown shape names and invalid dimensions.
var ErrShape = errors.New("seed: invalid shape")

// Shapes lists the names accepted by Shape.
var Shapes = []string{"sphere", "box", "cylinder"}

// Shape returns the named shape scaled to fit a cube of side size
// centered at the origin.
func Shape(name string, size float64) (SDF3, error) {
	switch name {
	case "sphere":
		return Sphere(size / 2)
	case "box":
		return Box(d3.Elem(size), 0)
	case "cylinder":
		return Cylinder(size, size/2, 0)
	}
	return nil, fmt.Errorf("%w: unknown shape %q, want one of %v", ErrShape, name, Shapes)
}

type sphere struct {
	radius float64
	bb     r3.Box
}

// Sphere returns a sphere of the given radius centered at the origin.
func Sphere(radius float64) (SDF3, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, fmt.Errorf("%w: sphere radius %g", ErrShape, radius)
	}
	d := d3.Elem(radius)
	return &sphere{
		radius: radius,
		bb:     r3.Box{Min: r3.Scale(-1, d), Max: d},
	}, nil
}

func (s *sphere) Evaluate(p r3.Vec) float64 { return r3.Norm(p) - s.radius }

func (s *sphere) Bounds() r3.Box { return s.bb }

type box struct {
	size  r3.Vec // half size minus rounding.
	round float64
	bb    r3.Box
}

// Box returns a box of the given size centered at the origin. Edges are
// rounded with radius round.
func Box(size r3.Vec, round float64) (SDF3, error) {
	if !d3.IsFinite(size) || size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, fmt.Errorf("%w: box size %v", ErrShape, size)
	}
	size = r3.Scale(0.5, size)
	if round < 0 || round > math.Min(size.X, math.Min(size.Y, size.Z)) {
		return nil, fmt.Errorf("%w: box rounding %g", ErrShape, round)
	}
	return &box{
		size:  r3.Sub(size, d3.Elem(round)),
		round: round,
		bb:    r3.Box{Min: r3.Scale(-1, size), Max: size},
	}, nil
}

func (s *box) Evaluate(p r3.Vec) float64 {
	d := r3.Sub(d3.AbsElem(p), s.size)
	outside := r3.Norm(d3.MaxElem(d, r3.Vec{}))
	inside := math.Min(d3.Max(d), 0)
	return outside + inside - s.round
}

func (s *box) Bounds() r3.Box { return s.bb }

type cylinder struct {
	height float64 // half height minus rounding.
	radius float64
	round  float64
	bb     r3.Box
}

// Cylinder returns a cylinder along the z axis centered at the origin.
// Edges are rounded with radius round.
func Cylinder(height, radius, round float64) (SDF3, error) {
	switch {
	case !(radius > 0) || math.IsInf(radius, 1):
		return nil, fmt.Errorf("%w: cylinder radius %g", ErrShape, radius)
	case !(height > 0) || math.IsInf(height, 1):
		return nil, fmt.Errorf("%w: cylinder height %g", ErrShape, height)
	case round < 0 || round > radius || height < 2*round:
		return nil, fmt.Errorf("%w: cylinder rounding %g", ErrShape, round)
	}
	d := r3.Vec{X: radius, Y: radius, Z: height / 2}
	return &cylinder{
		height: height/2 - round,
		radius: radius - round,
		round:  round,
		bb:     r3.Box{Min: r3.Scale(-1, d), Max: d},
	}, nil
}

func (s *cylinder) Evaluate(p r3.Vec) float64 {
	dr := math.Hypot(p.X, p.Y) - s.radius
	dz := math.Abs(p.Z) - s.height
	outside := math.Hypot(math.Max(dr, 0), math.Max(dz, 0))
	inside := math.Min(math.Max(dr, dz), 0)
	return outside + inside - s.round
}

func (s *cylinder) Bounds() r3.Box { return s.bb }

// Sample returns n points drawn uniformly from the interior of s by
// rejection sampling its bounding box. It fails if the shape fills too
// little of its bounds to collect n points.
func Sample(s SDF3, n int, seed int64) ([]r3.Vec, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative sample count %d", n)
	}
	bb := d3.Box(s.Bounds())
	if !d3.IsFinite(bb.Min) || !d3.IsFinite(bb.Max) || bb.Diagonal() == 0 {
		return nil, fmt.Errorf("%w: unbounded or empty bounds %v", ErrShape, s.Bounds())
	}
	rng := rand.New(rand.NewSource(seed))
	maxTries := 1024 + 64*n
	points := make([]r3.Vec, 0, n)
	for tries := 0; len(points) < n; tries++ {
		if tries == maxTries {
			return nil, fmt.Errorf("sampled %d of %d points in %d tries", len(points), n, tries)
		}
		p := bb.Random(rng)
		if s.Evaluate(p) < 0 {
			points = append(points, p)
		}
	}
	return points, nil
}
