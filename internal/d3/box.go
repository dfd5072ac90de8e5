package d3

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// d3.Box is a 3d bounding box.
type Box r3.Box

// NewBox creates a 3d box with a given center and size.
// Negative components of size will be interpreted as zero.
func NewBox(center, size r3.Vec) Box {
	size = MaxElem(size, r3.Vec{}) // set negative values to zero.
	half := r3.Scale(0.5, size)
	return Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Diagonal returns the length of the box diagonal.
func (a Box) Diagonal() float64 {
	return r3.Norm(a.Size())
}

// Random returns a random point within a bounding box drawn from rng.
func (a Box) Random(rng *rand.Rand) r3.Vec {
	return r3.Vec{
		X: randomRange(rng, a.Min.X, a.Max.X),
		Y: randomRange(rng, a.Min.Y, a.Max.Y),
		Z: randomRange(rng, a.Min.Z, a.Max.Z),
	}
}

// RandomSet returns a set of random points from within a bounding box.
func (a Box) RandomSet(rng *rand.Rand, n int) Set {
	s := make([]r3.Vec, n)
	for i := range s {
		s[i] = a.Random(rng)
	}
	return s
}

// randomRange returns a random float64 [a,b)
func randomRange(rng *rand.Rand, a, b float64) float64 {
	return a + (b-a)*rng.Float64()
}
