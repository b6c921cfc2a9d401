// Package entropy provides the seeded random source shared by every system
// that samples randomness. Identical seeds and identical system order
// reproduce an identical simulation trace.
package entropy

import "math/rand"

// Source supplies uniform integers and floats.
type Source interface {
	// Intn returns a uniform integer in [min, max). It returns min when
	// max <= min.
	Intn(min, max int) int
	// Float returns a uniform float64 in [0, 1).
	Float() float64
}

// Seeded is a deterministic Source.
type Seeded struct {
	seed int64
	rng  *rand.Rand
}

// NewSeeded creates a Source seeded with seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Intn implements Source.
func (s *Seeded) Intn(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min)
}

// Float implements Source.
func (s *Seeded) Float() float64 {
	return s.rng.Float64()
}

// Stream derives an independent source for a subsystem, offset from the
// parent seed so adding a consumer in one subsystem does not shift another.
func (s *Seeded) Stream(offset int64) *Seeded {
	return NewSeeded(s.seed + offset)
}
