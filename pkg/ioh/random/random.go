// Package random implements the deterministic generator used to derive
// instance transformations. It reproduces the legacy BBOB uniform generator
// (Park-Miller minimal standard with a 32-entry shuffle table), so the same
// seed yields bit-identical sequences on every platform.
package random

import "math"

const (
	modulus    = 2147483647
	multiplier = 16807
	quotient   = 127773 // modulus / multiplier
	remainder  = 2836   // modulus % multiplier
	tableSize  = 32
	warmup     = 40

	// tiny replaces exact zeros so Box-Muller never takes log(0).
	tiny = 1e-99
)

// Seed derives the stream seed of a (problem, instance) pair.
func Seed(problemID, instanceID int) int64 {
	return int64(problemID) + 10000*int64(instanceID)
}

// Stream is a reproducible sequence of pseudo-random numbers. A Stream is not
// safe for concurrent use.
type Stream struct {
	seed  int64
	state int64
	last  int64
	table [tableSize]int64
}

// NewStream returns a stream positioned at the start of the sequence for seed.
// Negative seeds are mirrored and seeds below one are raised to one.
func NewStream(seed int64) *Stream {
	if seed < 0 {
		seed = -seed
	}
	if seed < 1 {
		seed = 1
	}
	s := &Stream{seed: seed, state: seed}
	for i := warmup - 1; i >= 0; i-- {
		s.step()
		if i < tableSize {
			s.table[i] = s.state
		}
	}
	s.last = s.table[0]
	return s
}

// Seed returns the normalized seed the stream was created with.
func (s *Stream) Seed() int64 {
	return s.seed
}

func (s *Stream) step() {
	hi := s.state / quotient
	s.state = multiplier*(s.state-hi*quotient) - remainder*hi
	if s.state < 0 {
		s.state += modulus
	}
}

// Uniform returns the next value in (0, 1).
func (s *Stream) Uniform() float64 {
	s.step()
	idx := s.last / 67108865
	s.last = s.table[idx]
	s.table[idx] = s.state
	r := float64(s.last) / 2.147483647e9
	if r == 0 {
		r = tiny
	}
	return r
}

// UniformN returns the next n uniform values.
func (s *Stream) UniformN(n int) []float64 {
	r := make([]float64, n)
	for i := range r {
		r[i] = s.Uniform()
	}
	return r
}

// GaussianN returns n standard normal values. It consumes 2n uniform values
// and pairs u[i] with u[n+i].
func (s *Stream) GaussianN(n int) []float64 {
	u := s.UniformN(2 * n)
	g := make([]float64, n)
	for i := range g {
		g[i] = math.Sqrt(-2*math.Log(u[i])) * math.Cos(2*math.Pi*u[n+i])
		if g[i] == 0 {
			g[i] = tiny
		}
	}
	return g
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (s *Stream) IntN(n int) int {
	if n <= 0 {
		panic("random: invalid argument to IntN")
	}
	i := int(math.Floor(s.Uniform() * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// Uniform returns the first n uniform values of the stream seeded with seed.
func Uniform(n int, seed int64) []float64 {
	return NewStream(seed).UniformN(n)
}

// Gaussian returns the first n normal values of the stream seeded with seed.
func Gaussian(n int, seed int64) []float64 {
	return NewStream(seed).GaussianN(n)
}
