package framework

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Better reports whether a is strictly better than b under t. Ties are never
// an improvement.
func Better(a, b float64, t OptimizationType) bool {
	if t == Maximization {
		return a > b
	}
	return a < b
}

// Worst returns the sentinel every real objective value improves upon.
func Worst(t OptimizationType) float64 {
	if t == Maximization {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Unreachable returns the sentinel used as optimum when the true optimum is
// unknown: no objective value can be strictly better than it.
func Unreachable(t OptimizationType) float64 {
	if t == Maximization {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

// BetterObjectives checks if a is strictly better than b in every objective.
func BetterObjectives(a, b []float64, t OptimizationType) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if !Better(a[i], b[i], t) {
			return false
		}
	}
	return true
}

// EqualObjectives checks for exact element-wise equality, no tolerance.
func EqualObjectives(a, b []float64) bool {
	return floats.Equal(a, b)
}

// Fill returns a new slice of length n holding v at every index.
func Fill[T any](v T, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = v
	}
	return s
}
