package benchmarks

import "math"

// Neutrality reduces x to len(x)/mu bits, each the majority vote of a block of
// mu consecutive bits. Trailing bits that do not fill a block are dropped.
func Neutrality(x []int, mu int) []int {
	n := len(x) / mu
	y := make([]int, n)
	for i := range y {
		ones := 0
		for _, v := range x[i*mu : (i+1)*mu] {
			ones += v
		}
		if float64(ones) >= float64(mu)/2 {
			y[i] = 1
		}
	}
	return y
}

// Ruggedness1 maps a OneMax value y of an n-bit string onto a staircase where
// pairs of neighbouring values share a fitness level.
func Ruggedness1(y float64, n int) float64 {
	s := float64(n)
	switch {
	case y == s:
		return math.Ceil(y/2) + 1
	case y < s && n%2 == 0:
		return math.Floor(y/2) + 1
	case y < s:
		return math.Ceil(y/2) + 1
	default:
		return y
	}
}
