package mathx

import "math"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

// Mod is the Euclidean remainder; the result is always in [0, b).
func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Floor32 floors a float32 world coordinate to its block coordinate.
func Floor32(v float32) int {
	return int(math.Floor(float64(v)))
}

func Ceil32(v float32) int {
	return int(math.Ceil(float64(v)))
}
