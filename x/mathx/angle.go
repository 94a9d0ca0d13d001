package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Wrap folds v into [0, period).
func Wrap[T constraints.Float](v, period T) T {
	if period <= 0 {
		return v
	}
	r := T(math.Mod(float64(v), float64(period)))
	if r < 0 {
		r += period
	}
	if r >= period {
		r = 0
	}
	return r
}

// Degrees converts radians to degrees.
func Degrees[T constraints.Float](rad T) T {
	return rad * 180 / math.Pi
}
