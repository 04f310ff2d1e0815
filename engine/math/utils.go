package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// WholeSteps returns how many complete steps of size step fit in total,
// i.e. floor(total / step). Non-positive steps yield zero.
func WholeSteps[T constraints.Float](total, step T) int {
	if step <= 0 {
		return 0
	}
	return int(m.Floor(float64(total / step)))
}

// Remainder returns what is left of total once every whole step has been
// taken out of it.
func Remainder[T constraints.Float](total, step T) T {
	return total - step*T(WholeSteps(total, step))
}
