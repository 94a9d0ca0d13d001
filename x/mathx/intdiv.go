package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns a/b rounded half away from zero. b == 0 yields 0.
func RoundDiv[T constraints.Signed](a, b T) T {
	if b == 0 {
		return 0
	}
	if (a < 0) != (b < 0) {
		return (a - b/2) / b
	}
	return (a + b/2) / b
}
