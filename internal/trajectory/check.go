package trajectory

import (
	"fmt"
	"math"
)

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// checkFinite rejects NaN in solver-facing inputs. Feeding NaN to an
// evaluator is an invariant violation, not a runtime condition.
func checkFinite(label string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) {
			return fmt.Errorf("trajectory: %s was fed NaN at index %d", label, i)
		}
	}
	return nil
}

// normDiff is the Euclidean norm of a-b.
func normDiff(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
