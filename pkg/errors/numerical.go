package errors

import (
	"math"
)

// CheckNumericalStability returns a NumericalInstabilityError listing up to
// ten NaN or Inf entries of values.
func CheckNumericalStability(operation string, values []float64) error {
	var unstable []float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			unstable = append(unstable, v)
			if len(unstable) >= 10 {
				break
			}
		}
	}
	if len(unstable) > 0 {
		return NewNumericalInstabilityError(operation, unstable)
	}
	return nil
}
