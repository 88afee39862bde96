package sampler

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Linspace returns n evenly spaced values over [start, end].
// Both endpoints are included exactly; n == 1 yields only start.
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	dst := make([]float64, n)
	if n == 1 {
		dst[0] = start
		return dst
	}
	floats.Span(dst, start, end)
	dst[n-1] = end
	return dst
}

// Geomspace returns n values evenly spaced on a log scale over [start, end].
// Both endpoints are included exactly. start and end must be positive.
func Geomspace(start, end float64, n int) ([]float64, error) {
	if start <= 0 || end <= 0 {
		return nil, errors.NewValueError("Geomspace",
			fmt.Sprintf("bounds must be positive, got [%g, %g]", start, end))
	}
	if n <= 0 {
		return nil, nil
	}
	dst := make([]float64, n)
	if n == 1 {
		dst[0] = start
		return dst, nil
	}
	floats.LogSpan(dst, start, end)
	for i := range dst {
		if math.IsNaN(dst[i]) {
			return nil, errors.NewNumericalInstabilityError("Geomspace", dst)
		}
	}
	dst[0], dst[n-1] = start, end
	return dst, nil
}

func sortedUnique(values []int) []int {
	slices.Sort(values)
	return slices.Compact(values)
}
