// Package manifold provides the dimensionality reducers used between
// embedding and clustering, and by MetricMap.ReduceDimensions.
package manifold

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Reducer projects the rows of X onto components dimensions.
type Reducer interface {
	Reduce(X mat.Matrix, components int) (*mat.Dense, error)
}

// Reseeder is implemented by stochastic reducers. The sweep reseeds them
// once per run.
type Reseeder interface {
	Reseed(seed int64) Reducer
}

func checkInput(op string, X mat.Matrix, components int) (int, int, error) {
	if X == nil {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.Wrap(errors.ErrEmptyData, op)
	}
	if components < 1 {
		return 0, 0, errors.NewValidationError("components", "must be at least 1", components)
	}
	return r, c, nil
}

// centered returns X with every column shifted to zero mean.
func centered(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.DenseCopyOf(X)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += out.At(i, j)
		}
		mean := sum / float64(r)
		for i := 0; i < r; i++ {
			out.Set(i, j, out.At(i, j)-mean)
		}
	}
	return out
}

// fixSigns flips every column so that its entry of largest magnitude is
// positive, making projections reproducible across factorizations.
func fixSigns(Y *mat.Dense) {
	r, c := Y.Dims()
	for j := 0; j < c; j++ {
		best := 0.0
		for i := 0; i < r; i++ {
			if v := Y.At(i, j); math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		if best < 0 {
			for i := 0; i < r; i++ {
				Y.Set(i, j, -Y.At(i, j))
			}
		}
	}
}
