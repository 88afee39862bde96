package metricmap

import (
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/metrics"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// 比較関数はすべて同じ形状のマップを要求する。ブロードキャストはしない。

func checkSameShape(phase string, a, b *MetricMap) error {
	if !a.mapping.SameShape(b.mapping) {
		err := errors.NewInputShapeError(phase, a.Shape(), b.Shape())
		var shapeErr *errors.InputShapeError
		if errors.As(err, &shapeErr) {
			shapeErr.Feature = b.MetricName
		}
		return err
	}
	return nil
}

// flatten views both mappings as vectors; ok is false for empty maps.
func flatten(a, b *MetricMap) (va, vb *mat.VecDense, ok bool) {
	if a.IsEmpty() {
		return nil, nil, false
	}
	return mat.NewVecDense(a.mapping.Len(), a.mapping.Data()),
		mat.NewVecDense(b.mapping.Len(), b.mapping.Data()), true
}

// TotalDistance is the sum of |a-b| over all cells; 0 for empty maps.
func TotalDistance(a, b *MetricMap) (float64, error) {
	if err := checkSameShape("total_distance", a, b); err != nil {
		return 0, err
	}
	va, vb, ok := flatten(a, b)
	if !ok {
		return 0, nil
	}
	return metrics.SumAbsoluteError(va, vb)
}

// AverageDistance is the mean of |a-b| over all cells.
func AverageDistance(a, b *MetricMap) (float64, error) {
	if err := checkSameShape("average_distance", a, b); err != nil {
		return 0, err
	}
	va, vb, ok := flatten(a, b)
	if !ok {
		return 0, errors.NewValueError("AverageDistance", "maps are empty")
	}
	return metrics.MAE(va, vb)
}

// MaxDistance is the largest |a-b| over all cells.
func MaxDistance(a, b *MetricMap) (float64, error) {
	if err := checkSameShape("max_distance", a, b); err != nil {
		return 0, err
	}
	va, vb, ok := flatten(a, b)
	if !ok {
		return 0, errors.NewValueError("MaxDistance", "maps are empty")
	}
	return metrics.MaxError(va, vb)
}

// MeanSquaredError is the mean of (a-b)² over all cells.
func MeanSquaredError(a, b *MetricMap) (float64, error) {
	if err := checkSameShape("mean_squared_error", a, b); err != nil {
		return 0, err
	}
	va, vb, ok := flatten(a, b)
	if !ok {
		return 0, errors.NewValueError("MeanSquaredError", "maps are empty")
	}
	return metrics.MSE(va, vb)
}

// LinearCombination returns Σ weights[i]·maps[i]. Weights are used as
// given, without normalisation. The result takes its axes from maps[0] and
// is named "Linear Combination of <name>, <name>, …".
func LinearCombination(maps []*MetricMap, weights []float64) (*MetricMap, error) {
	if len(maps) == 0 {
		return nil, errors.NewValidationError("maps", "at least one map is required", 0)
	}
	if len(weights) != len(maps) {
		return nil, errors.NewValidationError("weights", "must have one weight per map", len(weights))
	}
	names := make([]string, len(maps))
	for i, m := range maps {
		if err := checkSameShape("linear_combination", maps[0], m); err != nil {
			return nil, err
		}
		names[i] = m.MetricName
	}

	out := maps[0].Clone()
	out.MetricName = "Linear Combination of " + strings.Join(names, ", ")
	data := out.mapping.Data()
	clear(data)
	for i, m := range maps {
		w := weights[i]
		for j, v := range m.mapping.Data() {
			data[j] += w * v
		}
	}
	return out, nil
}
