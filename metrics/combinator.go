package metrics

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Weighted pairs a metric with its weight in a LinearCombinator.
type Weighted struct {
	Metric Metric
	Weight float64
}

// LinearCombinator scores a partition as the weighted sum of several
// metrics. Weights are normalized to sum to 1 at construction.
type LinearCombinator struct {
	weighted []Weighted
}

// NewLinearCombinator normalizes the weights of weighted.
func NewLinearCombinator(weighted ...Weighted) (*LinearCombinator, error) {
	if len(weighted) == 0 {
		return nil, errors.NewValidationError("metrics", "at least one weighted metric is required", 0)
	}
	var total float64
	for _, w := range weighted {
		if w.Metric == nil {
			return nil, errors.NewValidationError("metrics", "nil metric", nil)
		}
		total += w.Weight
	}
	if total == 0 {
		return nil, errors.NewValidationError("weights", "must not sum to zero", total)
	}
	normalized := make([]Weighted, len(weighted))
	for i, w := range weighted {
		normalized[i] = Weighted{Metric: w.Metric, Weight: w.Weight / total}
	}
	return &LinearCombinator{weighted: normalized}, nil
}

// Weights returns the normalized weights in construction order.
func (c *LinearCombinator) Weights() []float64 {
	out := make([]float64, len(c.weighted))
	for i, w := range c.weighted {
		out[i] = w.Weight
	}
	return out
}

func (c *LinearCombinator) Name() string {
	parts := make([]string, len(c.weighted))
	for i, w := range c.weighted {
		parts[i] = fmt.Sprintf("%g*%s", w.Weight, w.Metric.Name())
	}
	return "linear(" + strings.Join(parts, "+") + ")"
}

func (c *LinearCombinator) Score(ctx Context) (float64, error) {
	var combined float64
	for _, w := range c.weighted {
		v, err := w.Metric.Score(ctx)
		if err != nil {
			return 0, errors.Wrapf(err, "scoring %s", w.Metric.Name())
		}
		combined += v * w.Weight
	}
	return combined, nil
}

// SignChange negates a metric, turning a cost into a reward.
type SignChange struct {
	Metric Metric
}

func (s SignChange) Name() string { return "neg_" + s.Metric.Name() }

func (s SignChange) Score(ctx Context) (float64, error) {
	v, err := s.Metric.Score(ctx)
	return -v, err
}

// OutlierPenalty is the negated outlier ratio.
func OutlierPenalty() Metric {
	return SignChange{Metric: OutlierRatio{}}
}

// ByName resolves a metric name used in benchmark configurations.
func ByName(name string) (Metric, error) {
	switch name {
	case "silhouette":
		return SilhouetteScore{}, nil
	case "davies_bouldin":
		return DaviesBouldinScore{}, nil
	case "v_measure":
		return NewVMeasureScore(1), nil
	case "outlier_ratio":
		return OutlierRatio{}, nil
	case "outlier_penalty", "neg_outlier_ratio":
		return OutlierPenalty(), nil
	case "cluster_count":
		return ClusterCount{}, nil
	case "average_cluster_size":
		return AverageClusterSize{}, nil
	}
	return nil, errors.NewValidationError("metric", "unknown metric", name)
}

// Names lists every name ByName accepts, aliases excluded.
func Names() []string {
	return []string{
		"silhouette", "davies_bouldin", "v_measure",
		"outlier_ratio", "outlier_penalty", "cluster_count", "average_cluster_size",
	}
}
