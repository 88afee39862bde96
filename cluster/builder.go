package cluster

import (
	"fmt"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Parameter names accepted by HDBSCANBuilder.
const (
	ParamMinClusterSize               = "min_cluster_size"
	ParamMinSamples                   = "min_samples"
	ParamClusterSelectionEpsilonMilli = "cluster_selection_epsilon_milli"
	ParamAllowSingleCluster           = "allow_single_cluster"
)

// Parameter names accepted by KMeansBuilder.
const (
	ParamNClusters = "n_clusters"
	ParamBatchSize = "batch_size"
)

// HDBSCANBuilder applies sampled integers to a copy of Base. The epsilon is
// sampled in thousandths because samplers produce integers.
type HDBSCANBuilder struct {
	Base HDBSCAN
}

// NewHDBSCANBuilder starts every configuration from base.
func NewHDBSCANBuilder(base HDBSCAN) *HDBSCANBuilder {
	return &HDBSCANBuilder{Base: base}
}

// Parameters implements sweep.Builder.
func (b *HDBSCANBuilder) Parameters() []string {
	return []string{ParamMinClusterSize, ParamMinSamples, ParamClusterSelectionEpsilonMilli, ParamAllowSingleCluster}
}

// Build implements sweep.Builder.
func (b *HDBSCANBuilder) Build(values []int, names []string) (HDBSCAN, error) {
	cfg := b.Base
	if len(values) != len(names) {
		return cfg, errors.NewInputShapeError("HDBSCANBuilder.Build", []int{len(names)}, []int{len(values)})
	}
	for i, name := range names {
		v := values[i]
		switch name {
		case ParamMinClusterSize:
			cfg.MinClusterSize = v
		case ParamMinSamples:
			cfg.MinSamples = v
		case ParamClusterSelectionEpsilonMilli:
			cfg.ClusterSelectionEpsilon = float64(v) / 1000
		case ParamAllowSingleCluster:
			cfg.AllowSingleCluster = v != 0
		default:
			return cfg, errors.NewValidationError("parameter", "unknown HDBSCAN parameter", name)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// KMeansBuilder applies sampled integers to a copy of Base.
type KMeansBuilder struct {
	Base MiniBatchKMeans
}

// NewKMeansBuilder starts every configuration from base.
func NewKMeansBuilder(base MiniBatchKMeans) *KMeansBuilder {
	return &KMeansBuilder{Base: base}
}

// Parameters implements sweep.Builder.
func (b *KMeansBuilder) Parameters() []string {
	return []string{ParamNClusters, ParamBatchSize}
}

// Build implements sweep.Builder.
func (b *KMeansBuilder) Build(values []int, names []string) (MiniBatchKMeans, error) {
	cfg := b.Base
	if len(values) != len(names) {
		return cfg, errors.NewInputShapeError("KMeansBuilder.Build", []int{len(names)}, []int{len(values)})
	}
	for i, name := range names {
		switch name {
		case ParamNClusters:
			cfg.NClusters = values[i]
		case ParamBatchSize:
			cfg.BatchSize = values[i]
		default:
			return cfg, errors.NewValidationError("parameter", fmt.Sprintf("unknown k-means parameter %q", name), values[i])
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
