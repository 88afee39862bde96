// Package sweep expands parameter samplers into clustering configurations
// and runs them through a worker pool, aggregating every metric into a
// sampling table per metric.
package sweep

import (
	"fmt"
	"iter"
	"slices"

	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/sampler"
)

// Builder applies sampled values to the named fields of a fresh
// configuration of type C.
type Builder[C any] interface {
	// Parameters lists the parameter names Build accepts.
	Parameters() []string
	// Build returns a new configuration with values[i] assigned to names[i].
	Build(values []int, names []string) (C, error)
}

// ConfigurationIterator combines samplers into the Cartesian product of
// their candidate values. The order of samplers fixes the tuple order: the
// first sampler varies slowest, the last fastest.
type ConfigurationIterator[C any] struct {
	builder  Builder[C]
	samplers []sampler.Sampler
	names    []string
}

// NewConfigurationIterator validates that every sampler targets a distinct
// parameter known to builder.
func NewConfigurationIterator[C any](builder Builder[C], samplers ...sampler.Sampler) (*ConfigurationIterator[C], error) {
	if builder == nil {
		return nil, errors.NewValidationError("builder", "must not be nil", nil)
	}
	if len(samplers) == 0 {
		return nil, errors.NewValidationError("samplers", "at least one sampler is required", 0)
	}

	known := builder.Parameters()
	names := make([]string, len(samplers))
	for i, s := range samplers {
		name := s.Name()
		if !slices.Contains(known, name) {
			return nil, errors.NewValidationError("parameter",
				fmt.Sprintf("unknown parameter, expected one of %v", known), name)
		}
		if slices.Contains(names[:i], name) {
			return nil, errors.NewValidationError("parameter", "sampled more than once", name)
		}
		names[i] = name
	}
	return &ConfigurationIterator[C]{builder: builder, samplers: samplers, names: names}, nil
}

// Parameters returns the sampled parameter names in tuple order.
func (it *ConfigurationIterator[C]) Parameters() []string {
	return slices.Clone(it.names)
}

func (it *ConfigurationIterator[C]) ranges() ([][]int, error) {
	ranges := make([][]int, len(it.samplers))
	for i, s := range it.samplers {
		r, err := s.SampleRange()
		if err != nil {
			return nil, errors.Wrapf(err, "sampling %q", s.Name())
		}
		ranges[i] = r
	}
	return ranges, nil
}

// Combinations re-samples every sampler and returns the product of their
// values. Sampler errors are returned here rather than during iteration.
func (it *ConfigurationIterator[C]) Combinations() (iter.Seq[[]int], error) {
	ranges, err := it.ranges()
	if err != nil {
		return nil, err
	}
	return sampler.Product(ranges), nil
}

// Configurations yields one fully built configuration per combination.
// Build failures stop the sequence; the error is reported through the
// returned function after iteration ends.
func (it *ConfigurationIterator[C]) Configurations() (iter.Seq2[[]int, C], func() error, error) {
	combos, err := it.Combinations()
	if err != nil {
		return nil, nil, err
	}
	var buildErr error
	seq := func(yield func([]int, C) bool) {
		buildErr = nil
		for values := range combos {
			cfg, err := it.builder.Build(values, it.names)
			if err != nil {
				buildErr = errors.Wrapf(err, "building configuration %v", values)
				return
			}
			if !yield(values, cfg) {
				return
			}
		}
	}
	return seq, func() error { return buildErr }, nil
}

// Count is the size of the product. Like Combinations it re-samples.
func (it *ConfigurationIterator[C]) Count() (int, error) {
	ranges, err := it.ranges()
	if err != nil {
		return 0, err
	}
	return sampler.ProductSize(ranges), nil
}
