package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/clusview/cluster"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/sampler"
)

func TestConfigurationIteratorOrder(t *testing.T) {
	it, err := NewConfigurationIterator[cluster.HDBSCAN](
		cluster.NewHDBSCANBuilder(*cluster.NewHDBSCAN()),
		sampler.NewLinear(cluster.ParamMinClusterSize, 2, 4, 1),
		sampler.NewLinear(cluster.ParamMinSamples, 1, 2, 1),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{cluster.ParamMinClusterSize, cluster.ParamMinSamples}, it.Parameters())

	n, err := it.Count()
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	combos, err := it.Combinations()
	require.NoError(t, err)
	var got [][]int
	for c := range combos {
		got = append(got, append([]int(nil), c...))
	}
	assert.Equal(t, [][]int{{2, 1}, {2, 2}, {3, 1}, {3, 2}, {4, 1}, {4, 2}}, got)

	configs, errFn, err := it.Configurations()
	require.NoError(t, err)
	var sizes, samples []int
	for _, cfg := range configs {
		sizes = append(sizes, cfg.MinClusterSize)
		samples = append(samples, cfg.MinSamples)
	}
	require.NoError(t, errFn())
	assert.Equal(t, []int{2, 2, 3, 3, 4, 4}, sizes)
	assert.Equal(t, []int{1, 2, 1, 2, 1, 2}, samples)
}

func TestConfigurationIteratorEarlyStop(t *testing.T) {
	it, err := NewConfigurationIterator[cluster.HDBSCAN](
		cluster.NewHDBSCANBuilder(*cluster.NewHDBSCAN()),
		sampler.NewGeometric(cluster.ParamMinClusterSize, 2, 64, 6),
	)
	require.NoError(t, err)

	configs, errFn, err := it.Configurations()
	require.NoError(t, err)
	seen := 0
	for range configs {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
	assert.NoError(t, errFn())
}

func TestConfigurationIteratorBuildError(t *testing.T) {
	// min_cluster_size=1 は HDBSCAN の検証で拒否される
	it, err := NewConfigurationIterator[cluster.HDBSCAN](
		cluster.NewHDBSCANBuilder(*cluster.NewHDBSCAN()),
		sampler.NewLinear(cluster.ParamMinClusterSize, 1, 3, 1),
	)
	require.NoError(t, err)

	configs, errFn, err := it.Configurations()
	require.NoError(t, err)
	count := 0
	for range configs {
		count++
	}
	assert.Zero(t, count)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(errFn(), &valErr))
}

func TestConfigurationIteratorInvalid(t *testing.T) {
	builder := cluster.NewHDBSCANBuilder(*cluster.NewHDBSCAN())
	var valErr *errors.ValidationError

	_, err := NewConfigurationIterator[cluster.HDBSCAN](nil)
	assert.True(t, errors.As(err, &valErr))

	_, err = NewConfigurationIterator[cluster.HDBSCAN](builder)
	assert.True(t, errors.As(err, &valErr))

	_, err = NewConfigurationIterator[cluster.HDBSCAN](builder, sampler.NewLinear("n_neighbors", 1, 2, 1))
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "n_neighbors", valErr.Value)

	_, err = NewConfigurationIterator[cluster.HDBSCAN](builder,
		sampler.NewLinear(cluster.ParamMinSamples, 1, 2, 1),
		sampler.NewLinear(cluster.ParamMinSamples, 3, 4, 1),
	)
	assert.True(t, errors.As(err, &valErr))
}

func TestConfigurationIteratorSamplerError(t *testing.T) {
	it, err := NewConfigurationIterator[cluster.HDBSCAN](
		cluster.NewHDBSCANBuilder(*cluster.NewHDBSCAN()),
		sampler.NewLinear(cluster.ParamMinClusterSize, 5, 2, 1),
	)
	require.NoError(t, err)

	_, err = it.Combinations()
	assert.Error(t, err)
	_, err = it.Count()
	assert.Error(t, err)
	_, _, err = it.Configurations()
	assert.Error(t, err)
}
