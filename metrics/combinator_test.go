package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearCombinatorNormalizesWeights(t *testing.T) {
	c, err := NewLinearCombinator(
		Weighted{Metric: ClusterCount{}, Weight: 1},
		Weighted{Metric: OutlierPenalty(), Weight: 3},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, c.Weights())

	got, err := c.Score(Context{Labels: []int{0, 0, 1, noise}})
	require.NoError(t, err)
	// 0.25*3 + 0.75*(-0.25)
	assert.InDelta(t, 0.5625, got, 1e-12)
	assert.Equal(t, "linear(0.25*cluster_count+0.75*neg_outlier_ratio)", c.Name())
}

func TestLinearCombinatorInvalid(t *testing.T) {
	_, err := NewLinearCombinator()
	assert.Error(t, err)

	_, err = NewLinearCombinator(Weighted{Metric: ClusterCount{}, Weight: 1}, Weighted{Metric: OutlierRatio{}, Weight: -1})
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		m, err := ByName(name)
		require.NoError(t, err, name)
		if name == "outlier_penalty" {
			assert.Equal(t, "neg_outlier_ratio", m.Name())
			continue
		}
		assert.Equal(t, name, m.Name())
	}

	_, err := ByName("calinski_harabasz")
	assert.Error(t, err)
}
