package metricmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

func gridMap(t *testing.T, name string, data []float64, shape ...int) *MetricMap {
	t.Helper()
	g, err := NewGridFrom(data, shape...)
	require.NoError(t, err)
	m, err := FromGrid(name, g)
	require.NoError(t, err)
	return m
}

func TestNormalize(t *testing.T) {
	m := gridMap(t, "m", []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	lo, hi := m.Normalize()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 6.0, hi)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, m.Mapping().Data(), 1e-12)

	gotLo, gotHi, _ := m.Mapping().MinMax()
	assert.Equal(t, 0.0, gotLo)
	assert.Equal(t, 1.0, gotHi)
}

func TestNormalizeDegenerate(t *testing.T) {
	m := gridMap(t, "m", []float64{0.3, 0.3, 0.3, 0.3}, 2, 2)
	first, second := m.Normalize()
	// 退化ケースは (max, min) を返す。どちらも同じ値
	assert.Equal(t, 0.3, first)
	assert.Equal(t, 0.3, second)
	assert.Equal(t, []float64{0.3, 0.3, 0.3, 0.3}, m.Mapping().Data())
}

func TestNormalizeIgnoresNaN(t *testing.T) {
	m := gridMap(t, "m", []float64{2, math.NaN(), 4, 6}, 2, 2)
	lo, hi := m.Normalize()
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 6.0, hi)
	data := m.Mapping().Data()
	assert.True(t, math.IsNaN(data[1]))
	assert.Equal(t, []float64{0, 0.5, 1}, []float64{data[0], data[2], data[3]})

	lo, hi = gridMap(t, "m", []float64{math.NaN()}, 1).Normalize()
	assert.True(t, math.IsNaN(lo) && math.IsNaN(hi))
}

func TestSmoothNoOp(t *testing.T) {
	for _, tc := range []struct {
		name   string
		passes int
		sigma  float64
	}{
		{"zero passes", 0, 3.5},
		{"zero sigma", 2, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := gridMap(t, "m", []float64{1, 2, 3, 4, 5, 6}, 2, 3)
			before := m.Mapping().Clone()
			old, err := m.Smooth(tc.passes, tc.sigma)
			require.NoError(t, err)
			assert.True(t, old.Equal(m.Mapping()))
			assert.True(t, before.Equal(m.Mapping()))
		})
	}
}

func TestSmoothImpulse(t *testing.T) {
	m := gridMap(t, "m", []float64{0, 0, 1, 0, 0}, 5)
	old, err := m.Smooth(1, 1)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 1, 0, 0}, old.Data())
	want := []float64{0.05842298904073567, 0.24210527628121548, 0.39894346935609776, 0.24210527628121548, 0.05842298904073567}
	assert.InDeltaSlice(t, want, m.Mapping().Data(), 1e-12)

	var sum float64
	for _, v := range m.Mapping().Data() {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12, "mirrored boundary keeps the mass")
}

func TestSmoothConstantField(t *testing.T) {
	data := make([]float64, 4*5*3)
	for i := range data {
		data[i] = 0.42
	}
	m := gridMap(t, "m", data, 4, 5, 3)
	_, err := m.Smooth(3, 1.5)
	require.NoError(t, err)
	for _, v := range m.Mapping().Data() {
		assert.InDelta(t, 0.42, v, 1e-12)
	}
}

func TestSmoothInvalid(t *testing.T) {
	m := gridMap(t, "m", []float64{1, 2}, 2)
	var valErr *errors.ValidationError
	_, err := m.Smooth(-1, 1)
	assert.True(t, errors.As(err, &valErr))
	_, err = m.Smooth(1, -0.5)
	assert.True(t, errors.As(err, &valErr))
}

func TestReflect(t *testing.T) {
	got := make([]int, 0, 12)
	for i := -4; i < 8; i++ {
		got = append(got, reflect(i, 3))
	}
	assert.Equal(t, []int{2, 2, 1, 0, 0, 1, 2, 2, 1, 0, 0, 1}, got)
}

func TestReduceDimensionsGuard(t *testing.T) {
	for _, target := range []int{1, 2} {
		m := gridMap(t, "m", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, 3)
		before := m.Mapping()
		old, err := m.ReduceDimensions(target)
		require.NoError(t, err)
		assert.Same(t, before, m.Mapping(), "target %d leaves the mapping in place", target)
		assert.True(t, old.Equal(before))
		assert.NotSame(t, before, old)
	}
}

func TestReduceDimensionsIsomap(t *testing.T) {
	g, err := NewGridFrom([]float64{0, 1, 2, 3, 4, 5}, 6)
	require.NoError(t, err)
	m, err := FromGrid("score", g, "min_cluster_size")
	require.NoError(t, err)
	m.Origin = []int{5}

	old, err := m.ReduceDimensions(2, WithReducer(manifold.NewIsomap(manifold.WithNeighbors(2))))
	require.NoError(t, err)
	assert.Equal(t, []int{6}, old.Shape())
	assert.Equal(t, []int{6, 2}, m.Shape())
	assert.Equal(t, []string{"min_cluster_size", "component"}, m.Hyperparameters)
	assert.Equal(t, []int{5, 0}, m.Origin)

	// 1次元の系列は第1成分に等長で展開され、第2成分は0で埋まる
	reduced := m.Mapping()
	for i := 1; i < 6; i++ {
		assert.InDelta(t, 1.0, math.Abs(reduced.At(i, 0)-reduced.At(i-1, 0)), 1e-6)
		assert.InDelta(t, 0.0, reduced.At(i, 1), 1e-6)
	}
}

func TestReduceDimensionsDefaultsToUMAP(t *testing.T) {
	cfg := reduceConfig{neighbors: manifold.DefaultUMAPNeighbors}
	u, ok := cfg.resolve().(*manifold.UMAP)
	require.True(t, ok)
	assert.Equal(t, manifold.DefaultUMAPNeighbors, u.Neighbors)

	WithNeighbors(4)(&cfg)
	WithSeed(7)(&cfg)
	u, ok = cfg.resolve().(*manifold.UMAP)
	require.True(t, ok)
	assert.Equal(t, 4, u.Neighbors)
	assert.Equal(t, int64(7), u.Seed)

	WithReducer(manifold.PCA{})(&cfg)
	assert.Equal(t, manifold.PCA{}, cfg.resolve())
}

type constantReducer struct{ calls int }

func (r *constantReducer) Reduce(X mat.Matrix, components int) (*mat.Dense, error) {
	r.calls++
	rows, _ := X.Dims()
	out := mat.NewDense(rows, components, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < components; j++ {
			out.Set(i, j, 7)
		}
	}
	return out, nil
}

func TestReduceDimensionsCustomReducer(t *testing.T) {
	r := &constantReducer{}
	var _ manifold.Reducer = r
	m := gridMap(t, "m", []float64{3, 1, 2}, 3)
	_, err := m.ReduceDimensions(3, WithReducer(r))
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, []int{3, 3}, m.Shape())
	for _, v := range m.Mapping().Data() {
		assert.Equal(t, 7.0, v)
	}
}

func TestReduceDimensionsErrors(t *testing.T) {
	_, err := Empty().ReduceDimensions(2)
	assert.ErrorIs(t, err, errors.ErrEmptyData)

	m := gridMap(t, "m", []float64{1, math.NaN(), 3}, 3)
	_, err = m.ReduceDimensions(2)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))
	assert.Equal(t, []int{3}, m.Shape(), "failed reductions leave the map untouched")

	_, err = m.ReduceDimensions(2, WithReducer(manifold.PCA{}))
	assert.Error(t, err)
}
