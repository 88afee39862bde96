package metricmap

import (
	"math"

	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Normalize rescales the mapping in place to [0, 1] and returns the
// extrema it had before. NaN cells are ignored and stay NaN.
//
// When every defined cell holds the same value c nothing is rescaled and
// (max, min) is returned; both equal c. A map without defined cells
// returns (NaN, NaN).
func (m *MetricMap) Normalize() (float64, float64) {
	lo, hi, ok := m.mapping.MinMax()
	if !ok {
		return math.NaN(), math.NaN()
	}
	if hi == lo {
		return hi, lo
	}
	scale := hi - lo
	data := m.mapping.Data()
	for i, v := range data {
		if !math.IsNaN(v) {
			data[i] = (v - lo) / scale
		}
	}
	return lo, hi
}

// Smooth applies a separable Gaussian filter passes times, each pass
// feeding the next, and returns the grid as it was before. The kernel is
// truncated at 4 sigma and the boundary is mirrored (d c b a | a b c d).
// passes == 0 or sigma == 0 leaves the mapping untouched.
func (m *MetricMap) Smooth(passes int, sigma float64) (*Grid, error) {
	if passes < 0 {
		return nil, errors.NewValidationError("passes", "must not be negative", passes)
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, errors.NewValidationError("sigma", "must not be negative", sigma)
	}
	old := m.mapping.Clone()
	if passes == 0 || sigma == 0 || m.IsEmpty() {
		return old, nil
	}
	kernel := gaussianKernel(sigma, 4)
	for range passes {
		for axis := range m.mapping.NDim() {
			convolveAxis(m.mapping, axis, kernel)
		}
	}
	return old, nil
}

// gaussianKernel returns the normalised weights for offsets -r…r with
// r = int(truncate*sigma + 0.5).
func gaussianKernel(sigma, truncate float64) []float64 {
	r := int(truncate*sigma + 0.5)
	k := make([]float64, 2*r+1)
	var sum float64
	for i := range k {
		x := float64(i - r)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect maps an out-of-range index back into [0, n) by half-sample
// symmetric extension.
func reflect(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

func convolveAxis(g *Grid, axis int, kernel []float64) {
	n := g.shape[axis]
	stride := g.strides[axis]
	r := len(kernel) / 2
	data := g.data
	line := make([]float64, n)
	// 軸に沿った各1次元ラインを独立に畳み込む
	outer := len(data) / (n * stride)
	for o := 0; o < outer; o++ {
		for inner := 0; inner < stride; inner++ {
			base := o*n*stride + inner
			for i := 0; i < n; i++ {
				line[i] = data[base+i*stride]
			}
			for i := 0; i < n; i++ {
				var v float64
				for j, w := range kernel {
					v += w * line[reflect(i+j-r, n)]
				}
				data[base+i*stride] = v
			}
		}
	}
}

// ReduceOption configures ReduceDimensions.
type ReduceOption func(*reduceConfig)

type reduceConfig struct {
	reducer   manifold.Reducer
	neighbors int
	seed      *int64
}

// WithReducer replaces the default UMAP reducer.
func WithReducer(r manifold.Reducer) ReduceOption {
	return func(c *reduceConfig) { c.reducer = r }
}

// WithNeighbors sets the neighbour count of the default UMAP reducer.
func WithNeighbors(k int) ReduceOption {
	return func(c *reduceConfig) { c.neighbors = k }
}

// WithSeed fixes the seed of the default UMAP reducer for reproducible maps.
func WithSeed(seed int64) ReduceOption {
	return func(c *reduceConfig) { c.seed = &seed }
}

func (c reduceConfig) resolve() manifold.Reducer {
	if c.reducer != nil {
		return c.reducer
	}
	opts := []manifold.UMAPOption{manifold.WithUMAPNeighbors(c.neighbors)}
	if c.seed != nil {
		opts = append(opts, manifold.WithUMAPSeed(*c.seed))
	}
	return manifold.NewUMAP(opts...)
}

// ReduceDimensions projects the mapping, viewed as a matrix whose rows run
// along the first axis, onto target components and returns the prior grid.
//
// If the map already has target or more dimensions the call is a no-op
// that returns a copy of the current grid.
func (m *MetricMap) ReduceDimensions(target int, opts ...ReduceOption) (*Grid, error) {
	old := m.mapping.Clone()
	if m.NDim() >= target {
		return old, nil
	}
	cfg := reduceConfig{neighbors: manifold.DefaultUMAPNeighbors}
	for _, opt := range opts {
		opt(&cfg)
	}
	reducer := cfg.resolve()
	if m.IsEmpty() {
		return nil, errors.Wrap(errors.ErrEmptyData, "MetricMap.ReduceDimensions")
	}
	if hasNaN(m.mapping.Data()) {
		return nil, errors.NewValueError("MetricMap.ReduceDimensions", "mapping has undefined (NaN) cells")
	}

	reduced, err := reducer.Reduce(m.mapping.Matrix(), target)
	if err != nil {
		return nil, errors.Wrap(err, "MetricMap.ReduceDimensions")
	}
	m.mapping = GridFromMatrix(reduced)
	first, origin := "axis_0", 0
	if len(m.Hyperparameters) > 0 {
		first = m.Hyperparameters[0]
	}
	if len(m.Origin) > 0 {
		origin = m.Origin[0]
	}
	m.Hyperparameters = []string{first, "component"}
	m.Origin = []int{origin, 0}
	return old, nil
}

func hasNaN(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
