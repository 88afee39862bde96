package manifold

import (
	"github.com/nozzle/umap"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// DefaultUMAPNeighbors is the neighbourhood size of a UMAP built by NewUMAP.
const DefaultUMAPNeighbors = 15

// UMAP reduces with Uniform Manifold Approximation and Projection.
// Zero Epochs keeps the library default.
type UMAP struct {
	Neighbors int
	MinDist   float64
	Spread    float64
	Metric    string
	Epochs    int
	Seed      int64
}

// UMAPOption configures a UMAP.
type UMAPOption func(*UMAP)

// WithUMAPNeighbors sets the kNN neighbourhood size.
func WithUMAPNeighbors(k int) UMAPOption {
	return func(u *UMAP) { u.Neighbors = k }
}

// WithMinDist sets the minimum distance between embedded points.
func WithMinDist(d float64) UMAPOption {
	return func(u *UMAP) { u.MinDist = d }
}

// WithMetric sets the input distance ("euclidean", "cosine", ...).
func WithMetric(metric string) UMAPOption {
	return func(u *UMAP) { u.Metric = metric }
}

// WithEpochs sets the number of optimisation epochs.
func WithEpochs(n int) UMAPOption {
	return func(u *UMAP) { u.Epochs = n }
}

// WithUMAPSeed sets the random seed.
func WithUMAPSeed(seed int64) UMAPOption {
	return func(u *UMAP) { u.Seed = seed }
}

// NewUMAP starts from the library defaults with DefaultUMAPNeighbors.
func NewUMAP(opts ...UMAPOption) *UMAP {
	def := umap.DefaultConfig()
	u := &UMAP{
		Neighbors: DefaultUMAPNeighbors,
		MinDist:   float64(def.MinDist),
		Spread:    float64(def.Spread),
		Metric:    def.Metric,
		Epochs:    def.NEpochs,
		Seed:      def.Seed,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Reseed implements Reseeder.
func (u *UMAP) Reseed(seed int64) Reducer {
	c := *u
	c.Seed = seed
	return &c
}

// Reduce implements Reducer. The neighbourhood is capped at n-1 so that
// small inputs such as metric map rows can still be embedded.
func (u *UMAP) Reduce(X mat.Matrix, components int) (*mat.Dense, error) {
	n, d, err := checkInput("UMAP.Reduce", X, components)
	if err != nil {
		return nil, err
	}
	switch {
	case n < 2:
		return nil, errors.NewValidationError("samples", "UMAP needs at least 2 rows", n)
	case u.Neighbors < 1:
		return nil, errors.NewValidationError("neighbors", "must be at least 1", u.Neighbors)
	case u.MinDist < 0:
		return nil, errors.NewValidationError("min_dist", "must not be negative", u.MinDist)
	}

	cfg := umap.DefaultConfig()
	cfg.NNeighbors = min(u.Neighbors, n-1)
	cfg.NComponents = components
	cfg.MinDist = float32(u.MinDist)
	if u.Spread > 0 {
		cfg.Spread = float32(u.Spread)
	}
	if u.Metric != "" {
		cfg.Metric = u.Metric
	}
	if u.Epochs > 0 {
		cfg.NEpochs = u.Epochs
	}
	cfg.Seed = u.Seed

	data := make([][]float32, n)
	for i := range data {
		row := make([]float32, d)
		for j := range row {
			row[j] = float32(X.At(i, j))
		}
		data[i] = row
	}

	// ライブラリはエラーを返さずpanicするので回収する
	var embedding [][]float32
	err = errors.SafeExecute("umap fit_transform", func() error {
		embedding = umap.New(cfg).FitTransform(data)
		return nil
	})
	if err != nil {
		return nil, errors.NewModelError("UMAP.Reduce", "fit_transform", err)
	}
	if len(embedding) != n {
		return nil, errors.NewDimensionError("UMAP.Reduce", n, len(embedding), 0)
	}

	out := mat.NewDense(n, components, nil)
	for i, row := range embedding {
		if len(row) != components {
			return nil, errors.NewDimensionError("UMAP.Reduce", components, len(row), 1)
		}
		for j, v := range row {
			out.Set(i, j, float64(v))
		}
	}
	if err := errors.CheckNumericalStability("umap_embedding", out.RawMatrix().Data); err != nil {
		return nil, err
	}
	return out, nil
}
