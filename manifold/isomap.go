package manifold

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// DefaultNeighbors is the kNN graph degree used when Neighbors is unset.
const DefaultNeighbors = 5

// Isomap is a nonlinear reducer: geodesic distances over a k-nearest
// neighbour graph embedded with classical multidimensional scaling.
//
// 近傍グラフが非連結の場合、到達不能なペアにはユークリッド距離を使う。
type Isomap struct {
	Neighbors int
}

// IsomapOption configures an Isomap.
type IsomapOption func(*Isomap)

// WithNeighbors sets the kNN graph degree.
func WithNeighbors(k int) IsomapOption {
	return func(m *Isomap) { m.Neighbors = k }
}

// NewIsomap returns an Isomap with DefaultNeighbors.
func NewIsomap(opts ...IsomapOption) *Isomap {
	m := &Isomap{Neighbors: DefaultNeighbors}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reduce implements Reducer. Components beyond the positive part of the
// MDS spectrum are zero.
func (m *Isomap) Reduce(X mat.Matrix, components int) (*mat.Dense, error) {
	n, _, err := checkInput("Isomap.Reduce", X, components)
	if err != nil {
		return nil, err
	}
	k := m.Neighbors
	if k == 0 {
		k = DefaultNeighbors
	}
	if k < 1 {
		return nil, errors.NewValidationError("neighbors", "must be at least 1", m.Neighbors)
	}
	k = min(k, n-1)

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, X)
	}
	euclid := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			euclid.SetSym(i, j, floats.Distance(points[i], points[j], 2))
		}
	}

	geo := geodesics(euclid, k)
	out, err := classicalMDS(geo, components)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("isomap_embedding", out.RawMatrix().Data); err != nil {
		return nil, err
	}
	return out, nil
}

// geodesics returns shortest-path distances over the symmetric kNN graph.
func geodesics(euclid *mat.SymDense, k int) *mat.SymDense {
	n := euclid.SymmetricDim()
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		order = order[:0]
		for j := 0; j < n; j++ {
			if j != i {
				order = append(order, j)
			}
		}
		slices.SortStableFunc(order, func(a, b int) int {
			da, db := euclid.At(i, a), euclid.At(i, b)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return 0
		})
		for _, j := range order[:k] {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), euclid.At(i, j)))
		}
	}

	paths := path.DijkstraAllPaths(g)
	geo := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := paths.Weight(int64(i), int64(j))
			if math.IsInf(w, 0) {
				w = euclid.At(i, j)
			}
			geo.SetSym(i, j, w)
		}
	}
	return geo
}

// classicalMDS embeds the distance matrix D via the top eigenpairs of the
// double-centred matrix B = -1/2 J D² J.
func classicalMDS(D *mat.SymDense, components int) (*mat.Dense, error) {
	n := D.SymmetricDim()
	sq := make([]float64, n*n)
	rowMean := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := D.At(i, j)
			sq[i*n+j] = d * d
			rowMean[i] += d * d
		}
		total += rowMean[i]
		rowMean[i] /= float64(n)
	}
	total /= float64(n * n)

	B := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			B.SetSym(i, j, -0.5*(sq[i*n+j]-rowMean[i]-rowMean[j]+total))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(B, true); !ok {
		return nil, errors.NewModelError("Isomap.Reduce", "eigendecomposition", errors.New("factorization failed"))
	}
	values := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// 固有値は昇順なので末尾から取る
	out := mat.NewDense(n, components, nil)
	for c := 0; c < components && c < n; c++ {
		idx := n - 1 - c
		lambda := values[idx]
		if lambda <= 1e-10 {
			break
		}
		scale := math.Sqrt(lambda)
		for i := 0; i < n; i++ {
			out.Set(i, c, vecs.At(i, idx)*scale)
		}
	}
	fixSigns(out)
	return out, nil
}
