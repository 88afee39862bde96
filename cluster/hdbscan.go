package cluster

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// HDBSCAN is hierarchical density-based clustering. Fields are exported so a
// sweep builder can assign sampled values to them by name.
type HDBSCAN struct {
	// MinClusterSize is the smallest group of points considered a cluster. Must be >= 2.
	MinClusterSize int
	// MinSamples is the neighbourhood size of the core distance.
	// 0 means MinClusterSize.
	MinSamples int
	// ClusterSelectionEpsilon merges clusters split below this distance.
	ClusterSelectionEpsilon float64
	// AllowSingleCluster lets the root of the hierarchy be selected.
	AllowSingleCluster bool
}

// HDBSCANOption は HDBSCAN の設定オプション
type HDBSCANOption func(*HDBSCAN)

// WithMinClusterSize sets the minimum cluster size.
func WithMinClusterSize(n int) HDBSCANOption {
	return func(h *HDBSCAN) { h.MinClusterSize = n }
}

// WithMinSamples sets the core-distance neighbourhood size.
func WithMinSamples(n int) HDBSCANOption {
	return func(h *HDBSCAN) { h.MinSamples = n }
}

// WithClusterSelectionEpsilon sets the selection epsilon.
func WithClusterSelectionEpsilon(eps float64) HDBSCANOption {
	return func(h *HDBSCAN) { h.ClusterSelectionEpsilon = eps }
}

// WithAllowSingleCluster allows the whole dataset to be one cluster.
func WithAllowSingleCluster(allow bool) HDBSCANOption {
	return func(h *HDBSCAN) { h.AllowSingleCluster = allow }
}

// NewHDBSCAN returns an HDBSCAN with MinClusterSize 5 and the given options applied.
func NewHDBSCAN(opts ...HDBSCANOption) *HDBSCAN {
	h := &HDBSCAN{MinClusterSize: 5}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Validate reports the first invalid field.
func (h HDBSCAN) Validate() error {
	if h.MinClusterSize < 2 {
		return errors.NewValidationError("min_cluster_size", "must be at least 2", h.MinClusterSize)
	}
	if h.MinSamples < 0 {
		return errors.NewValidationError("min_samples", "must not be negative", h.MinSamples)
	}
	if h.ClusterSelectionEpsilon < 0 {
		return errors.NewValidationError("cluster_selection_epsilon", "must not be negative", h.ClusterSelectionEpsilon)
	}
	return nil
}

func (h HDBSCAN) String() string {
	return fmt.Sprintf("HDBSCAN(min_cluster_size=%d, min_samples=%d, epsilon=%g)",
		h.MinClusterSize, h.MinSamples, h.ClusterSelectionEpsilon)
}

// FitPredict clusters the rows of X. The work is O(n²) in time and memory.
func (h HDBSCAN) FitPredict(ctx context.Context, X mat.Matrix) ([]int, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "HDBSCAN.FitPredict")
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if n < h.MinClusterSize || n == 1 {
		return labels, nil
	}

	minSamples := h.MinSamples
	if minSamples == 0 {
		minSamples = h.MinClusterSize
	}
	minSamples = min(minSamples, n)

	dist := pairwiseDistances(rows(X))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	core := coreDistances(dist, minSamples)
	edges := primMST(dist, core)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := condense(singleLinkage(edges, n), n, h.MinClusterSize)
	selected := tree.selectEOM(h.AllowSingleCluster)
	if h.ClusterSelectionEpsilon > 0 {
		selected = tree.epsilonSearch(selected, h.ClusterSelectionEpsilon, h.AllowSingleCluster)
	}
	tree.label(selected, labels)
	return labels, nil
}

// coreDistances is the distance of each point to its minSamples-th nearest
// neighbour, the point itself counted as the first.
func coreDistances(dist *mat.SymDense, minSamples int) []float64 {
	n := dist.SymmetricDim()
	core := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row[j] = dist.At(i, j)
		}
		slices.Sort(row)
		core[i] = row[minSamples-1]
	}
	return core
}

type mstEdge struct {
	from, to int
	weight   float64
}

// primMST builds the minimum spanning tree of the mutual reachability graph
// without materializing it. Edges are returned sorted by weight.
func primMST(dist *mat.SymDense, core []float64) []mstEdge {
	n := len(core)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[current] = true
	for added := 1; added < n; added++ {
		next, nextW := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			mr := max(core[current], core[j], dist.At(current, j))
			if mr < best[j] {
				best[j] = mr
				from[j] = current
			}
			if best[j] < nextW {
				next, nextW = j, best[j]
			}
		}
		edges = append(edges, mstEdge{from: from[next], to: next, weight: nextW})
		inTree[next] = true
		current = next
	}

	slices.SortStableFunc(edges, func(a, b mstEdge) int {
		switch {
		case a.weight < b.weight:
			return -1
		case a.weight > b.weight:
			return 1
		}
		return 0
	})
	return edges
}
