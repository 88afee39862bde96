// Package cluster provides the density and centroid clusterers a sweep
// evaluates. Every clusterer labels points with non-negative cluster ids and
// uses -1 for noise.
package cluster

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// Clusterer partitions the rows of X.
type Clusterer interface {
	FitPredict(ctx context.Context, X mat.Matrix) ([]int, error)
}

// rows copies the rows of X into plain slices.
func rows(X mat.Matrix) [][]float64 {
	r, _ := X.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, X)
	}
	return out
}

// pairwiseDistances returns the symmetric Euclidean distance matrix of points.
func pairwiseDistances(points [][]float64) *mat.SymDense {
	n := len(points)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, floats.Distance(points[i], points[j], 2))
		}
	}
	return d
}

// CountClusters returns the number of distinct non-noise labels.
func CountClusters(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l != Noise {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// Reseeder is implemented by clusterers whose partition depends on a random
// seed. Repeated sweep runs reseed them so that runs differ.
type Reseeder interface {
	Reseed(seed int64) Clusterer
}
