package metrics

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// noise は HDBSCAN がどのクラスタにも属さない点に付けるラベル
const noise = -1

// Context carries everything a clustering metric may need about one
// partition. Embeddings and GroundTruth are optional; metrics that need
// them return an error when they are missing.
type Context struct {
	Labels      []int
	Embeddings  mat.Matrix
	GroundTruth []int
}

// Metric scores one partition.
type Metric interface {
	Name() string
	Score(ctx Context) (float64, error)
}

// nonNoise returns the indices of labelled points.
func nonNoise(labels []int) []int {
	idx := make([]int, 0, len(labels))
	for i, l := range labels {
		if l != noise {
			idx = append(idx, i)
		}
	}
	return idx
}

func requireEmbeddings(op string, ctx Context) error {
	if ctx.Embeddings == nil {
		return errors.NewValidationError("embeddings", op+" requires embeddings", nil)
	}
	r, _ := ctx.Embeddings.Dims()
	if r != len(ctx.Labels) {
		return errors.NewDimensionError(op, len(ctx.Labels), r, 0)
	}
	return nil
}

// groupRows collects the embedding rows of the labelled points per cluster,
// in ascending label order.
func groupRows(ctx Context, idx []int) [][][]float64 {
	byLabel := make(map[int][][]float64)
	for _, i := range idx {
		l := ctx.Labels[i]
		byLabel[l] = append(byLabel[l], mat.Row(nil, i, ctx.Embeddings))
	}
	keys := make([]int, 0, len(byLabel))
	for k := range byLabel {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	groups := make([][][]float64, len(keys))
	for i, k := range keys {
		groups[i] = byLabel[k]
	}
	return groups
}

// SilhouetteScore is the mean silhouette coefficient of the labelled points.
// Noise is excluded. With no labelled points the score is 0; with fewer than
// two clusters, or as many clusters as points, the score is undefined and 0
// is returned with a warning.
type SilhouetteScore struct{}

func (SilhouetteScore) Name() string { return "silhouette" }

func (m SilhouetteScore) Score(ctx Context) (float64, error) {
	if err := requireEmbeddings("SilhouetteScore", ctx); err != nil {
		return 0, err
	}
	idx := nonNoise(ctx.Labels)
	if len(idx) == 0 {
		return 0, nil
	}
	groups := groupRows(ctx, idx)
	if len(groups) < 2 || len(groups) >= len(idx) {
		errors.Warn(errors.NewUndefinedMetricWarning(m.Name(),
			fmt.Sprintf("%d clusters for %d labelled points", len(groups), len(idx)), 0))
		return 0, nil
	}

	var total float64
	for g, own := range groups {
		for i, x := range own {
			if len(own) == 1 {
				continue // 単一点クラスタの係数は 0
			}
			a := meanDistance(x, own, i)
			b := math.Inf(1)
			for h, other := range groups {
				if h != g {
					b = math.Min(b, meanDistance(x, other, -1))
				}
			}
			if s := math.Max(a, b); s > 0 {
				total += (b - a) / s
			}
		}
	}
	return total / float64(len(idx)), nil
}

// meanDistance is the mean distance from x to points, skipping index skip.
func meanDistance(x []float64, points [][]float64, skip int) float64 {
	var sum float64
	n := 0
	for j, p := range points {
		if j == skip {
			continue
		}
		sum += floats.Distance(x, p, 2)
		n++
	}
	return sum / float64(n)
}

// DaviesBouldinScore is the mean over clusters of the worst ratio of summed
// intra-cluster scatter to centroid separation. Lower is better. Noise is
// excluded; when every point is noise the score is 1.
type DaviesBouldinScore struct{}

func (DaviesBouldinScore) Name() string { return "davies_bouldin" }

func (m DaviesBouldinScore) Score(ctx Context) (float64, error) {
	if err := requireEmbeddings("DaviesBouldinScore", ctx); err != nil {
		return 0, err
	}
	idx := nonNoise(ctx.Labels)
	if len(idx) == 0 {
		return 1, nil
	}
	groups := groupRows(ctx, idx)
	if len(groups) < 2 || len(groups) >= len(idx) {
		errors.Warn(errors.NewUndefinedMetricWarning(m.Name(),
			fmt.Sprintf("%d clusters for %d labelled points", len(groups), len(idx)), 0))
		return 0, nil
	}

	k := len(groups)
	centroids := make([][]float64, k)
	scatter := make([]float64, k)
	for c, pts := range groups {
		centroid := make([]float64, len(pts[0]))
		for _, p := range pts {
			floats.Add(centroid, p)
		}
		floats.Scale(1/float64(len(pts)), centroid)
		centroids[c] = centroid
		for _, p := range pts {
			scatter[c] += floats.Distance(p, centroid, 2)
		}
		scatter[c] /= float64(len(pts))
	}
	if floats.Sum(scatter) == 0 {
		return 0, nil
	}

	var total float64
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			sep := floats.Distance(centroids[i], centroids[j], 2)
			if sep == 0 {
				continue
			}
			worst = math.Max(worst, (scatter[i]+scatter[j])/sep)
		}
		total += worst
	}
	return total / float64(k), nil
}

// VMeasureScore is the weighted harmonic mean of homogeneity and
// completeness against ground-truth classes, over labelled points only.
// Beta > 1 weights completeness more strongly.
type VMeasureScore struct {
	Beta float64
}

// NewVMeasureScore returns a VMeasureScore; beta <= 0 means 1.
func NewVMeasureScore(beta float64) VMeasureScore {
	if beta <= 0 {
		beta = 1
	}
	return VMeasureScore{Beta: beta}
}

func (VMeasureScore) Name() string { return "v_measure" }

func (m VMeasureScore) Score(ctx Context) (float64, error) {
	if ctx.GroundTruth == nil {
		return 0, errors.NewValidationError("ground_truth", "v_measure requires ground truth labels", nil)
	}
	if len(ctx.GroundTruth) != len(ctx.Labels) {
		return 0, errors.NewDimensionError("VMeasureScore", len(ctx.Labels), len(ctx.GroundTruth), 0)
	}
	idx := nonNoise(ctx.Labels)
	if len(idx) == 0 {
		return 0, nil
	}
	classes := make([]int, len(idx))
	clusters := make([]int, len(idx))
	for i, j := range idx {
		classes[i] = ctx.GroundTruth[j]
		clusters[i] = ctx.Labels[j]
	}

	beta := m.Beta
	if beta <= 0 {
		beta = 1
	}
	hC, hK := entropy(classes), entropy(clusters)
	homogeneity, completeness := 1.0, 1.0
	if hC > 0 {
		homogeneity = 1 - conditionalEntropy(classes, clusters)/hC
	}
	if hK > 0 {
		completeness = 1 - conditionalEntropy(clusters, classes)/hK
	}
	if homogeneity+completeness == 0 {
		return 0, nil
	}
	return (1 + beta) * homogeneity * completeness / (beta*homogeneity + completeness), nil
}

func entropy(labels []int) float64 {
	counts := make(map[int]float64)
	for _, l := range labels {
		counts[l]++
	}
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		p = append(p, c/float64(len(labels)))
	}
	return stat.Entropy(p)
}

// conditionalEntropy is H(a | b).
func conditionalEntropy(a, b []int) float64 {
	n := float64(len(a))
	joint := make(map[[2]int]float64)
	marginal := make(map[int]float64)
	for i := range a {
		joint[[2]int{a[i], b[i]}]++
		marginal[b[i]]++
	}
	var h float64
	for key, c := range joint {
		h -= c / n * math.Log(c/marginal[key[1]])
	}
	return h
}

// OutlierRatio is the share of points labelled as noise.
type OutlierRatio struct{}

func (OutlierRatio) Name() string { return "outlier_ratio" }

func (OutlierRatio) Score(ctx Context) (float64, error) {
	if len(ctx.Labels) == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "OutlierRatio")
	}
	outliers := len(ctx.Labels) - len(nonNoise(ctx.Labels))
	return float64(outliers) / float64(len(ctx.Labels)), nil
}

// ClusterCount is the number of distinct labels, noise included.
type ClusterCount struct{}

func (ClusterCount) Name() string { return "cluster_count" }

func (ClusterCount) Score(ctx Context) (float64, error) {
	seen := make(map[int]struct{})
	for _, l := range ctx.Labels {
		seen[l] = struct{}{}
	}
	return float64(len(seen)), nil
}

// AverageClusterSize is the mean number of points per cluster, noise
// excluded; 0 when every point is noise.
type AverageClusterSize struct{}

func (AverageClusterSize) Name() string { return "average_cluster_size" }

func (AverageClusterSize) Score(ctx Context) (float64, error) {
	idx := nonNoise(ctx.Labels)
	if len(idx) == 0 {
		return 0, nil
	}
	seen := make(map[int]struct{})
	for _, i := range idx {
		seen[ctx.Labels[i]] = struct{}{}
	}
	return float64(len(idx)) / float64(len(seen)), nil
}
