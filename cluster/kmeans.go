package cluster

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// MiniBatchKMeans はミニバッチK-meansクラスタリング
// HDBSCAN と比較するための重心ベースのベースラインとしてスイープで使う。
// ノイズラベルは返さない。
type MiniBatchKMeans struct {
	NClusters        int     // クラスタ数
	BatchSize        int     // ミニバッチサイズ
	MaxIter          int     // 最大イテレーション数
	NInit            int     // 異なる初期化での実行回数
	MaxNoImprovement int     // 改善なしの最大イテレーション数
	Tol              float64 // 収束判定の許容誤差
	Seed             int64   // 乱数シード
}

// KMeansOption はMiniBatchKMeansの設定オプション
type KMeansOption func(*MiniBatchKMeans)

// WithKMeansNClusters はクラスタ数を設定
func WithKMeansNClusters(n int) KMeansOption {
	return func(k *MiniBatchKMeans) { k.NClusters = n }
}

// WithKMeansBatchSize はミニバッチサイズを設定
func WithKMeansBatchSize(batchSize int) KMeansOption {
	return func(k *MiniBatchKMeans) { k.BatchSize = batchSize }
}

// WithKMeansMaxIter は最大イテレーション数を設定
func WithKMeansMaxIter(maxIter int) KMeansOption {
	return func(k *MiniBatchKMeans) { k.MaxIter = maxIter }
}

// WithKMeansSeed は乱数シードを設定
func WithKMeansSeed(seed int64) KMeansOption {
	return func(k *MiniBatchKMeans) { k.Seed = seed }
}

// NewMiniBatchKMeans は新しいMiniBatchKMeansを作成
func NewMiniBatchKMeans(options ...KMeansOption) *MiniBatchKMeans {
	k := &MiniBatchKMeans{
		NClusters:        8,
		BatchSize:        100,
		MaxIter:          100,
		NInit:            3,
		MaxNoImprovement: 10,
	}
	for _, opt := range options {
		opt(k)
	}
	return k
}

// Validate reports the first invalid field.
func (k MiniBatchKMeans) Validate() error {
	if k.NClusters < 1 {
		return errors.NewValidationError("n_clusters", "must be at least 1", k.NClusters)
	}
	if k.BatchSize < 1 {
		return errors.NewValidationError("batch_size", "must be at least 1", k.BatchSize)
	}
	if k.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", k.MaxIter)
	}
	return nil
}

// FitPredict はNInit回学習して慣性が最小の結果のラベルを返す
func (k MiniBatchKMeans) FitPredict(ctx context.Context, X mat.Matrix) ([]int, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "MiniBatchKMeans.FitPredict")
	}
	if n < k.NClusters {
		return nil, errors.NewValueError("MiniBatchKMeans.FitPredict",
			"サンプル数がクラスタ数より少ないです")
	}

	data := rows(X)
	rng := rand.New(rand.NewSource(k.Seed))
	nInit := max(k.NInit, 1)

	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	for run := 0; run < nInit; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		centers := k.fitSingleRun(data, rng)
		if inertia := computeInertia(data, centers); inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
		}
	}

	labels := make([]int, n)
	for i, sample := range data {
		labels[i] = findNearestCluster(sample, bestCenters)
	}
	return labels, nil
}

// fitSingleRun は単一回の学習を実行
func (k MiniBatchKMeans) fitSingleRun(data [][]float64, rng *rand.Rand) [][]float64 {
	centers := initKMeansPlusPlus(data, k.NClusters, rng)
	counts := make([]int, k.NClusters)

	prevInertia := math.Inf(1)
	noImprovement := 0
	for iter := 0; iter < k.MaxIter; iter++ {
		for _, idx := range selectMiniBatch(len(data), k.BatchSize, rng) {
			sample := data[idx]
			c := findNearestCluster(sample, centers)

			// 学習率 1/count で中心を更新
			counts[c]++
			eta := 1.0 / float64(counts[c])
			for j := range sample {
				centers[c][j] = (1-eta)*centers[c][j] + eta*sample[j]
			}
		}

		inertia := computeInertia(data, centers)
		if prevInertia-inertia <= k.Tol {
			noImprovement++
			if noImprovement >= k.MaxNoImprovement {
				break
			}
		} else {
			noImprovement = 0
		}
		prevInertia = inertia
	}
	return centers
}

// initKMeansPlusPlus はk-means++初期化を実行
func initKMeansPlusPlus(data [][]float64, nClusters int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, nClusters)
	centers = append(centers, append([]float64(nil), data[rng.Intn(len(data))]...))

	distances := make([]float64, len(data))
	for len(centers) < nClusters {
		total := 0.0
		for i, sample := range data {
			d := euclideanDistance(sample, centers[findNearestCluster(sample, centers)])
			distances[i] = d * d
			total += distances[i]
		}

		// 距離の二乗に比例した確率でサンプルを選択
		target := rng.Float64() * total
		selected := len(data) - 1
		cumSum := 0.0
		for i, d := range distances {
			cumSum += d
			if cumSum >= target {
				selected = i
				break
			}
		}
		centers = append(centers, append([]float64(nil), data[selected]...))
	}
	return centers
}

// selectMiniBatch はミニバッチのサンプルインデックスを選択
func selectMiniBatch(nSamples, batchSize int, rng *rand.Rand) []int {
	return rng.Perm(nSamples)[:min(batchSize, nSamples)]
}

// findNearestCluster は最近傍クラスタを検索
func findNearestCluster(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearest := 0
	for c, center := range centers {
		if dist := euclideanDistance(sample, center); dist < minDist {
			minDist = dist
			nearest = c
		}
	}
	return nearest
}

// computeInertia は慣性（クラスタ内平方和誤差）を計算
func computeInertia(data [][]float64, centers [][]float64) float64 {
	inertia := 0.0
	for _, sample := range data {
		dist := euclideanDistance(sample, centers[findNearestCluster(sample, centers)])
		inertia += dist * dist
	}
	return inertia
}

// Reseed implements Reseeder.
func (k MiniBatchKMeans) Reseed(seed int64) Clusterer {
	k.Seed = seed
	return k
}
