// Package preprocessing holds the feature scaling applied to embeddings
// before they are reduced and clustered.
package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// minScale より小さい標準偏差の特徴量は定数とみなし、スケーリングしない
const minScale = 1e-8

// StandardScaler はデータを平均0、標準偏差1に変換する。
// 標準偏差は母標準偏差（n で割る）を使う。
type StandardScaler struct {
	// Mean は各特徴量の平均値
	Mean []float64
	// Scale は各特徴量の標準偏差。定数の特徴量は1
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean, WithStd: withStd}
}

// Fit は各列の平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if s.WithStd && std >= minScale {
			s.Scale[j] = std
		}
	}
	return nil
}

// Transform は学習済みの統計量でXを標準化した新しい行列を返す
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, errors.NewModelError("StandardScaler.Transform", "not fitted", nil)
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), c, 1)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// FitTransform は Fit と Transform を続けて行う
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, errors.NewModelError("StandardScaler.InverseTransform", "not fitted", nil)
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), c, 1)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return out, nil
}

func (s *StandardScaler) String() string {
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
}
