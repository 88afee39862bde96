package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// 誤差指標はメトリックマップ同士の比較（平坦化したグリッド）に使う。
// NaN のセルはそのまま伝播する。

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// SumAbsoluteError は絶対誤差の総和 Σ|yTrue - yPred| を計算する。
// 空のベクトルは 0 を返す。
func SumAbsoluteError(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue.Len() == 0 && yPred.Len() == 0 {
		return 0, nil
	}
	n, err := checkPair("SumAbsoluteError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum, nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	sum, err := SumAbsoluteError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sum / float64(n), nil
}

// MaxError は最大絶対誤差 max|yTrue - yPred| を計算する
func MaxError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MaxError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	worst := math.Abs(yTrue.AtVec(0) - yPred.AtVec(0))
	for i := 1; i < n; i++ {
		d := math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
		if d > worst || math.IsNaN(d) {
			worst = d
		}
		if math.IsNaN(worst) {
			break
		}
	}
	return worst, nil
}
