// Package errors はclusview全体で使う型付きエラーと警告を提供します。
// スタックトレースはcockroachdb/errorsが付与し、各型はzerologへ構造化出力できます。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// --- グローバル警告ハンドリング ---

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("clusview-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
// これにより、UndefinedMetricWarningなどのカスタム警告の処理方法を制御できます。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// --- 警告型 ---

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、すべてのサンプルがノイズに割り当てられたためシルエット係数が定義できない場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %g due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// DuplicateSampleWarning is raised when a sampling contains the same
// hyperparameter tuple more than once and the values had to be merged.
type DuplicateSampleWarning struct {
	Metric     string
	Duplicates int
}

func (w *DuplicateSampleWarning) Error() string {
	return fmt.Sprintf("sampling of '%s' contains %d duplicated hyperparameter tuples; their values were averaged", w.Metric, w.Duplicates)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DuplicateSampleWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Int("duplicates", w.Duplicates).
		Str("type", "DuplicateSampleWarning")
}

// NewDuplicateSampleWarning creates a DuplicateSampleWarning.
func NewDuplicateSampleWarning(metric string, duplicates int) *DuplicateSampleWarning {
	return &DuplicateSampleWarning{Metric: metric, Duplicates: duplicates}
}

// --- 構造化されたエラー型 ---

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("clusview: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("clusview: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
// 例えば、幾何サンプラーの下限に0以下を渡した場合など。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("clusview: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError はクラスタリングや次元削減など外部協調コンポーネントの一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("clusview: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("clusview: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// InputShapeError は入力データの形状が期待と異なる場合のエラーです。
// メトリックマップ同士の演算で形状が一致しない場合に使用します。
type InputShapeError struct {
	Phase    string // e.g. "total_distance", "linear_combination"
	Expected []int  // 期待される形状
	Got      []int  // 実際の形状
	Feature  string // 問題のあるメトリック名（オプション）
}

func (e *InputShapeError) Error() string {
	expectedStr := fmt.Sprintf("%v", e.Expected)
	gotStr := fmt.Sprintf("%v", e.Got)
	if e.Feature != "" {
		return fmt.Sprintf("clusview: input shape mismatch in %s for '%s'. Expected shape %s, got %s",
			e.Phase, e.Feature, expectedStr, gotStr)
	}
	return fmt.Sprintf("clusview: input shape mismatch in %s. Expected shape %s, got %s",
		e.Phase, expectedStr, gotStr)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InputShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("phase", e.Phase).
		Ints("expected", e.Expected).
		Ints("got", e.Got).
		Str("feature", e.Feature).
		Str("type", "InputShapeError")
}

// NewInputShapeError は新しいInputShapeErrorを作成します。
func NewInputShapeError(phase string, expected, got []int) error {
	err := &InputShapeError{
		Phase:    phase,
		Expected: expected,
		Got:      got,
	}
	return errors.WithStack(err)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "isomap_embedding"）
	Values    []float64 // 問題のある値
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("clusview: numerical instability detected in %s. Values: [%s]", e.Operation, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{Operation: operation, Values: values}
	return errors.WithStack(err)
}

// --- cockroachdb/errors ラッパー関数 ---

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Mark はerrにreferenceとの同一性を付与します。このパッケージのIsでも標準の
// errors.Isでも Is(err, reference) が真になり、errの型とメッセージはそのまま残ります。
func Mark(err, reference error) error {
	if err == nil {
		return nil
	}
	return &markedError{cause: err, mark: reference}
}

type markedError struct {
	cause error
	mark  error
}

func (e *markedError) Error() string { return e.cause.Error() }

func (e *markedError) Unwrap() error { return e.cause }

// Is は標準errorsとcockroachdb/errorsの両方から呼ばれる。
func (e *markedError) Is(target error) bool { return target == e.mark }

// --- 共通エラー変数 ---

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrDegenerateSampling はサンプリング点が補間空間を張らない場合のエラーです。
	ErrDegenerateSampling = New("degenerate sampling")
)
