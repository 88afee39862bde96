package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "HDBSCAN.FitPredict",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "clusview: HDBSCAN.FitPredict: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Isomap.Reduce",
			kind:    "disconnected graph",
			err:     nil,
			wantMsg: "clusview: Isomap.Reduce: disconnected graph",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("MetricMap.Plot", 2, 3, 1)

	want := "clusview: MetricMap.Plot: dimension mismatch on axis 1 (features). Expected 2, got 3"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Got)
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("step", "must be positive", 0)
	assert.Equal(t, "clusview: validation failed for parameter 'step': must be positive (got: 0)", err.Error())

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "step", valErr.ParamName)
}

func TestNewValueError(t *testing.T) {
	err := NewValueError("Geometric.SampleRange", "lower bound must be positive")
	assert.Equal(t, "clusview: Geometric.SampleRange: lower bound must be positive", err.Error())

	var valErr *ValueError
	assert.True(t, As(err, &valErr))
}

func TestNewInputShapeError(t *testing.T) {
	err := NewInputShapeError("total_distance", []int{2, 3}, []int{3, 2})
	assert.Equal(t, "clusview: input shape mismatch in total_distance. Expected shape [2 3], got [3 2]", err.Error())

	var shapeErr *InputShapeError
	require.True(t, As(err, &shapeErr))
	assert.Equal(t, []int{3, 2}, shapeErr.Got)
}

func TestNumericalInstabilityError(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("ok", []float64{1, 2, 3}))

	values := []float64{1, 2, nanValue(), 4, nanValue(), nanValue(), nanValue(), nanValue(), nanValue()}
	err := CheckNumericalStability("isomap_embedding", values)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "clusview: numerical instability detected in isomap_embedding"))
	assert.Contains(t, err.Error(), "...")
}

func TestWarnRouting(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("silhouette", "fewer than two clusters", 0))
	require.Len(t, captured, 1)
	assert.Equal(t, "'silhouette' is ill-defined and being set to 0 due to fewer than two clusters.", captured[0].Error())

	// zerolog関数が設定されている場合はそちらが優先される
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	SetZerologWarnFunc(func(w error) {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(obj).Msg(w.Error())
			return
		}
		logger.Warn().Err(w).Msg("warning")
	})
	defer SetZerologWarnFunc(nil)

	Warn(NewDuplicateSampleWarning("silhouette", 3))
	assert.Len(t, captured, 1)
	assert.Contains(t, buf.String(), `"type":"DuplicateSampleWarning"`)
	assert.Contains(t, buf.String(), `"duplicates":3`)
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrEmptyData, "in MetricMap.AverageDistance")

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in MetricMap.AverageDistance")
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrDegenerateSampling, "in %s: rank %d of %d", "metricmap.New", 1, 2)

	assert.True(t, Is(wrapped, ErrDegenerateSampling))
	assert.Contains(t, wrapped.Error(), "in metricmap.New: rank 1 of 2")
}

func TestErrorChaining(t *testing.T) {
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	assert.Contains(t, err3.Error(), "base error")
	assert.Contains(t, fmt.Sprintf("%+v", err3), "errors_test.go")
}

func TestMark(t *testing.T) {
	err := Mark(NewValueError("metricmap.New", "points lie on a lower-dimensional subspace"), ErrDegenerateSampling)

	assert.True(t, Is(err, ErrDegenerateSampling))
	var valErr *ValueError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "metricmap.New", valErr.Op)
	assert.False(t, Is(err, ErrEmptyData))

	// 標準のerrors.Is/Asからも見える
	assert.True(t, stderrors.Is(err, ErrDegenerateSampling))
	assert.False(t, stderrors.Is(err, ErrEmptyData))
	valErr = nil
	require.True(t, stderrors.As(err, &valErr))
	assert.Equal(t, "points lie on a lower-dimensional subspace", valErr.Message)

	wrapped := Wrap(err, "building silhouette map")
	assert.True(t, stderrors.Is(wrapped, ErrDegenerateSampling))
	assert.True(t, Is(wrapped, ErrDegenerateSampling))
	assert.Contains(t, wrapped.Error(), "points lie on a lower-dimensional subspace")

	assert.Nil(t, Mark(nil, ErrDegenerateSampling))
}
