package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

func TestLinearSampleRange(t *testing.T) {
	tests := []struct {
		name                string
		lower, upper, step int
		want                []int
	}{
		{"unit step", 2, 6, 1, []int{2, 3, 4, 5, 6}},
		{"upper not hit", 5, 20, 4, []int{5, 9, 13, 17}},
		{"upper hit", 0, 10, 5, []int{0, 5, 10}},
		{"single value", 7, 7, 3, []int{7}},
		{"negative range", -4, 0, 2, []int{-4, -2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLinear("min_cluster_size", tt.lower, tt.upper, tt.step).SampleRange()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, (tt.upper-tt.lower)/tt.step+1)
		})
	}
}

func TestLinearNearMaxInt(t *testing.T) {
	values, err := NewLinear("x", math.MaxInt-10, math.MaxInt, 3).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{math.MaxInt - 10, math.MaxInt - 7, math.MaxInt - 4, math.MaxInt - 1}, values)

	values, err = NewLinear("x", math.MaxInt, math.MaxInt, 1).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{math.MaxInt}, values)
}

func TestLinearInvalid(t *testing.T) {
	var valErr *errors.ValidationError

	_, err := NewLinear("x", 0, 10, 0).SampleRange()
	require.Error(t, err)
	assert.True(t, errors.As(err, &valErr))
	assert.Equal(t, "step", valErr.ParamName)

	_, err = NewLinear("x", 0, 10, -1).SampleRange()
	assert.True(t, errors.As(err, &valErr))

	_, err = NewLinear("x", 10, 0, 1).SampleRange()
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "lower_bound", valErr.ParamName)
}

func TestPolynomialSampleRange(t *testing.T) {
	got, err := NewPolynomial("min_samples", 1, 100, 4, 2).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 16, 49, 100}, got)

	// 次数1は線形間隔と同じ
	got, err = NewPolynomial("min_samples", 0, 30, 4, 1).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30}, got)

	// 奇数次数なら負の下限も許される
	got, err = NewPolynomial("offset", -8, 8, 3, 3).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{-8, 0, 8}, got)
}

func TestPolynomialCollapsesDuplicates(t *testing.T) {
	s := NewPolynomial("min_cluster_size", 2, 6, 40, 2)
	got, err := s.SampleRange()
	require.NoError(t, err)

	assert.LessOrEqual(t, len(got), 5)
	assert.True(t, isStrictlyIncreasing(got))
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 2)
		assert.LessOrEqual(t, v, 6)
	}
	assert.Equal(t, 2, got[0])
	assert.Equal(t, 6, got[len(got)-1])
}

func TestPolynomialInvalid(t *testing.T) {
	_, err := NewPolynomial("x", -4, 10, 5, 2).SampleRange()
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	var valErr *errors.ValidationError
	_, err = NewPolynomial("x", 1, 10, 5, 0).SampleRange()
	assert.True(t, errors.As(err, &valErr))
	_, err = NewPolynomial("x", 1, 10, 0, 2).SampleRange()
	assert.True(t, errors.As(err, &valErr))
	_, err = NewPolynomial("x", 10, 1, 3, 2).SampleRange()
	assert.True(t, errors.As(err, &valErr))
}

func TestGeometricSampleRange(t *testing.T) {
	// 31.62は切り捨てで31 (四捨五入なら32)
	got, err := NewGeometric("min_cluster_size", 1, 100, 5).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 10, 31, 100}, got)

	got, err = NewGeometric("min_cluster_size", 2, 1024, 10).SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024}, got)
}

func TestGeometricCollapsesDuplicates(t *testing.T) {
	got, err := NewGeometric("x", 1, 100, 90).SampleRange()
	require.NoError(t, err)

	assert.Less(t, len(got), 90)
	assert.True(t, isStrictlyIncreasing(got))
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 100, got[len(got)-1])
}

func TestGeometricInvalid(t *testing.T) {
	var valueErr *errors.ValueError
	_, err := NewGeometric("x", 0, 100, 5).SampleRange()
	assert.True(t, errors.As(err, &valueErr))
	_, err = NewGeometric("x", -3, 100, 5).SampleRange()
	assert.True(t, errors.As(err, &valueErr))

	var valErr *errors.ValidationError
	_, err = NewGeometric("x", 1, 100, 0).SampleRange()
	assert.True(t, errors.As(err, &valErr))
}

func TestSampleRangeIsRecomputed(t *testing.T) {
	s := NewLinear("x", 1, 3, 1)
	first, err := s.SampleRange()
	require.NoError(t, err)
	first[0] = 99

	second, err := s.SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, second)
}

func TestSamplerNames(t *testing.T) {
	samplers := []Sampler{
		NewLinear("a", 1, 2, 1),
		NewPolynomial("b", 1, 2, 2, 2),
		NewGeometric("c", 1, 2, 2),
	}
	var names []string
	for _, s := range samplers {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func isStrictlyIncreasing(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}
