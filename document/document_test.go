package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

const requirementsCSV = `id,title,description,status
1,Login page,Users sign in with email,Accepted
2,Export,"Download reports, as CSV",Rejected
3,Search,Full text search,Accepted
`

func TestConcatenateCSV(t *testing.T) {
	docs, err := ConcatenateCSV(strings.NewReader(requirementsCSV), []string{"title", "description", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Login page Users sign in with email",
		"Export Download reports, as CSV",
		"Search Full text search",
	}, docs)

	all, err := ConcatenateCSV(strings.NewReader(requirementsCSV), nil)
	require.NoError(t, err)
	assert.Equal(t, "1 Login page Users sign in with email Accepted", all[0])

	_, err = ConcatenateCSV(strings.NewReader(""), nil)
	assert.ErrorIs(t, err, errors.ErrEmptyData)
}

func TestCSVConcatenatorLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.csv")
	require.NoError(t, os.WriteFile(path, []byte(requirementsCSV), 0o600))

	docs, err := NewCSVConcatenator(path, "title").Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Login page", "Export", "Search"}, docs)

	_, err = NewCSVConcatenator(filepath.Join(t.TempDir(), "nope.csv")).Load()
	assert.Error(t, err)
}

func TestParseLabelsCSV(t *testing.T) {
	labels, err := ParseLabelsCSV(strings.NewReader(requirementsCSV), "status", "Accepted")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, labels)

	_, err = ParseLabelsCSV(strings.NewReader(requirementsCSV), "label", "Accepted")
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestParseMatrixCSV(t *testing.T) {
	m, err := ParseMatrixCSV(strings.NewReader("x,y\n1,2\n3.5,-4\n"))
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{1, 2, 3.5, -4}), m))

	m, err = ParseMatrixCSV(strings.NewReader("1,2,3\n"))
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, []int{1, 3}, []int{r, c})

	_, err = ParseMatrixCSV(strings.NewReader("x\n"))
	assert.ErrorIs(t, err, errors.ErrEmptyData)

	_, err = ParseMatrixCSV(strings.NewReader("1,2\n3,oops\n"))
	assert.Error(t, err)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"users", "sign", "in", "v2", "ok"}, Tokenize("Users sign-in, v2: OK!"))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestHashingEmbedder(t *testing.T) {
	e := NewHashingEmbedder(WithDimensions(64), WithSeed(3), WithBigrams(true))
	docs := []string{"full text search", "Full TEXT search!", "export reports", ""}

	X, err := e.Embed(context.Background(), docs)
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 64, c)

	// 大文字小文字と句読点は無視される
	assert.Equal(t, mat.Row(nil, 0, X), mat.Row(nil, 1, X))
	assert.InDelta(t, 1.0, floats.Norm(mat.Row(nil, 0, X), 2), 1e-12)
	assert.Equal(t, 0.0, floats.Norm(mat.Row(nil, 3, X), 2))

	again, err := e.Embed(context.Background(), docs)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, again))
}

func TestHashingEmbedderErrors(t *testing.T) {
	_, err := NewHashingEmbedder(WithDimensions(0)).Embed(context.Background(), []string{"a"})
	assert.Error(t, err)

	_, err = NewHashingEmbedder().Embed(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrEmptyData)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewHashingEmbedder().Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
