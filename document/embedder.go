package document

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Embedder maps documents to the rows of a dense matrix.
type Embedder interface {
	Embed(ctx context.Context, docs []string) (*mat.Dense, error)
}

// HashingEmbedder is a model-free embedder: lower-cased word tokens (and
// optionally adjacent word pairs) are hashed with xxhash into Dimensions
// signed buckets and every row is scaled to unit length.
type HashingEmbedder struct {
	Dimensions int
	Seed       uint64
	Bigrams    bool
}

// HashingOption configures a HashingEmbedder.
type HashingOption func(*HashingEmbedder)

// WithDimensions sets the output width.
func WithDimensions(d int) HashingOption {
	return func(h *HashingEmbedder) { h.Dimensions = d }
}

// WithSeed changes the hash family.
func WithSeed(seed uint64) HashingOption {
	return func(h *HashingEmbedder) { h.Seed = seed }
}

// WithBigrams also hashes adjacent token pairs.
func WithBigrams(on bool) HashingOption {
	return func(h *HashingEmbedder) { h.Bigrams = on }
}

// NewHashingEmbedder returns a 256-dimensional embedder with options applied.
func NewHashingEmbedder(opts ...HashingOption) *HashingEmbedder {
	h := &HashingEmbedder{Dimensions: 256}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Embed implements Embedder. Documents without tokens become zero rows.
func (h *HashingEmbedder) Embed(ctx context.Context, docs []string) (*mat.Dense, error) {
	if h.Dimensions < 1 {
		return nil, errors.NewValidationError("dimensions", "must be at least 1", h.Dimensions)
	}
	if len(docs) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "HashingEmbedder.Embed")
	}

	prefix := strconv.FormatUint(h.Seed, 36) + ":"
	out := mat.NewDense(len(docs), h.Dimensions, nil)
	row := make([]float64, h.Dimensions)
	for i, doc := range docs {
		if i%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		clear(row)
		tokens := Tokenize(doc)
		for j, tok := range tokens {
			h.add(row, prefix+tok)
			if h.Bigrams && j > 0 {
				h.add(row, prefix+tokens[j-1]+" "+tok)
			}
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

func (h *HashingEmbedder) add(row []float64, feature string) {
	sum := xxhash.Sum64String(feature)
	bucket := sum % uint64(h.Dimensions)
	if sum>>63 == 1 {
		row[bucket]--
		return
	}
	row[bucket]++
}

// Tokenize lower-cases s and splits it into runs of letters and digits.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
