package metricmap

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Grid is a dense row-major n-dimensional array; the last axis varies
// fastest.
type Grid struct {
	shape   []int
	strides []int
	data    []float64
}

// NewGrid allocates a zero grid. A zero-length axis yields an empty grid.
func NewGrid(shape ...int) *Grid {
	g, err := NewGridFrom(nil, shape...)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGridFrom wraps data (copied) in a grid of the given shape. A nil data
// slice allocates zeros.
func NewGridFrom(data []float64, shape ...int) (*Grid, error) {
	if len(shape) == 0 {
		return nil, errors.NewValidationError("shape", "at least one axis is required", shape)
	}
	size := 1
	for _, s := range shape {
		if s < 0 {
			return nil, errors.NewValidationError("shape", "axis lengths must not be negative", shape)
		}
		size *= s
	}
	g := &Grid{shape: slices.Clone(shape), strides: make([]int, len(shape))}
	stride := 1
	for a := len(shape) - 1; a >= 0; a-- {
		g.strides[a] = stride
		stride *= shape[a]
	}
	switch {
	case data == nil:
		g.data = make([]float64, size)
	case len(data) != size:
		return nil, errors.NewDimensionError("NewGridFrom", size, len(data), 0)
	default:
		g.data = slices.Clone(data)
	}
	return g, nil
}

// GridFromMatrix copies a matrix into a 2-D grid.
func GridFromMatrix(m mat.Matrix) *Grid {
	r, c := m.Dims()
	g := NewGrid(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			g.data[i*c+j] = m.At(i, j)
		}
	}
	return g
}

// Shape returns a copy of the axis lengths.
func (g *Grid) Shape() []int { return slices.Clone(g.shape) }

// NDim is the number of axes.
func (g *Grid) NDim() int { return len(g.shape) }

// Len is the number of cells.
func (g *Grid) Len() int { return len(g.data) }

// Data exposes the backing slice in row-major order.
func (g *Grid) Data() []float64 { return g.data }

// Offset converts a multi-index to a position in Data.
func (g *Grid) Offset(idx ...int) int {
	if len(idx) != len(g.shape) {
		panic(fmt.Sprintf("metricmap: %d indices for %d-D grid", len(idx), len(g.shape)))
	}
	off := 0
	for a, i := range idx {
		if i < 0 || i >= g.shape[a] {
			panic(fmt.Sprintf("metricmap: index %d out of range on axis %d (len %d)", i, a, g.shape[a]))
		}
		off += i * g.strides[a]
	}
	return off
}

// Index writes the multi-index of position off into dst.
func (g *Grid) Index(off int, dst []int) []int {
	if dst == nil {
		dst = make([]int, len(g.shape))
	}
	for a, s := range g.strides {
		dst[a] = off / s
		off %= s
	}
	return dst
}

// At returns the cell at idx.
func (g *Grid) At(idx ...int) float64 { return g.data[g.Offset(idx...)] }

// Set stores v at idx.
func (g *Grid) Set(v float64, idx ...int) { g.data[g.Offset(idx...)] = v }

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	return &Grid{shape: slices.Clone(g.shape), strides: slices.Clone(g.strides), data: slices.Clone(g.data)}
}

// SameShape reports whether both grids have identical shapes.
func (g *Grid) SameShape(o *Grid) bool { return slices.Equal(g.shape, o.shape) }

// Matrix views the grid as rows × rest, rows being the first axis. A 1-D
// grid becomes a single column. The matrix shares the grid's storage.
func (g *Grid) Matrix() *mat.Dense {
	if len(g.data) == 0 {
		return &mat.Dense{}
	}
	rows := g.shape[0]
	return mat.NewDense(rows, len(g.data)/rows, g.data)
}

// MinMax returns the extrema over non-NaN cells; ok is false when there are
// none.
func (g *Grid) MinMax() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.data {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, ok
}

// Equal reports whether both grids have the same shape and cells, treating
// NaN as equal to NaN.
func (g *Grid) Equal(o *Grid) bool {
	if !g.SameShape(o) {
		return false
	}
	for i, v := range g.data {
		w := o.data[i]
		if v != w && !(math.IsNaN(v) && math.IsNaN(w)) {
			return false
		}
	}
	return true
}
