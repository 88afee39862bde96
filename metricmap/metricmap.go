// Package metricmap builds dense response surfaces ("metric maps") of one
// clustering metric over a hyperparameter lattice from a sparse sampling,
// and provides the transforms and algebra used to compare them.
//
// 補間はscipyのgriddata(method="linear")と同じ方針:
// 標本点のDelaunay分割上での線形バリセントリック補間で、凸包の外側はNaN。
package metricmap

import (
	"fmt"
	"math"
	"slices"

	"github.com/YuminosukeSato/clusview/core/parallel"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/sampler"
)

// EmptyName is the metric name of a map built from no samples.
const EmptyName = "Empty"

// MetricMap is the dense surface of one metric over the integer lattice
// spanned by a sampling. Cell i along axis a corresponds to hyperparameter
// value Origin[a]+i. A MetricMap is not safe for concurrent mutation.
type MetricMap struct {
	MetricName      string
	Hyperparameters []string
	Origin          []int
	mapping         *Grid
}

// Empty returns the map of an absent sampling: a zero-length 1-D grid.
func Empty() *MetricMap {
	return &MetricMap{MetricName: EmptyName, mapping: NewGrid(0)}
}

// FromGrid wraps an existing grid. Hyperparameter labels default to
// axis_0, axis_1, … and the origin to zero.
func FromGrid(name string, g *Grid, hyperparameters ...string) (*MetricMap, error) {
	if len(hyperparameters) == 0 {
		for a := range g.NDim() {
			hyperparameters = append(hyperparameters, fmt.Sprintf("axis_%d", a))
		}
	}
	if len(hyperparameters) != g.NDim() {
		return nil, errors.NewDimensionError("FromGrid", g.NDim(), len(hyperparameters), 1)
	}
	return &MetricMap{
		MetricName:      name,
		Hyperparameters: slices.Clone(hyperparameters),
		Origin:          make([]int, g.NDim()),
		mapping:         g.Clone(),
	}, nil
}

// New interpolates s over the lattice spanned by its hyperparameter columns.
//
// Duplicate tuples are averaged (a DuplicateSampleWarning is raised).
// Columns with a single distinct value become length-1 axes and are left
// out of the interpolation space. Lattice points that coincide with a sample
// hold that sample's value exactly; points outside the convex hull of the
// samples are NaN. Samples spanning fewer dimensions than the varying axes
// are rejected with an error matching errors.ErrDegenerateSampling.
func New(s *Sampling) (*MetricMap, error) {
	if s.Len() == 0 {
		return Empty(), nil
	}
	if s.Columns() < 2 {
		return nil, errors.NewValidationError("sampling", "needs at least one hyperparameter column and a metric column", s.Columns())
	}
	if len(s.Values) != len(s.Points) {
		return nil, errors.NewInputShapeError("metricmap.New", []int{len(s.Points)}, []int{len(s.Values)})
	}
	k := len(s.Hyperparameters)
	for i, p := range s.Points {
		if len(p) != k {
			return nil, errors.NewDimensionError(fmt.Sprintf("metricmap.New(row %d)", i), k, len(p), 1)
		}
	}

	work := &Sampling{Hyperparameters: s.Hyperparameters, Metric: s.Metric, Points: s.Points, Values: s.Values}
	if dups := work.Deduplicate(); dups > 0 {
		errors.Warn(errors.NewDuplicateSampleWarning(s.Metric, dups))
	}

	lo, hi := work.Bounds()
	shape := make([]int, k)
	var varying []int
	for a := range shape {
		shape[a] = hi[a] - lo[a] + 1
		if shape[a] > 1 {
			varying = append(varying, a)
		}
	}

	m := &MetricMap{
		MetricName:      s.Metric,
		Hyperparameters: slices.Clone(s.Hyperparameters),
		Origin:          lo,
		mapping:         NewGrid(shape...),
	}
	if len(varying) == 0 {
		m.mapping.Data()[0] = work.Values[0]
		return m, nil
	}

	points := make([][]float64, len(work.Points))
	for i, p := range work.Points {
		q := make([]float64, len(varying))
		for j, a := range varying {
			q[j] = float64(p[a] - lo[a])
		}
		points[i] = q
	}
	if rank := affineRank(points); rank < len(varying) {
		return nil, errors.Mark(errors.NewValueError("metricmap.New",
			fmt.Sprintf("%d samples span %d of %d varying hyperparameter dimensions", len(points), rank, len(varying))),
			errors.ErrDegenerateSampling)
	}

	tri, err := triangulate(points)
	if err != nil {
		return nil, err
	}
	spans := make([]int, len(varying))
	for j, a := range varying {
		spans[j] = shape[a]
	}
	interpolate(tri, work.Values, spans, m.mapping.Data())

	// 標本点は補間誤差なしでそのまま書き込む
	for i, p := range points {
		m.mapping.Data()[latticeOffset(p, spans)] = work.Values[i]
	}
	return m, nil
}

// latticeOffset is the row-major offset of an integral point. Length-1
// axes do not change offsets, so the varying-axis lattice shares the
// layout of the full grid.
func latticeOffset(p []float64, spans []int) int {
	off := 0
	for a, v := range p {
		off = off*spans[a] + int(v)
	}
	return off
}

// interpolate fills out (row-major over spans) with the barycentric blend
// of each lattice point's enclosing simplex, NaN where there is none.
// values are indexed like the triangulated points.
func interpolate(tri *triangulation, values []float64, spans []int, out []float64) {
	owner := make([]int32, len(out))
	for i := range owner {
		owner[i] = -1
	}
	d := tri.dim
	point := make([]float64, d)
	bary := make([]float64, d+1)
	ranges := make([][]int, d)
	for si, s := range tri.simplices {
		lo, hi := tri.bounds(s)
		for a := range ranges {
			ranges[a] = ranges[a][:0]
			for v := max(lo[a], 0); v <= min(hi[a], spans[a]-1); v++ {
				ranges[a] = append(ranges[a], v)
			}
		}
		for idx := range sampler.Product(ranges) {
			for a, v := range idx {
				point[a] = float64(v)
			}
			off := latticeOffset(point, spans)
			if owner[off] >= 0 {
				continue
			}
			if tri.barycentric(s, point, bary) {
				owner[off] = int32(si)
			}
		}
	}

	parallel.ParallelizeWithThreshold(len(out), parallel.DefaultThreshold, func(start, end int) {
		point := make([]float64, d)
		bary := make([]float64, d+1)
		idx := make([]int, d)
		for off := start; off < end; off++ {
			si := owner[off]
			if si < 0 {
				out[off] = math.NaN()
				continue
			}
			rest := off
			for a := d - 1; a >= 0; a-- {
				idx[a] = rest % spans[a]
				rest /= spans[a]
				point[a] = float64(idx[a])
			}
			s := tri.simplices[si]
			tri.barycentric(s, point, bary)
			var v float64
			for j, w := range bary {
				v += w * values[s.verts[j]]
			}
			out[off] = v
		}
	})
}

// Mapping returns the dense grid. It is shared, not copied.
func (m *MetricMap) Mapping() *Grid { return m.mapping }

// Shape returns the grid's axis lengths.
func (m *MetricMap) Shape() []int { return m.mapping.Shape() }

// NDim is the number of grid axes.
func (m *MetricMap) NDim() int { return m.mapping.NDim() }

// IsEmpty reports whether the map holds no cells.
func (m *MetricMap) IsEmpty() bool { return m.mapping.Len() == 0 }

// Clone returns a deep copy.
func (m *MetricMap) Clone() *MetricMap {
	return &MetricMap{
		MetricName:      m.MetricName,
		Hyperparameters: slices.Clone(m.Hyperparameters),
		Origin:          slices.Clone(m.Origin),
		mapping:         m.mapping.Clone(),
	}
}

// Value looks up the cell of a hyperparameter tuple (not grid indices).
func (m *MetricMap) Value(hyperparameters ...int) (float64, error) {
	if len(hyperparameters) != m.NDim() || len(m.Origin) != m.NDim() {
		return 0, errors.NewDimensionError("MetricMap.Value", m.NDim(), len(hyperparameters), 1)
	}
	idx := make([]int, len(hyperparameters))
	shape := m.mapping.Shape()
	for a, v := range hyperparameters {
		idx[a] = v - m.Origin[a]
		if idx[a] < 0 || idx[a] >= shape[a] {
			return 0, errors.NewValueError("MetricMap.Value",
				fmt.Sprintf("%s=%d outside [%d, %d]", m.Hyperparameters[a], v, m.Origin[a], m.Origin[a]+shape[a]-1))
		}
	}
	return m.mapping.At(idx...), nil
}

// Sampling exports every cell as a table row, NaN cells included.
func (m *MetricMap) Sampling() *Sampling {
	s := NewSampling(m.MetricName, m.Hyperparameters...)
	if m.IsEmpty() {
		return s
	}
	origin := m.Origin
	if len(origin) != m.NDim() {
		origin = make([]int, m.NDim())
	}
	idx := make([]int, m.NDim())
	for off, v := range m.mapping.Data() {
		m.mapping.Index(off, idx)
		point := make([]int, len(idx))
		for a, i := range idx {
			point[a] = origin[a] + i
		}
		s.Points = append(s.Points, point)
		s.Values = append(s.Values, v)
	}
	return s
}

func (m *MetricMap) String() string {
	return fmt.Sprintf("MetricMap(%s, hyperparameters=%v, shape=%v)", m.MetricName, m.Hyperparameters, m.mapping.Shape())
}
