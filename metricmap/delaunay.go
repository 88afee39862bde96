package metricmap

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

const (
	// insideTolerance is the relative margin of the circumsphere test;
	// co-spherical points count as outside.
	insideTolerance = 1e-9
	// baryTolerance admits lattice points lying on simplex faces.
	baryTolerance = 1e-9
	maxCondition  = 1e12
)

// simplex is a d-simplex with its cached circumsphere and the inverse of
// its edge matrix for barycentric coordinates.
type simplex struct {
	verts  []int
	center []float64
	r2     float64
	alive  bool
	inv    *mat.Dense
}

// triangulation is an n-dimensional Delaunay triangulation built
// incrementally with the Bowyer–Watson algorithm. The d+1 vertices of an
// enclosing super-simplex are appended after the real points and every
// simplex touching them is discarded at the end, leaving a triangulation of
// the convex hull.
type triangulation struct {
	dim       int
	points    [][]float64
	real      int
	simplices []*simplex
}

// triangulate requires at least dim+1 affinely independent points.
func triangulate(points [][]float64) (*triangulation, error) {
	if len(points) == 0 {
		return nil, errors.ErrEmptyData
	}
	dim := len(points[0])
	t := &triangulation{dim: dim, real: len(points)}
	t.points = append(t.points, points...)

	extent := 1.0
	for _, p := range points {
		for _, v := range p {
			extent = max(extent, math.Abs(v)+1)
		}
	}
	// 超単体は {x_i >= -big, Σ(x_i+big) <= side} で全点を余裕をもって含む
	big := 1000 * extent
	side := 2 * float64(dim+1) * (extent + big)
	base := make([]float64, dim)
	for i := range base {
		base[i] = -big
	}
	super := []int{len(t.points)}
	t.points = append(t.points, base)
	for i := 0; i < dim; i++ {
		v := slices.Clone(base)
		v[i] += side
		super = append(super, len(t.points))
		t.points = append(t.points, v)
	}
	root, ok := t.newSimplex(super)
	if !ok {
		return nil, errors.NewNumericalInstabilityError("delaunay_super_simplex", base)
	}
	t.simplices = append(t.simplices, root)

	for i := 0; i < t.real; i++ {
		t.insert(i)
	}

	alive := t.simplices[:0]
	for _, s := range t.simplices {
		if !s.alive || slices.ContainsFunc(s.verts, func(v int) bool { return v >= t.real }) {
			continue
		}
		s.inv = t.edgeInverse(s.verts)
		if s.inv != nil {
			alive = append(alive, s)
		}
	}
	t.simplices = alive
	return t, nil
}

// insert adds point pi, re-triangulating the cavity of simplices whose
// circumsphere contains it.
func (t *triangulation) insert(pi int) {
	p := t.points[pi]
	var keys []string
	faces := make(map[string][]int)
	counts := make(map[string]int)
	face := make([]int, 0, t.dim)
	for _, s := range t.simplices {
		if !s.alive || sqDist(p, s.center) >= s.r2*(1-insideTolerance) {
			continue
		}
		s.alive = false
		for drop := range s.verts {
			face = face[:0]
			for j, v := range s.verts {
				if j != drop {
					face = append(face, v)
				}
			}
			slices.Sort(face)
			key := tupleKey(face)
			if counts[key] == 0 {
				keys = append(keys, key)
				faces[key] = slices.Clone(face)
			}
			counts[key]++
		}
	}

	for _, key := range keys {
		if counts[key] != 1 {
			continue
		}
		verts := append(slices.Clone(faces[key]), pi)
		if s, ok := t.newSimplex(verts); ok {
			t.simplices = append(t.simplices, s)
		}
	}

	if dead := len(t.simplices) - t.countAlive(); dead > len(t.simplices)/2 {
		t.simplices = slices.DeleteFunc(t.simplices, func(s *simplex) bool { return !s.alive })
	}
}

func (t *triangulation) countAlive() int {
	n := 0
	for _, s := range t.simplices {
		if s.alive {
			n++
		}
	}
	return n
}

// newSimplex computes the circumsphere of verts; ok is false for flat
// simplices.
func (t *triangulation) newSimplex(verts []int) (*simplex, bool) {
	d := t.dim
	v0 := t.points[verts[0]]
	A := mat.NewDense(d, d, nil)
	b := mat.NewVecDense(d, nil)
	for i := 1; i <= d; i++ {
		vi := t.points[verts[i]]
		var sq float64
		for a := 0; a < d; a++ {
			diff := vi[a] - v0[a]
			A.Set(i-1, a, diff)
			sq += diff * diff
		}
		b.SetVec(i-1, sq/2)
	}
	var lu mat.LU
	lu.Factorize(A)
	if lu.Cond() > maxCondition*1e3 {
		return nil, false
	}
	var c mat.VecDense
	if err := lu.SolveVecTo(&c, false, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, false
		}
	}
	center := make([]float64, d)
	var r2 float64
	for a := 0; a < d; a++ {
		off := c.AtVec(a)
		center[a] = v0[a] + off
		r2 += off * off
	}
	return &simplex{verts: verts, center: center, r2: r2, alive: true}, true
}

// edgeInverse returns the inverse of the matrix whose columns are
// v_i - v_0, or nil when the simplex is flat.
func (t *triangulation) edgeInverse(verts []int) *mat.Dense {
	d := t.dim
	v0 := t.points[verts[0]]
	T := mat.NewDense(d, d, nil)
	for i := 1; i <= d; i++ {
		vi := t.points[verts[i]]
		for a := 0; a < d; a++ {
			T.Set(a, i-1, vi[a]-v0[a])
		}
	}
	var lu mat.LU
	lu.Factorize(T)
	if lu.Cond() > maxCondition {
		return nil
	}
	var inv mat.Dense
	if err := inv.Inverse(T); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil
		}
	}
	return &inv
}

// barycentric writes the d+1 barycentric coordinates of p with respect to
// s into dst and reports whether p lies in the closed simplex.
func (t *triangulation) barycentric(s *simplex, p, dst []float64) bool {
	d := t.dim
	v0 := t.points[s.verts[0]]
	sum := 0.0
	inside := true
	for i := 0; i < d; i++ {
		var l float64
		for a := 0; a < d; a++ {
			l += s.inv.At(i, a) * (p[a] - v0[a])
		}
		dst[i+1] = l
		sum += l
		if l < -baryTolerance {
			inside = false
		}
	}
	dst[0] = 1 - sum
	return inside && dst[0] >= -baryTolerance
}

// bounds returns the integer bounding box of s.
func (t *triangulation) bounds(s *simplex) (lo, hi []int) {
	lo, hi = make([]int, t.dim), make([]int, t.dim)
	for a := 0; a < t.dim; a++ {
		mn, mx := math.Inf(1), math.Inf(-1)
		for _, v := range s.verts {
			mn = min(mn, t.points[v][a])
			mx = max(mx, t.points[v][a])
		}
		lo[a], hi[a] = int(math.Ceil(mn-baryTolerance)), int(math.Floor(mx+baryTolerance))
	}
	return lo, hi
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// affineRank is the dimension of the affine hull of points.
func affineRank(points [][]float64) int {
	n := len(points)
	if n < 2 {
		return 0
	}
	d := len(points[0])
	X := mat.NewDense(n, d, nil)
	for i, p := range points {
		X.SetRow(i, p)
	}
	for a := 0; a < d; a++ {
		col := mat.Col(nil, a, X)
		mean := floats.Sum(col) / float64(n)
		for i := range col {
			X.Set(i, a, col[i]-mean)
		}
	}
	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDNone) {
		return 0
	}
	return svd.Rank(1e-10)
}
