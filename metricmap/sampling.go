package metricmap

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Sampling is a sparse table of hyperparameter tuples and one metric value
// per tuple. Hyperparameter order is significance order and fixes the axis
// order of the map built from it.
type Sampling struct {
	Hyperparameters []string
	Metric          string
	Points          [][]int
	Values          []float64
}

// NewSampling returns an empty table with the given column names.
func NewSampling(metric string, hyperparameters ...string) *Sampling {
	return &Sampling{Hyperparameters: slices.Clone(hyperparameters), Metric: metric}
}

// Append adds one row. point is copied.
func (s *Sampling) Append(point []int, value float64) error {
	if len(point) != len(s.Hyperparameters) {
		return errors.NewInputShapeError("Sampling.Append", []int{len(s.Hyperparameters)}, []int{len(point)})
	}
	s.Points = append(s.Points, slices.Clone(point))
	s.Values = append(s.Values, value)
	return nil
}

// Len is the number of rows.
func (s *Sampling) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Columns is the number of table columns, metric included.
func (s *Sampling) Columns() int { return len(s.Hyperparameters) + 1 }

// Sort orders rows by their hyperparameter tuples, lexicographically.
func (s *Sampling) Sort() {
	order := make([]int, len(s.Points))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return slices.Compare(s.Points[a], s.Points[b])
	})
	points := make([][]int, len(order))
	values := make([]float64, len(order))
	for i, o := range order {
		points[i], values[i] = s.Points[o], s.Values[o]
	}
	s.Points, s.Values = points, values
}

// Bounds returns the per-column minimum and maximum.
func (s *Sampling) Bounds() (lo, hi []int) {
	k := len(s.Hyperparameters)
	lo, hi = make([]int, k), make([]int, k)
	for i, p := range s.Points {
		for a, v := range p {
			if i == 0 {
				lo[a], hi[a] = v, v
				continue
			}
			lo[a] = min(lo[a], v)
			hi[a] = max(hi[a], v)
		}
	}
	return lo, hi
}

// Deduplicate averages the values of repeated tuples and returns how many
// rows were merged away. Row order follows the first occurrence.
func (s *Sampling) Deduplicate() int {
	type acc struct {
		first int
		sum   float64
		n     int
	}
	seen := make(map[string]*acc, len(s.Points))
	var keys []string
	for i, p := range s.Points {
		key := tupleKey(p)
		a, ok := seen[key]
		if !ok {
			a = &acc{first: i}
			seen[key] = a
			keys = append(keys, key)
		}
		a.sum += s.Values[i]
		a.n++
	}
	merged := len(s.Points) - len(keys)
	if merged == 0 {
		return 0
	}
	points := make([][]int, len(keys))
	values := make([]float64, len(keys))
	for i, key := range keys {
		a := seen[key]
		points[i] = s.Points[a.first]
		values[i] = a.sum / float64(a.n)
	}
	s.Points, s.Values = points, values
	return merged
}

func tupleKey(p []int) string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// ReadSamplingCSV loads a sampling table from path. See ParseSamplingCSV.
func ReadSamplingCSV(path string) (*Sampling, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	s, err := ParseSamplingCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return s, nil
}

// ParseSamplingCSV reads a table whose header is h_1,…,h_k,metric followed
// by rows of k integers and one float. Empty metric fields read as NaN.
func ParseSamplingCSV(r io.Reader) (*Sampling, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "missing header")
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	k := len(header) - 1
	s := NewSampling(header[k], header[:k]...)
	for line, rec := range records[1:] {
		point := make([]int, k)
		for a := 0; a < k; a++ {
			v, err := strconv.Atoi(strings.TrimSpace(rec[a]))
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", line+1, header[a])
			}
			point[a] = v
		}
		value, err := parseValue(rec[k])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d column %q", line+1, header[k])
		}
		s.Points = append(s.Points, point)
		s.Values = append(s.Values, value)
	}
	return s, nil
}

func parseValue(field string) (float64, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(field, 64)
}

// WriteCSV writes the table in the format ParseSamplingCSV reads.
func (s *Sampling) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(slices.Clone(s.Hyperparameters), s.Metric)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i, p := range s.Points {
		for a, v := range p {
			rec[a] = strconv.Itoa(v)
		}
		rec[len(p)] = strconv.FormatFloat(s.Values[i], 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamplingCSV writes s to path, creating or truncating it.
func WriteSamplingCSV(path string, s *Sampling) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := s.WriteCSV(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

