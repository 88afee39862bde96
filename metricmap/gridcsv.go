package metricmap

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// WriteGridCSV writes a 2-D map as a matrix: one row per value of the first
// hyperparameter, one column per value of the second. The header's first
// field is "<first>\<second>" and the first field of each row is the row's
// hyperparameter value. NaN cells are written as empty fields.
func (m *MetricMap) WriteGridCSV(w io.Writer) error {
	if m.NDim() != 2 {
		return errors.NewDimensionError("MetricMap.WriteGridCSV", 2, m.NDim(), 1)
	}
	shape := m.Shape()
	origin := m.Origin
	if len(origin) != 2 {
		origin = []int{0, 0}
	}
	names := m.Hyperparameters
	if len(names) != 2 {
		names = []string{"axis_0", "axis_1"}
	}

	cw := csv.NewWriter(w)
	rec := make([]string, shape[1]+1)
	rec[0] = names[0] + `\` + names[1]
	for j := range shape[1] {
		rec[j+1] = strconv.Itoa(origin[1] + j)
	}
	if err := cw.Write(rec); err != nil {
		return err
	}
	for i := range shape[0] {
		rec[0] = strconv.Itoa(origin[0] + i)
		for j := range shape[1] {
			v := m.mapping.At(i, j)
			if math.IsNaN(v) {
				rec[j+1] = ""
				continue
			}
			rec[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveGridCSV writes m to path with WriteGridCSV.
func (m *MetricMap) SaveGridCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := m.WriteGridCSV(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
