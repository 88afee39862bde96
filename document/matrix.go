package document

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// ReadMatrixCSV loads precomputed embeddings: one row per document, every
// field a float. A first row that does not parse as numbers is treated as
// a header and skipped.
func ReadMatrixCSV(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	m, err := ParseMatrixCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return m, nil
}

// ParseMatrixCSV is ReadMatrixCSV over an arbitrary reader.
func ParseMatrixCSV(r io.Reader) (*mat.Dense, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(records[0][0]), 64); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}

	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, errors.NewDimensionError("ParseMatrixCSV", cols, len(rec), 1)
		}
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", i, j)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(records), cols, data), nil
}

// ReadLabelsCSV loads binary ground-truth classes from column of a CSV file
// with a header: 1 where the field equals positive, 0 elsewhere.
func ReadLabelsCSV(path, column, positive string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	return ParseLabelsCSV(f, column, positive)
}

// ParseLabelsCSV is ReadLabelsCSV over an arbitrary reader.
func ParseLabelsCSV(r io.Reader, column, positive string) ([]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.NewValidationError("label_column", "not present in header", column)
	}

	var labels []int
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		label := 0
		if col < len(rec) && strings.TrimSpace(rec[col]) == positive {
			label = 1
		}
		labels = append(labels, label)
	}
	return labels, nil
}
