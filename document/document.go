// Package document loads the texts to be clustered and turns them into
// embedding matrices.
package document

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Loader produces one string per document.
type Loader interface {
	Load() ([]string, error)
}

// CSVConcatenator turns every row of a CSV file into one document by joining
// the selected columns with a space. The first row is the header. An empty
// Columns selects every column; names missing from the header are ignored.
type CSVConcatenator struct {
	Path    string
	Columns []string
}

// NewCSVConcatenator returns a loader for path.
func NewCSVConcatenator(path string, columns ...string) *CSVConcatenator {
	return &CSVConcatenator{Path: path, Columns: columns}
}

// Load implements Loader.
func (c *CSVConcatenator) Load() ([]string, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", c.Path)
	}
	defer f.Close()
	docs, err := ConcatenateCSV(f, c.Columns)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", c.Path)
	}
	return docs, nil
}

// ConcatenateCSV is CSVConcatenator.Load over an arbitrary reader.
func ConcatenateCSV(r io.Reader, columns []string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "missing header")
	}
	if err != nil {
		return nil, err
	}

	var selected []int
	for i, name := range header {
		if len(columns) == 0 || slices.Contains(columns, strings.TrimSpace(name)) {
			selected = append(selected, i)
		}
	}

	var docs []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		parts := make([]string, 0, len(selected))
		for _, i := range selected {
			if i < len(record) {
				parts = append(parts, record[i])
			}
		}
		docs = append(docs, strings.Join(parts, " "))
	}
	return docs, nil
}
