// Package csv provides CSV file reading for tabular data, with
// optional label-column handling for training data.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Reader reads data from CSV files.
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	hasHeader bool
	headers   []string
	labelCol  int
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// WithLabelColumn sets the zero-based label column used by
// ReadLabeled. The default of -1 means the last column.
func WithLabelColumn(col int) Option {
	return func(r *Reader) {
		r.labelCol = col
	}
}

// NewReader creates a new CSV reader.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:      file,
		reader:    csv.NewReader(file),
		hasHeader: true,
		labelCol:  -1,
	}

	for _, opt := range opts {
		opt(r)
	}

	// Read header if present
	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			file.Close()
			return nil, err
		}
		r.headers = headers
	}

	return r, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// FeatureNames returns the headers minus the label column, for use as
// rule feature names.
func (r *Reader) FeatureNames() []string {
	if r.headers == nil {
		return nil
	}
	label := r.resolveLabelCol(len(r.headers))
	names := make([]string, 0, len(r.headers)-1)
	for i, h := range r.headers {
		if i != label {
			names = append(names, h)
		}
	}
	return names
}

// Read returns all data as a 2D float slice.
func (r *Reader) Read() ([][]float64, error) {
	var data [][]float64

	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row, err := parseRow(record)
		if err != nil {
			continue // Skip malformed rows
		}
		data = append(data, row)
	}

	return data, nil
}

// ReadLabeled returns the feature matrix and the 0/1 labels taken from
// the label column.
func (r *Reader) ReadLabeled() ([][]float64, []int, error) {
	var x [][]float64
	var y []int

	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(record) < 2 {
			continue
		}

		label := r.resolveLabelCol(len(record))
		lv, err := strconv.Atoi(record[label])
		if err != nil || (lv != 0 && lv != 1) {
			return nil, nil, fmt.Errorf("csv: label %q is not 0 or 1", record[label])
		}

		features := make([]string, 0, len(record)-1)
		for i, v := range record {
			if i != label {
				features = append(features, v)
			}
		}
		row, err := parseRow(features)
		if err != nil {
			continue // Skip malformed rows
		}

		x = append(x, row)
		y = append(y, lv)
	}

	return x, y, nil
}

// Stream returns a channel of rows for real-time processing.
func (r *Reader) Stream(ctx context.Context) (<-chan []float64, error) {
	out := make(chan []float64, 100)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				record, err := r.reader.Read()
				if err == io.EOF {
					return
				}
				if err != nil {
					continue
				}

				row, err := parseRow(record)
				if err != nil {
					continue
				}

				select {
				case out <- row:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) resolveLabelCol(width int) int {
	if r.labelCol < 0 || r.labelCol >= width {
		return width - 1
	}
	return r.labelCol
}

// parseRow converts string slice to float slice.
func parseRow(record []string) ([]float64, error) {
	if len(record) == 0 {
		return nil, errors.New("empty row")
	}

	row := make([]float64, len(record))
	for i, val := range record {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		row[i] = f
	}
	return row, nil
}
