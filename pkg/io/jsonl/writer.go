// Package jsonl writes scoring results as JSON Lines.
package jsonl

import (
	"encoding/json"
	stdio "io"
	"os"

	"github.com/hed1ad/fraudrules/pkg/io"
)

// Writer emits one JSON object per line.
type Writer struct {
	out     stdio.Writer
	file    *os.File
	encoder *json.Encoder
}

// NewWriter creates a writer targeting an arbitrary output.
func NewWriter(out stdio.Writer) *Writer {
	return &Writer{
		out:     out,
		encoder: json.NewEncoder(out),
	}
}

// NewFileWriter creates a writer targeting a file, truncating it.
func NewFileWriter(filename string) (*Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	w := NewWriter(file)
	w.file = file
	return w, nil
}

// Write outputs a single result.
func (w *Writer) Write(result io.Result) error {
	return w.encoder.Encode(result)
}

// WriteAll outputs multiple results.
func (w *Writer) WriteAll(results []io.Result) error {
	for _, r := range results {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
