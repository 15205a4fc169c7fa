package output

import (
	"bufio"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes a single YAML document on Flush.
type YAMLWriter struct {
	buffer
	w *bufio.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: bufio.NewWriter(w)}
}

// Flush writes the buffered reports.
func (w *YAMLWriter) Flush() error {
	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)

	if err := enc.Encode(w.take()); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
