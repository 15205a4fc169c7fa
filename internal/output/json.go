package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter writes a single JSON document on Flush.
type JSONWriter struct {
	buffer
	w      *bufio.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
	}
}

// Flush writes the buffered reports.
func (w *JSONWriter) Flush() error {
	doc := w.take()

	var (
		out []byte
		err error
	)
	if w.pretty {
		out, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	out = append(out, '\n')
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes one JSON object per line as reports arrive, which suits
// the long-running watch command.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: bufio.NewWriter(w)}
}

// Write writes one report line and flushes it.
func (w *JSONLWriter) Write(data any) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	out = append(out, '\n')
	if _, err := w.w.Write(out); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteAll writes each report on its own line.
func (w *JSONLWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
