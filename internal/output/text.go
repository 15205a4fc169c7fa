package output

import (
	"bufio"
	"fmt"
	"io"
)

// TextWriter writes reports as human-readable text, separated by a blank
// line. Values implementing fmt.Stringer use their String method.
type TextWriter struct {
	w       *bufio.Writer
	written int
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write writes one report.
func (w *TextWriter) Write(data any) error {
	if w.written > 0 {
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}

	var s string
	switch v := data.(type) {
	case fmt.Stringer:
		s = v.String()
	case string:
		s = v
	default:
		s = fmt.Sprintf("%+v", v)
	}
	if s == "" || s[len(s)-1] != '\n' {
		s += "\n"
	}
	if _, err := w.w.WriteString(s); err != nil {
		return err
	}
	w.written++
	return w.w.Flush()
}

// WriteAll writes each report in turn.
func (w *TextWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.Flush()
}
