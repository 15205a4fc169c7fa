// Package output writes conversion reports in the formats the CLI accepts.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format is a report output format.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatJSONL, FormatYAML}

// ParseFormat parses a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format: %s", s)
}

// Writer serialises reports.
type Writer interface {
	// Write outputs a single report.
	Write(data any) error

	// WriteAll outputs several reports.
	WriteAll(data []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	pretty bool
	indent string
}

// WithPretty enables pretty-printing of JSON.
func WithPretty(enabled bool) WriterOption {
	return func(c *writerConfig) {
		c.pretty = enabled
	}
}

// WithIndent sets the JSON indentation string.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{
		pretty: true,
		indent: "  ",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatText, "":
		return NewTextWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w, cfg.pretty, cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// buffer collects items for formats that emit a document on Flush. A single
// item is emitted bare, several as a list.
type buffer struct {
	items []any
}

func (b *buffer) Write(data any) error {
	b.items = append(b.items, data)
	return nil
}

func (b *buffer) WriteAll(data []any) error {
	b.items = append(b.items, data...)
	return nil
}

// take returns the document to emit and empties the buffer.
func (b *buffer) take() any {
	items := b.items
	b.items = nil
	if len(items) == 1 {
		return items[0]
	}
	if items == nil {
		return []any{}
	}
	return items
}
