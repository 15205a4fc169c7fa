package convert

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyRecord is returned by ParseRecord when line holds no CSV record.
var ErrEmptyRecord = errors.New("empty record")

// ParseRecord parses line as exactly one CSV record. Quoted fields may span
// embedded line breaks and bare quotes are tolerated. A line break outside
// quotes would start a second record and is rejected. A trailing lone \r is
// kept in the last field.
func ParseRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse csv: %w", ErrEmptyRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse csv: unquoted line break inside record")
	}

	// encoding/csv drops one \r before EOF; here it is field data.
	if strings.HasSuffix(line, "\r") && len(fields) > 0 {
		fields[len(fields)-1] += "\r"
	}
	return fields, nil
}

// EncodeRecord serialises fields with every field quoted and embedded quotes
// doubled. No record terminator is appended.
func EncodeRecord(fields []string) []byte {
	size := len(fields)
	for _, f := range fields {
		size += len(f) + 2
	}

	var buf bytes.Buffer
	buf.Grow(size)
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		start := 0
		for j := 0; j < len(f); j++ {
			if f[j] == '"' {
				buf.WriteString(f[start:j])
				buf.WriteString(`""`)
				start = j + 1
			}
		}
		buf.WriteString(f[start:])
		buf.WriteByte('"')
	}
	return buf.Bytes()
}
