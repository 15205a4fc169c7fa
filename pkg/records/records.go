// Package records splits raw tabular files into logical records.
//
// Records are delimited by a literal byte terminator (CRLF for the catalog
// exports csvmd handles), not by the CSV quoting rules. A lone carriage
// return inside a field is therefore never mistaken for a record boundary.
package records

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// CRLF is the two-byte record terminator of the source format.
var CRLF = []byte("\r\n")

// Status describes the outcome of reading a file for counting.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not found"
)

// Count is the number of logical records in a file plus how the read went.
type Count struct {
	N      int    `json:"records" yaml:"records"`
	Status Status `json:"status" yaml:"status"`
}

// String returns a human-readable summary such as "4 records (ok)".
func (c Count) String() string {
	return fmt.Sprintf("%d records (%s)", c.N, c.Status)
}

// Split splits data on every literal occurrence of terminator.
// When data ends with the terminator the single trailing empty slice is
// dropped; every other empty slice is an intentional blank record and kept.
// The returned slices alias data.
func Split(data, terminator []byte) [][]byte {
	if len(terminator) == 0 {
		terminator = CRLF
	}
	parts := bytes.Split(data, terminator)
	if n := len(parts); n > 0 && len(parts[n-1]) == 0 {
		parts = parts[:n-1]
	}
	return parts
}

// Join is the inverse of Split: it joins recs with terminator and appends one
// trailing terminator. Zero records produce an empty result.
func Join(recs [][]byte, terminator []byte) []byte {
	if len(recs) == 0 {
		return nil
	}
	if len(terminator) == 0 {
		terminator = CRLF
	}
	size := len(recs) * len(terminator)
	for _, r := range recs {
		size += len(r)
	}
	out := make([]byte, 0, size)
	for _, r := range recs {
		out = append(out, r...)
		out = append(out, terminator...)
	}
	return out
}

// CountFile reads path and counts its CRLF-terminated records.
// A missing file is reported through Status rather than as an error.
func CountFile(path string) (Count, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- CLI tool reads user-specified files
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Count{Status: StatusNotFound}, nil
		}
		return Count{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Count{N: len(Split(data, CRLF)), Status: StatusOK}, nil
}
