package convert

import "strings"

// Column is a target column resolved against the header.
type Column struct {
	Name  string `json:"name" yaml:"name"`
	Index int    `json:"index" yaml:"index"`
}

// ColumnIndex maps requested column names to field positions, in request order.
type ColumnIndex []Column

// Indexes returns the field positions.
func (ci ColumnIndex) Indexes() []int {
	out := make([]int, len(ci))
	for i, c := range ci {
		out[i] = c.Index
	}
	return out
}

// Names returns the resolved column names.
func (ci ColumnIndex) Names() []string {
	out := make([]string, len(ci))
	for i, c := range ci {
		out[i] = c.Name
	}
	return out
}

// Byte order marks as they appear after decoding: proper UTF-8, and UTF-8
// bytes decoded as Windows-1252.
var bomPrefixes = []string{"\ufeff", "ï»¿"}

// BuildColumnIndex resolves requested against header. Names not present in
// the header are returned in missing. When a header name repeats, the first
// occurrence wins.
func BuildColumnIndex(header, requested []string) (ColumnIndex, []string) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			for _, bom := range bomPrefixes {
				name = strings.TrimPrefix(name, bom)
			}
		}
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	var index ColumnIndex
	var missing []string
	for _, name := range requested {
		if pos, ok := positions[name]; ok {
			index = append(index, Column{Name: name, Index: pos})
			continue
		}
		missing = append(missing, name)
	}
	return index, missing
}
