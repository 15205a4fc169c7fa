// Package rewriter rewrites the designated fields of a decoded row: it
// repairs mojibake, renders the HTML through a cleaner and normalises line
// breaks to a single LF.
package rewriter

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/csvmd/pkg/cleaner"
	"github.com/jmylchreest/csvmd/pkg/mojibake"
)

// Stats counts what a Rewrite call changed.
type Stats struct {
	Rewritten int // target fields that went through the renderer
	Repaired  int // of those, fields changed by the mojibake repair
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Rewritten += other.Rewritten
	s.Repaired += other.Repaired
}

// Rewriter applies repair, rendering and newline normalisation to fields.
type Rewriter struct {
	cleaner  cleaner.Cleaner
	repairer *mojibake.Repairer
}

// New creates a Rewriter. A nil repairer uses Windows-1252 with the default
// pass ceiling.
func New(cl cleaner.Cleaner, rep *mojibake.Repairer) *Rewriter {
	if rep == nil {
		rep = mojibake.New(nil, mojibake.DefaultMaxPasses)
	}
	return &Rewriter{cleaner: cl, repairer: rep}
}

// Rewrite modifies row in place. Only indexes listed in targets and inside
// the row's bounds are touched; empty or whitespace-only values pass through.
func (r *Rewriter) Rewrite(row []string, targets []int) (Stats, error) {
	var stats Stats
	for _, idx := range targets {
		if idx < 0 || idx >= len(row) {
			continue
		}
		if strings.TrimSpace(row[idx]) == "" {
			continue
		}

		out, repaired, err := r.Field(row[idx])
		if err != nil {
			return stats, fmt.Errorf("field %d: %w", idx, err)
		}
		row[idx] = out
		stats.Rewritten++
		if repaired {
			stats.Repaired++
		}
	}
	return stats, nil
}

// Field rewrites a single value and reports whether the repair changed it.
func (r *Rewriter) Field(value string) (string, bool, error) {
	fixed := r.repairer.Repair(value)

	rendered, err := r.cleaner.Clean(fixed.Text)
	if err != nil {
		return "", false, err
	}
	return NormalizeNewlines(strings.TrimSpace(rendered)), fixed.Repaired(), nil
}

// NormalizeNewlines turns CRLF pairs and lone CRs into LF.
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
