// Package mojibake reverses one specific corruption pattern: UTF-8 text whose
// bytes were decoded as a single-byte legacy encoding (Windows-1252 by
// default), possibly more than once.
//
// Repair is bounded. Each pass re-encodes the text with the legacy encoding
// and decodes the bytes as UTF-8; the loop stops as soon as a pass changes
// nothing, a pass cannot be applied, or the pass ceiling is reached.
package mojibake

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxPasses covers text that was corrupted at most twice.
const DefaultMaxPasses = 2

// Outcome names the branch that ended a repair.
type Outcome int

const (
	// OutcomeClean means a pass produced no change: the text is clean.
	OutcomeClean Outcome = iota
	// OutcomeUnencodable means the text holds a rune the legacy encoding
	// cannot represent, so it was never produced by the corruption.
	OutcomeUnencodable
	// OutcomeInvalidUTF8 means the re-encoded bytes are not valid UTF-8.
	OutcomeInvalidUTF8
	// OutcomePassLimit means every allowed pass changed the text.
	OutcomePassLimit
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeUnencodable:
		return "unencodable"
	case OutcomeInvalidUTF8:
		return "invalid-utf8"
	case OutcomePassLimit:
		return "pass-limit"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the repaired text plus how it was obtained.
type Result struct {
	Text    string
	Passes  int // passes whose output was adopted
	Outcome Outcome
}

// Repaired reports whether at least one pass changed the text.
func (r Result) Repaired() bool {
	return r.Passes > 0
}

// Repairer applies the bounded repair loop for one legacy encoding.
type Repairer struct {
	enc       encoding.Encoding
	maxPasses int
}

// New creates a Repairer. A nil enc selects Windows-1252; a negative
// maxPasses selects DefaultMaxPasses.
func New(enc encoding.Encoding, maxPasses int) *Repairer {
	if enc == nil {
		enc = charmap.Windows1252
	}
	if maxPasses < 0 {
		maxPasses = DefaultMaxPasses
	}
	return &Repairer{enc: enc, maxPasses: maxPasses}
}

// MaxPasses returns the pass ceiling.
func (r *Repairer) MaxPasses() int {
	return r.maxPasses
}

// Repair runs the repair loop on text.
func (r *Repairer) Repair(text string) Result {
	current := text
	for pass := 0; pass < r.maxPasses; pass++ {
		raw, err := Encode(r.enc, current)
		if err != nil {
			return Result{Text: current, Passes: pass, Outcome: OutcomeUnencodable}
		}
		if !utf8.Valid(raw) {
			return Result{Text: current, Passes: pass, Outcome: OutcomeInvalidUTF8}
		}
		if string(raw) == current {
			return Result{Text: current, Passes: pass, Outcome: OutcomeClean}
		}
		current = string(raw)
	}
	return Result{Text: current, Passes: r.maxPasses, Outcome: OutcomePassLimit}
}

// Repair repairs text with Windows-1252 as the corrupting encoding.
func Repair(text string, maxPasses int) Result {
	return New(charmap.Windows1252, maxPasses).Repair(text)
}

// Corrupt applies the forward corruption once: the UTF-8 bytes of text are
// decoded as enc. A nil enc selects Windows-1252. Single-byte charmaps
// never fail; other encodings fail rather than substitute U+FFFD.
func Corrupt(text string, enc encoding.Encoding) (string, error) {
	if enc == nil {
		enc = charmap.Windows1252
	}
	out, err := Decode(enc, []byte(text))
	if err != nil {
		return "", fmt.Errorf("decoding as legacy encoding: %w", err)
	}
	return out, nil
}
