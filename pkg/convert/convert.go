// Package convert rewrites the HTML columns of a CRLF-terminated CSV export
// into Markdown while keeping the record count intact.
//
// Conversion is two-phase: the file is first split into records on the
// literal CRLF terminator, then each record is decoded and parsed on its own.
// A stray carriage return inside a field therefore never creates a record.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/jmylchreest/csvmd/internal/logger"
	"github.com/jmylchreest/csvmd/pkg/mojibake"
	"github.com/jmylchreest/csvmd/pkg/records"
	"github.com/jmylchreest/csvmd/pkg/rewriter"
)

var (
	// ErrNoTargetColumns is returned when none of the requested columns exist
	// in the header. No output is written.
	ErrNoTargetColumns = errors.New("none of the target columns were found in the header")

	// ErrCountMismatch is returned when the output record count differs from
	// the input record count. The output file has been written.
	ErrCountMismatch = errors.New("record count mismatch")

	// ErrInputNotFound is returned when the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
)

// Converter converts catalog exports.
type Converter struct {
	config   Config
	source   encoding.Encoding
	rewriter *rewriter.Rewriter
}

// New creates a Converter. At least one column must be configured.
func New(opts ...Option) (*Converter, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := lookupEncoding(cfg.SourceEncoding)
	if err != nil {
		return nil, err
	}
	legacy, err := lookupEncoding(cfg.RepairEncoding)
	if err != nil {
		return nil, err
	}

	return &Converter{
		config:   cfg,
		source:   source,
		rewriter: rewriter.New(cfg.Cleaner, mojibake.New(legacy, cfg.MaxRepairPasses)),
	}, nil
}

// Convert is a convenience wrapper around New and Converter.Convert.
func Convert(ctx context.Context, in, out string, opts ...Option) (*Report, error) {
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, in, out)
}

// Config returns the effective configuration.
func (c *Converter) Config() Config {
	return c.config
}

// Convert reads in, rewrites the target columns and writes out. The returned
// report is non-nil whenever the input could be opened, including on error.
func (c *Converter) Convert(ctx context.Context, in, out string) (*Report, error) {
	start := time.Now()
	report := newReport(in, out, c.config.Columns)
	defer func() { report.Duration = time.Since(start) }()
	log := logger.With("run_id", report.RunID)

	data, err := os.ReadFile(in) //#nosec G304 -- CLI tool reads user-specified input file
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			report.InputRecords = records.Count{Status: records.StatusNotFound}
			log.Error("input file not found", "path", in)
			return report, fmt.Errorf("%w: %s", ErrInputNotFound, in)
		}
		return report, fmt.Errorf("reading input: %w", err)
	}

	raw := records.Split(data, records.CRLF)
	report.InputBytes = len(data)
	report.InputRecords = records.Count{N: len(raw), Status: records.StatusOK}
	log.Info("input read",
		"path", in,
		"records", len(raw),
		"status", report.InputRecords.Status,
		"size", humanize.Bytes(uint64(len(data))))
	log.Info("target columns", "columns", c.config.Columns)

	var header []string
	if len(raw) > 0 && len(raw[0]) > 0 {
		header, err = c.decodeRecord(raw[0])
		if err != nil {
			return report, fmt.Errorf("record 1 (header): %w", err)
		}
	}

	index, missing := BuildColumnIndex(header, c.config.Columns)
	report.Found = index
	report.Missing = missing
	for _, name := range missing {
		log.Warn("column not found in header", "column", name)
	}
	if len(index) == 0 {
		log.Error("aborting: none of the target columns were found", "columns", c.config.Columns)
		return report, ErrNoTargetColumns
	}
	log.Debug("columns resolved", "columns", index.Names(), "indexes", index.Indexes())

	targets := index.Indexes()
	converted := make([][]byte, 0, len(raw))
	converted = append(converted, raw[0])

	var stats rewriter.Stats
	for i := 1; i < len(raw); i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if len(raw[i]) == 0 {
			converted = append(converted, raw[i])
			report.BlankRecords++
			continue
		}

		row, err := c.decodeRecord(raw[i])
		if errors.Is(err, ErrEmptyRecord) {
			log.Debug("record holds no fields, copied as is", "record", i+1)
			converted = append(converted, raw[i])
			continue
		}
		if err != nil {
			return report, fmt.Errorf("record %d: %w", i+1, err)
		}

		s, err := c.rewriter.Rewrite(row, targets)
		if err != nil {
			return report, fmt.Errorf("record %d: %w", i+1, err)
		}
		stats.Add(s)
		converted = append(converted, EncodeRecord(row))
	}

	payload := records.Join(converted, records.CRLF)
	if err := os.WriteFile(out, payload, 0o644); err != nil { //#nosec G306 -- output is a regular data file
		return report, fmt.Errorf("writing output: %w", err)
	}
	report.OutputBytes = len(payload)
	report.FieldsRewritten = stats.Rewritten
	report.FieldsRepaired = stats.Repaired
	log.Info("conversion complete",
		"path", out,
		"rewritten", stats.Rewritten,
		"repaired", stats.Repaired,
		"size", humanize.Bytes(uint64(len(payload))))

	return report, verifyOutput(log, report)
}

// verifyOutput recounts the records of report.Output and records the verdict
// in report. A differing count, or an output that cannot be found, is logged
// at error level and returned as ErrCountMismatch.
func verifyOutput(log *slog.Logger, report *Report) error {
	count, err := records.CountFile(report.Output)
	if err != nil {
		return fmt.Errorf("verifying output: %w", err)
	}
	report.OutputRecords = count
	report.Match = count.Status == records.StatusOK && count.N == report.InputRecords.N

	if !report.Match {
		log.Error("record count mismatch",
			"input", report.InputRecords.N,
			"output", count.N,
			"output_status", count.Status)
		return fmt.Errorf("%w: input %d, output %d (%s)",
			ErrCountMismatch, report.InputRecords.N, count.N, count.Status)
	}
	log.Info("record counts match",
		"input", report.InputRecords.N,
		"output", count.N,
		"output_status", count.Status)
	return nil
}

func (c *Converter) decodeRecord(raw []byte) ([]string, error) {
	text, err := mojibake.Decode(c.source, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", c.config.SourceEncoding, err)
	}
	return ParseRecord(text)
}

func lookupEncoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}
