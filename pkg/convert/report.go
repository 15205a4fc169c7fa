package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/jmylchreest/csvmd/pkg/records"
)

// Report describes one conversion run.
type Report struct {
	RunID  string `json:"run_id" yaml:"run_id"`
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`

	InputRecords  records.Count `json:"input_records" yaml:"input_records"`
	OutputRecords records.Count `json:"output_records" yaml:"output_records"`
	Match         bool          `json:"match" yaml:"match"`

	Columns []string    `json:"columns" yaml:"columns"`
	Found   ColumnIndex `json:"found,omitempty" yaml:"found,omitempty"`
	Missing []string    `json:"missing,omitempty" yaml:"missing,omitempty"`

	BlankRecords    int `json:"blank_records" yaml:"blank_records"`
	FieldsRewritten int `json:"fields_rewritten" yaml:"fields_rewritten"`
	FieldsRepaired  int `json:"fields_repaired" yaml:"fields_repaired"`

	InputBytes  int           `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int           `json:"output_bytes" yaml:"output_bytes"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration"`
}

func newReport(in, out string, columns []string) *Report {
	return &Report{
		RunID:   uuid.New().String(),
		Input:   in,
		Output:  out,
		Columns: columns,
	}
}

// Verdict returns MATCH or MISMATCH.
func (r *Report) Verdict() string {
	if r.Match {
		return "MATCH"
	}
	return "MISMATCH"
}

// String returns a human-readable summary of the run.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run:     %s\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Input:   %s: %s, %s\n",
		r.Input, r.InputRecords, humanize.Bytes(uint64(max(r.InputBytes, 0)))))

	cols := make([]string, 0, len(r.Found))
	for _, c := range r.Found {
		cols = append(cols, fmt.Sprintf("%s (#%d)", c.Name, c.Index))
	}
	sb.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(cols, ", ")))
	if len(r.Missing) > 0 {
		sb.WriteString(fmt.Sprintf("Missing: %s\n", strings.Join(r.Missing, ", ")))
	}

	sb.WriteString(fmt.Sprintf("Output:  %s: %s, %s\n",
		r.Output, r.OutputRecords, humanize.Bytes(uint64(max(r.OutputBytes, 0)))))
	sb.WriteString(fmt.Sprintf("Fields:  %d rewritten, %d repaired, %d blank records\n",
		r.FieldsRewritten, r.FieldsRepaired, r.BlankRecords))
	sb.WriteString(fmt.Sprintf("Verdict: %s (%d -> %d) in %v\n",
		r.Verdict(), r.InputRecords.N, r.OutputRecords.N, r.Duration.Round(time.Millisecond)))

	return sb.String()
}
