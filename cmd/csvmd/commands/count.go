package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/csvmd/internal/output"
	"github.com/jmylchreest/csvmd/pkg/records"
)

// countResult is one row of "csvmd count" output.
type countResult struct {
	Path    string         `json:"path" yaml:"path"`
	Records int            `json:"records" yaml:"records"`
	Status  records.Status `json:"status" yaml:"status"`
}

func (r countResult) String() string {
	return fmt.Sprintf("%s: %s", r.Path, records.Count{N: r.Records, Status: r.Status})
}

var countCmd = &cobra.Command{
	Use:   "count FILE...",
	Short: "Count CRLF-terminated records",
	Long: `Count prints the number of CRLF-terminated records in each file.

A missing file is reported with status "not found" rather than failing.
Blank records count; a final terminator does not start a record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
	countCmd.Flags().String("format", "text", "output format: text, json, jsonl, yaml")
}

func runCount(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	w, err := output.NewWriter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	for _, path := range args {
		c, err := records.CountFile(path)
		if err != nil {
			return fmt.Errorf("counting %s: %w", path, err)
		}
		if err := w.Write(countResult{Path: path, Records: c.N, Status: c.Status}); err != nil {
			return err
		}
	}
	return w.Close()
}
