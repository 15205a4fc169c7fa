package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/csvmd/internal/output"
	"github.com/jmylchreest/csvmd/pkg/cleaner"
	"github.com/jmylchreest/csvmd/pkg/convert"
	"github.com/jmylchreest/csvmd/pkg/mojibake"
)

var errNoColumns = errors.New("no target columns: use --columns or set columns in the config file")

// conversionKeys maps viper keys to the flags added by addConversionFlags.
var conversionKeys = map[string]string{
	"columns":           "columns",
	"encoding":          "encoding",
	"repair_encoding":   "repair-encoding",
	"max_repair_passes": "max-repair-passes",
	"renderer":          "renderer",
	"heading_style":     "heading-style",
	"strip":             "strip",
	"report":            "report",
	"report_format":     "report-format",
}

// addConversionFlags registers the flags shared by convert and watch.
func addConversionFlags(flags *pflag.FlagSet, reportDefault, formatDefault string) {
	flags.StringSliceP("columns", "c", nil, "column name(s) to convert (comma-separated or repeated)")
	flags.String("encoding", "windows-1252", "input file encoding (WHATWG label, e.g. windows-1252, utf-8)")
	flags.String("repair-encoding", "windows-1252", "encoding the mojibake was produced with")
	flags.Int("max-repair-passes", mojibake.DefaultMaxPasses, "maximum mojibake repair passes (0 disables repair)")
	flags.String("renderer", cleaner.RendererMarkdown, "renderer: markdown, text, noop")
	flags.String("heading-style", string(cleaner.HeadingATX), "markdown heading style: atx, setext")
	flags.StringSlice("strip", nil, "CSS selectors removed before rendering (e.g. "+strings.Join(cleaner.DefaultStripSelectors, ",")+")")
	flags.String("report", reportDefault, "write a run report to this file (- for stdout)")
	flags.String("report-format", formatDefault, "report format: text, json, jsonl, yaml")
}

// newConverter builds a converter from the bound viper settings.
func newConverter() (*convert.Converter, error) {
	columns := convert.ParseColumns(viper.GetStringSlice("columns")...)
	if len(columns) == 0 {
		return nil, errNoColumns
	}

	cl, err := cleaner.New(cleaner.Options{
		Renderer:     viper.GetString("renderer"),
		HeadingStyle: viper.GetString("heading_style"),
		Strip:        viper.GetStringSlice("strip"),
	})
	if err != nil {
		return nil, err
	}

	return convert.New(
		convert.WithColumns(columns...),
		convert.WithSourceEncoding(viper.GetString("encoding")),
		convert.WithRepairEncoding(viper.GetString("repair_encoding")),
		convert.WithMaxRepairPasses(viper.GetInt("max_repair_passes")),
		convert.WithCleaner(cl),
	)
}

// reportSink is an output.Writer plus the file it may own.
type reportSink struct {
	output.Writer
	file *os.File
}

// Close flushes the writer and closes the file, if any.
func (s *reportSink) Close() error {
	err := s.Writer.Close()
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openReport opens the configured report destination. It returns nil when no
// report was requested.
func openReport(cmd *cobra.Command) (*reportSink, error) {
	path := viper.GetString("report")
	if path == "" {
		return nil, nil
	}

	format, err := output.ParseFormat(viper.GetString("report_format"))
	if err != nil {
		return nil, err
	}

	var (
		w    io.Writer = cmd.OutOrStdout()
		file *os.File
	)
	if path != "-" {
		file, err = os.Create(path) //#nosec G304 -- CLI tool writes user-specified report file
		if err != nil {
			return nil, fmt.Errorf("creating report: %w", err)
		}
		w = file
	}

	writer, err := output.NewWriter(w, format)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, err
	}
	return &reportSink{Writer: writer, file: file}, nil
}
