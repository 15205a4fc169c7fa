package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/csvmd/internal/logger"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert HTML columns of a CSV file to Markdown",
	Long: `Convert rewrites the target columns of a CRLF-terminated CSV file.

Every target value is repaired (mojibake), rendered (Markdown by default)
and its line breaks normalised to LF. Other columns are copied, the
header is written byte-for-byte and every output field is quoted. The
command fails if no target column exists in the header or if the output
record count differs from the input.

Examples:
  csvmd convert -i catalog.csv -o out.csv -c Description
  csvmd convert -i catalog.csv -o out.csv -c Description --heading-style setext
  csvmd convert -i export.csv -o out.csv -c Body --encoding utf-8 --strip script,style`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.StringP("input", "i", "", "input CSV file (required)")
	flags.StringP("output", "o", "", "output CSV file (required)")
	addConversionFlags(flags, "", "text")

	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, conversionKeys); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	in, _ := cmd.Flags().GetString("input")
	out, _ := cmd.Flags().GetString("output")
	if in == out {
		return fmt.Errorf("input and output must differ: %s", in)
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}
	cfg := conv.Config()
	logger.Debug("convert command starting",
		"input", in,
		"output", out,
		"columns", cfg.Columns,
		"encoding", cfg.SourceEncoding,
		"renderer", cfg.Cleaner.Name(),
		"max_repair_passes", cfg.MaxRepairPasses)

	sink, err := openReport(cmd)
	if err != nil {
		return err
	}

	report, convErr := conv.Convert(ctx, in, out)
	if sink != nil {
		if report != nil {
			if err := sink.Write(report); err != nil {
				logger.Warn("failed to write report", "error", err)
			}
		}
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close report", "error", err)
		}
	}
	return convErr
}
