package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/jmylchreest/csvmd/pkg/mojibake"
)

var repairCmd = &cobra.Command{
	Use:   "repair TEXT...",
	Short: "Repair mojibake in the given strings",
	Long: `Repair runs the bounded mojibake repair on each argument and prints the
result with the number of passes taken and why the loop stopped.

--corrupt applies the forward corruption first, which is handy to see
how many passes a given amount of damage needs.

Examples:
  csvmd repair "CafÃ©"
  csvmd repair --corrupt 2 "Café"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)

	flags := repairCmd.Flags()
	flags.Int("passes", mojibake.DefaultMaxPasses, "maximum repair passes")
	flags.Int("corrupt", 0, "corrupt each argument this many times before repairing")
	flags.String("encoding", "windows-1252", "legacy encoding the mojibake was produced with")
}

func runRepair(cmd *cobra.Command, args []string) error {
	passes, _ := cmd.Flags().GetInt("passes")
	corrupt, _ := cmd.Flags().GetInt("corrupt")
	label, _ := cmd.Flags().GetString("encoding")

	enc, err := htmlindex.Get(label)
	if err != nil {
		return fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	rep := mojibake.New(enc, passes)

	out := cmd.OutOrStdout()
	for _, text := range args {
		for i := 0; i < corrupt; i++ {
			if text, err = mojibake.Corrupt(text, enc); err != nil {
				return err
			}
		}
		if corrupt > 0 {
			fmt.Fprintf(out, "input:   %s\n", text)
		}

		res := rep.Repair(text)
		fmt.Fprintf(out, "%s\tpasses=%d outcome=%s\n", res.Text, res.Passes, res.Outcome)
	}
	return nil
}
