// Package commands implements the CLI commands for csvmd.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/csvmd/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "csvmd",
	Short: "Convert HTML columns of CRLF CSV exports to Markdown",
	Long: `csvmd rewrites selected HTML columns of a CSV export into Markdown.

Records are split on CRLF only, so stray carriage returns inside fields
never change the record count. Mis-decoded UTF-8 (mojibake) is repaired
before rendering, and the output record count is verified against the
input.

Examples:
  # Convert the Description column
  csvmd convert -i catalog.csv -o catalog.md.csv -c Description

  # Several columns, plain text instead of Markdown, JSON report
  csvmd convert -i in.csv -o out.csv -c "Description,Notes" \
      --renderer text --report report.json --report-format json

  # Check record counts
  csvmd count in.csv out.csv

  # Convert every CSV dropped into a directory
  csvmd watch ./incoming -O ./converted -c Description`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
			Level: viper.GetString("log_level"),
		})
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.csvmd.yaml or ./.csvmd.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")
	flags.String("log-level", "", "log level: debug, info, warn, error (overrides --debug/--quiet)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".csvmd")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CSVMD")
	viper.AutomaticEnv()

	// A missing config file is fine; a broken one is reported.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logError("reading config: %v", err)
		}
	}
}

// Execute runs the root command. Failures are logged before returning.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

// bindFlags binds the named flags of cmd to viper keys. Commands bind when
// they run so that commands sharing a key do not shadow each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
