package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/csvmd/internal/logger"
	"github.com/jmylchreest/csvmd/internal/output"
	"github.com/jmylchreest/csvmd/pkg/convert"
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Convert CSV files as they appear in a directory",
	Long: `Watch converts every *.csv file created or written in DIR into the
output directory, using the same settings as convert. A file is converted
once it has been quiet for --settle. One report per file is written
(JSONL on stdout by default) until the command is interrupted.

Examples:
  csvmd watch ./incoming -O ./converted -c Description
  csvmd watch ./incoming -O ./converted -c Description --existing --report runs.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	flags := watchCmd.Flags()
	flags.StringP("out-dir", "O", "", "directory converted files are written to (required)")
	flags.Duration("settle", 500*time.Millisecond, "quiet period before a changed file is converted")
	flags.Bool("existing", false, "also convert *.csv files already in DIR at startup")
	addConversionFlags(flags, "-", "jsonl")

	_ = watchCmd.MarkFlagRequired("out-dir")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, conversionKeys); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir := args[0]
	outDir, _ := cmd.Flags().GetString("out-dir")
	settle, _ := cmd.Flags().GetDuration("settle")
	existing, _ := cmd.Flags().GetBool("existing")

	if err := checkWatchDirs(dir, outDir); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}
	sink, err := openReport(cmd)
	if err != nil {
		return err
	}
	var reports output.Writer
	if sink != nil {
		defer func() { _ = sink.Close() }()
		reports = sink
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	d := &dirConverter{conv: conv, outDir: outDir, reports: reports}
	if existing {
		matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return err
		}
		for _, path := range matches {
			d.handle(ctx, path)
		}
	}

	logger.Info("watching for CSV files", "dir", dir, "out_dir", outDir, "settle", settle)
	return watchLoop(ctx, fw, settle, func(path string) { d.handle(ctx, path) })
}

// checkWatchDirs rejects an output directory equal to the watched one, which
// would feed every output file back in as input.
func checkWatchDirs(dir, outDir string) error {
	a, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	b, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("output directory must differ from the watched directory: %s", dir)
	}
	return nil
}

// isCSV reports whether path has a .csv extension, in any case.
func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// watchLoop collects create and write events for CSV files and calls fn for
// each path once it has been quiet for settle. Conversions run one at a
// time on the loop goroutine.
func watchLoop(ctx context.Context, fw *fsnotify.Watcher, settle time.Duration, fn func(path string)) error {
	tick := settle / 2
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped", "pending", len(pending))
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isCSV(ev.Name) || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
				continue
			}
			logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				fn(path)
			}
		}
	}
}

// dirConverter converts single files into outDir and records their reports.
type dirConverter struct {
	conv    *convert.Converter
	outDir  string
	reports output.Writer
}

// target returns the output path for an input file.
func (d *dirConverter) target(path string) string {
	return filepath.Join(d.outDir, filepath.Base(path))
}

// handle converts one file. Failures are logged and do not stop the watch.
func (d *dirConverter) handle(ctx context.Context, path string) {
	out := d.target(path)
	report, err := d.conv.Convert(ctx, path, out)
	switch {
	case errors.Is(err, convert.ErrInputNotFound):
		logger.Debug("file vanished before conversion", "path", path)
		return
	case err != nil:
		logger.Error("conversion failed", "path", path, "error", err)
	}

	if report == nil || d.reports == nil {
		return
	}
	if err := d.reports.Write(report); err != nil {
		logger.Warn("failed to write report", "path", path, "error", err)
	}
}
