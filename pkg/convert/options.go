package convert

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/csvmd/pkg/cleaner"
	"github.com/jmylchreest/csvmd/pkg/mojibake"
)

// Config holds all conversion settings.
type Config struct {
	// Columns are the header names whose values are rewritten.
	Columns []string `validate:"required,min=1,dive,required"`

	// SourceEncoding is the WHATWG label of the input file encoding.
	SourceEncoding string `validate:"required"`

	// RepairEncoding is the legacy encoding the mojibake was produced with.
	RepairEncoding string `validate:"required"`

	// MaxRepairPasses bounds the mojibake repair loop.
	MaxRepairPasses int `validate:"gte=0,lte=10"`

	// Cleaner renders HTML. Defaults to an ATX markdown cleaner.
	Cleaner cleaner.Cleaner `validate:"required"`
}

// DefaultConfig returns the settings used for catalog exports.
func DefaultConfig() Config {
	return Config{
		SourceEncoding:  "windows-1252",
		RepairEncoding:  "windows-1252",
		MaxRepairPasses: mojibake.DefaultMaxPasses,
		Cleaner:         cleaner.NewMarkdown(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, col := range c.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("invalid config: blank column name")
		}
	}
	return nil
}

// Option configures a Converter.
type Option func(*Config)

// WithColumns sets the target columns.
func WithColumns(columns ...string) Option {
	return func(c *Config) {
		c.Columns = columns
	}
}

// WithColumn sets a single target column.
func WithColumn(column string) Option {
	return WithColumns(column)
}

// WithSourceEncoding sets the input encoding label (e.g. "windows-1252", "utf-8").
func WithSourceEncoding(label string) Option {
	return func(c *Config) {
		c.SourceEncoding = label
	}
}

// WithRepairEncoding sets the encoding the mojibake was produced with.
func WithRepairEncoding(label string) Option {
	return func(c *Config) {
		c.RepairEncoding = label
	}
}

// WithMaxRepairPasses sets the repair pass ceiling.
func WithMaxRepairPasses(n int) Option {
	return func(c *Config) {
		c.MaxRepairPasses = n
	}
}

// WithCleaner sets the HTML renderer.
func WithCleaner(cl cleaner.Cleaner) Option {
	return func(c *Config) {
		c.Cleaner = cl
	}
}

// ParseColumns splits a comma-separated list of column names, trimming
// whitespace and dropping empty entries.
func ParseColumns(list ...string) []string {
	var cols []string
	for _, item := range list {
		for _, name := range strings.Split(item, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cols = append(cols, name)
			}
		}
	}
	return cols
}
