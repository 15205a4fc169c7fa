package cleaner

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// HeadingStyle selects how headings are written.
type HeadingStyle string

const (
	// HeadingATX writes "# Title".
	HeadingATX HeadingStyle = "atx"
	// HeadingSetext underlines level 1 and 2 headings with = and -.
	HeadingSetext HeadingStyle = "setext"
)

// ParseHeadingStyle parses a heading style name. Empty means ATX.
func ParseHeadingStyle(s string) (HeadingStyle, error) {
	switch HeadingStyle(strings.ToLower(strings.TrimSpace(s))) {
	case HeadingATX, "":
		return HeadingATX, nil
	case HeadingSetext:
		return HeadingSetext, nil
	default:
		return "", fmt.Errorf("unknown heading style: %s (use atx or setext)", s)
	}
}

// MarkdownCleaner converts HTML to Markdown using html-to-markdown.
type MarkdownCleaner struct {
	conv  *converter.Converter
	style HeadingStyle
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*markdownConfig)

type markdownConfig struct {
	headingStyle HeadingStyle
}

// WithHeadingStyle sets the heading style.
func WithHeadingStyle(style HeadingStyle) MarkdownOption {
	return func(c *markdownConfig) {
		c.headingStyle = style
	}
}

// NewMarkdown creates a new Markdown cleaner. ATX headings are the default.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	cfg := &markdownConfig{headingStyle: HeadingATX}
	for _, opt := range opts {
		opt(cfg)
	}

	var cm converter.Plugin
	switch cfg.headingStyle {
	case HeadingSetext:
		cm = commonmark.NewCommonmarkPlugin(
			commonmark.WithHeadingStyle(commonmark.HeadingStyleSetext),
		)
	default:
		cfg.headingStyle = HeadingATX
		cm = commonmark.NewCommonmarkPlugin(
			commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
		)
	}

	return &MarkdownCleaner{
		conv: converter.NewConverter(
			converter.WithPlugins(base.NewBasePlugin(), cm),
		),
		style: cfg.headingStyle,
	}
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	markdown, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return cleanWhitespace(markdown), nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return RendererMarkdown
}

// HeadingStyle returns the configured heading style.
func (c *MarkdownCleaner) HeadingStyle() HeadingStyle {
	return c.style
}

// cleanWhitespace collapses runs of blank lines to one and trims the result.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blankCount := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, "")
			}
			continue
		}
		blankCount = 0
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
