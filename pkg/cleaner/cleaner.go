// Package cleaner provides interfaces and implementations for rendering the
// HTML found in catalog cells into a lighter plain-text markup.
package cleaner

import (
	"fmt"
	"strings"
)

// Cleaner transforms an HTML fragment into another text form.
// Implementations are pure: the same input always yields the same output.
type Cleaner interface {
	// Clean transforms the input HTML.
	// The output format depends on the implementation (markdown, plain text, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}

// Renderer names accepted by New.
const (
	RendererMarkdown = "markdown"
	RendererText     = "text"
	RendererNoop     = "noop"
)

// Options selects and configures a cleaner pipeline.
type Options struct {
	// Renderer is markdown (default), text or noop.
	Renderer string
	// HeadingStyle is atx (default) or setext. Only used by markdown.
	HeadingStyle string
	// Strip lists CSS selectors removed before rendering.
	Strip []string
}

// New builds the cleaner described by opts. When Strip is non-empty the
// renderer is preceded by a SanitizeCleaner.
func New(opts Options) (Cleaner, error) {
	var renderer Cleaner
	switch strings.ToLower(strings.TrimSpace(opts.Renderer)) {
	case RendererMarkdown, "":
		style, err := ParseHeadingStyle(opts.HeadingStyle)
		if err != nil {
			return nil, err
		}
		renderer = NewMarkdown(WithHeadingStyle(style))
	case RendererText:
		renderer = NewText()
	case RendererNoop:
		renderer = NewNoop()
	default:
		return nil, fmt.Errorf("unknown renderer: %s (use markdown, text or noop)", opts.Renderer)
	}

	if len(opts.Strip) == 0 {
		return renderer, nil
	}
	return NewChain(NewSanitize(opts.Strip...), renderer), nil
}
