package cleaner

import (
	"github.com/k3a/html2text"
)

// TextCleaner converts HTML to plain text, dropping all markup.
// Line breaks produced by html2text are CRLF; callers that need LF must
// normalise them.
type TextCleaner struct{}

// NewText creates a new plain text cleaner.
func NewText() *TextCleaner {
	return &TextCleaner{}
}

// Clean strips tags and decodes entities.
func (c *TextCleaner) Clean(html string) (string, error) {
	return html2text.HTML2Text(html), nil
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return RendererText
}
