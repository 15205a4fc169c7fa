package cleaner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultStripSelectors removes elements that never carry catalog copy.
var DefaultStripSelectors = []string{"script", "style"}

// SanitizeCleaner removes every element matching a set of CSS selectors.
// The output is still HTML and is meant to be chained before a renderer.
type SanitizeCleaner struct {
	selector string
}

// NewSanitize creates a cleaner removing elements matching any of selectors.
func NewSanitize(selectors ...string) *SanitizeCleaner {
	cleaned := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return &SanitizeCleaner{selector: strings.Join(cleaned, ", ")}
}

// Clean removes matching elements. Input with no match is returned as is,
// without a parse/serialise round trip.
func (c *SanitizeCleaner) Clean(html string) (string, error) {
	if c.selector == "" {
		return html, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	matches := doc.Find(c.selector)
	if matches.Length() == 0 {
		return html, nil
	}
	matches.Remove()

	// The fragment may have been split between head and body by the parser.
	var sb strings.Builder
	for _, part := range []string{"head", "body"} {
		out, err := doc.Find(part).Html()
		if err != nil {
			return "", fmt.Errorf("failed to render HTML: %w", err)
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// Name returns the cleaner type.
func (c *SanitizeCleaner) Name() string {
	return "sanitize"
}

// Selector returns the combined selector.
func (c *SanitizeCleaner) Selector() string {
	return c.selector
}
