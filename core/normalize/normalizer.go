// Package normalize implements the Normalizer interface.
// It converts the extracted body of a cleaned document into Markdown,
// which the Markdown and PDF exports are built from.
package normalize

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct {
	domain string
}

// Option configures a MarkdownNormalizer.
type Option func(*MarkdownNormalizer)

// WithDomain resolves relative links and images against domain, e.g. the
// origin of a fetched document.
func WithDomain(domain string) Option {
	return func(n *MarkdownNormalizer) {
		n.domain = domain
	}
}

// New creates a MarkdownNormalizer.
func New(opts ...Option) *MarkdownNormalizer {
	n := &MarkdownNormalizer{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts a cleaned HTML fragment into Markdown.
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if n.domain != "" {
		opts = append(opts, converter.WithDomain(n.domain))
	}
	markdown, err := htmltomarkdown.ConvertString(html, opts...)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown) + "\n", nil
}
