package render

import (
	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// MarkdownRenderer writes the normalized Markdown of a cleaned document.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the document's Markdown as bytes (passthrough).
func (r *MarkdownRenderer) Render(doc *core.CleanedDocument) ([]byte, error) {
	return []byte(doc.Markdown), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
