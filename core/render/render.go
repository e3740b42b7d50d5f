// Package render provides output renderers for cleaned documents.
package render

import (
	"fmt"
	"strings"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// Output formats accepted by ForFormat.
const (
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatHTML, FormatJSON, FormatMarkdown, FormatPDF}

// ForFormat returns the renderer for the named format.
func ForFormat(format string) (core.Renderer, error) {
	switch strings.ToLower(format) {
	case FormatHTML, "":
		return NewHTMLRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(), nil
	case FormatMarkdown, "md":
		return NewMarkdownRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
