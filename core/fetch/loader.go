package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// AutoLoader sends http(s) references to an HTTPFetcher and everything
// else to a FileSource.
type AutoLoader struct {
	HTTP *HTTPFetcher
	File *FileSource
}

func NewAutoLoader(opts Options) *AutoLoader {
	return &AutoLoader{HTTP: New(opts), File: NewFileSource()}
}

func (l *AutoLoader) Load(ctx context.Context, ref string) (*core.SourceDocument, error) {
	if IsURL(ref) {
		return l.HTTP.Load(ctx, ref)
	}
	return l.File.Load(ctx, ref)
}

// IsURL reports whether ref is an absolute http or https URL.
func IsURL(ref string) bool {
	parsed, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// NameFromURL converts a URL into a flat file name without extension.
// Example: https://example.com/docs/intro.html → example_com_docs_intro
func NameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return sanitize(rawURL)
	}

	parts := []string{sanitize(parsed.Host)}
	path := strings.Trim(parsed.Path, "/")
	if ext := strings.LastIndex(path, "."); ext > strings.LastIndex(path, "/") {
		path = path[:ext]
	}
	if path != "" {
		for _, seg := range strings.Split(path, "/") {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
