package fetch

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

// FileSource reads documents from the local filesystem. Markdown files are
// rendered to HTML first so they go through the same engine.
type FileSource struct{}

func NewFileSource() *FileSource {
	return &FileSource{}
}

func (s *FileSource) Load(ctx context.Context, path string) (*core.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	name := filepath.Base(path)
	var text string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		text, err = markdownToHTML(raw, strings.TrimSuffix(name, filepath.Ext(name)))
	default:
		text, err = decode(raw, "")
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &core.SourceDocument{
		Name:     name,
		Location: path,
		HTML:     text,
	}, nil
}

// FromBytes builds a SourceDocument from uploaded content.
func FromBytes(name string, raw []byte, contentType string) (*core.SourceDocument, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		text, err = markdownToHTML(raw, strings.TrimSuffix(name, filepath.Ext(name)))
	default:
		text, err = decode(raw, contentType)
	}
	if err != nil {
		return nil, err
	}
	return &core.SourceDocument{Name: name, Location: name, HTML: text}, nil
}

func markdownToHTML(raw []byte, title string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert(raw, &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title></head><body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body></html>\n")
	return b.String(), nil
}
