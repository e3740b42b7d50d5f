package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

const transformed = `<html><head><title>Agreement</title><style>.paragraph-number{font-weight:bold}</style></head>` +
	`<body><h2 data-header-level="2">Terms</h2><p>Text</p></body></html>`

func TestComposeDocument(t *testing.T) {
	meta := transform.Metadata{
		Headers: []transform.HeaderRecord{{Level: 1, Text: "Terms", CustomLevel: 2}},
	}

	out, err := ComposeDocument(transformed, meta)
	require.NoError(t, err)

	text := string(out)
	require.True(t, strings.HasPrefix(text, "<!DOCTYPE html>\n<html>"))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	require.NoError(t, err)

	script := doc.Find("head > script")
	require.Equal(t, 1, script.Length())
	assert.Equal(t, 0, doc.Find("body script").Length())
	// the script comes after the existing head content
	assert.Equal(t, "script", goquery.NodeName(doc.Find("head").Children().Last()))

	body := strings.TrimSuffix(strings.TrimPrefix(script.Text(), metadataGlobal+" = "), ";")
	var decoded transform.Metadata
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, meta.Headers, decoded.Headers)

	assert.Equal(t, "Terms", doc.Find("body h2").Text())
}

func TestRenderers(t *testing.T) {
	structure := &transform.Structure{}
	structure.Document.Metadata.Title = "Agreement"

	doc := &core.CleanedDocument{
		Meta:      core.DocumentMetadata{Title: "Agreement", Source: "contract.html"},
		HTML:      transformed,
		Markdown:  "# Terms\n\n**1** First clause.\n",
		Structure: structure,
	}

	t.Run("markdown", func(t *testing.T) {
		out, err := NewMarkdownRenderer().Render(doc)
		require.NoError(t, err)
		assert.Equal(t, doc.Markdown, string(out))
	})

	t.Run("json", func(t *testing.T) {
		out, err := NewJSONRenderer().Render(doc)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"title": "Agreement"`)
		assert.True(t, strings.HasSuffix(string(out), "}\n"))
	})

	t.Run("json without structure", func(t *testing.T) {
		_, err := NewJSONRenderer().Render(&core.CleanedDocument{})
		assert.Error(t, err)
	})

	t.Run("pdf", func(t *testing.T) {
		out, err := NewPDFRenderer().Render(doc)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(out), "%PDF"))
	})

	t.Run("html", func(t *testing.T) {
		out, err := NewHTMLRenderer().Render(doc)
		require.NoError(t, err)
		assert.Contains(t, string(out), metadataGlobal)
	})
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"", ".html"},
		{"html", ".html"},
		{"JSON", ".json"},
		{"markdown", ".md"},
		{"md", ".md"},
		{"pdf", ".pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := ForFormat(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, r.Extension())
		})
	}

	_, err := ForFormat("docx")
	assert.Error(t, err)
}

func TestTextEncoder(t *testing.T) {
	enc := newTextEncoder(gofpdf.New("P", "mm", "A4", ""))

	assert.Equal(t, "Smlouva c. 1", enc.encode("Smlouva č. 1"))
	assert.Equal(t, "caf\xe9", enc.encode("café"))
	assert.Equal(t, "\xa7 3", enc.encode("§ 3"))
	// decomposed input is composed before lookup
	assert.Equal(t, "caf\xe9", enc.encode("cafe\u0301"))
}

func TestCleanInlineMarkdown(t *testing.T) {
	assert.Equal(t, "1 First clause.", cleanInlineMarkdown("**1** First clause."))
	assert.Equal(t, "see terms", cleanInlineMarkdown("see [terms](https://example.com/terms)"))
	assert.Equal(t, "1.2", cleanInlineMarkdown(`1\.2`))
}
