package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

const metadataGlobal = "window.fileMetadata"

// HTMLRenderer writes the cleaned document as a full HTML file with the
// engine metadata attached as a script in <head>.
type HTMLRenderer struct{}

// NewHTMLRenderer creates an HTMLRenderer.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

func (r *HTMLRenderer) Render(doc *core.CleanedDocument) ([]byte, error) {
	return ComposeDocument(doc.HTML, doc.FileMetadata)
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}

// ComposeDocument serializes transformed as a complete document: a doctype,
// then <html> whose <head> ends with a script assigning metadata to
// window.fileMetadata.
func ComposeDocument(transformed string, metadata any) ([]byte, error) {
	blob, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(transformed))
	if err != nil {
		return nil, fmt.Errorf("parsing transformed document: %w", err)
	}

	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: metadataGlobal + " = " + string(blob) + ";",
	})
	doc.Find("head").First().AppendNodes(script)

	root, err := goquery.OuterHtml(doc.Find("html").First())
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return []byte("<!DOCTYPE html>\n" + root), nil
}
