// Package extract implements the Extractor interface.
// It turns a cleaned document into the fragment that exports are built from:
//  1. Noise elements (scripts, styles, embedded media, form controls) are removed
//  2. Ordered lists carrying numbering labels become labelled blocks,
//     so exports keep the original numbering instead of renumbering items
//  3. The best content container (<main>, <article>, or <body>) is returned
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/atom"
)

// noiseSelectors are HTML elements removed before extraction.
var noiseSelectors = []string{
	"script", "style", "noscript", "template",
	"iframe", "object", "embed", "video", "audio",
	"svg", "canvas",
	"form", "button", "input", "select", "textarea",
}

const numberLabel = "span.paragraph-number"

// HTMLExtractor strips noise from a cleaned document and returns its content fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract returns the content container of html as an HTML fragment.
func (e *HTMLExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	flattenNumberedLists(doc)

	var content *goquery.Selection
	for _, tag := range []string{"main", "article", "body"} {
		sel := doc.Find(tag)
		if sel.Length() > 0 {
			content = sel.First()
			break
		}
	}
	if content == nil {
		return "", fmt.Errorf("no content container found in HTML")
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("serializing content: %w", err)
	}
	return result, nil
}

// flattenNumberedLists rewrites every <ol> that holds numbering labels into
// nested <div> blocks, with the label text bolded at the start of each item.
// Innermost lists are handled first so nesting is preserved.
func flattenNumberedLists(doc *goquery.Document) {
	lists := doc.Find("ol").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ChildrenFiltered("li").Has(numberLabel).Length() > 0
	})
	for i := lists.Length() - 1; i >= 0; i-- {
		list := lists.Eq(i)
		list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
			item.ChildrenFiltered(numberLabel).Each(func(_ int, label *goquery.Selection) {
				text := strings.TrimSpace(label.Text())
				label.ReplaceWithHtml("<strong>" + text + "</strong> ")
			})
			rename(item, "div", atom.Div)
		})
		rename(list, "div", atom.Div)
	}
}

func rename(sel *goquery.Selection, tag string, a atom.Atom) {
	for _, n := range sel.Nodes {
		n.Data = tag
		n.DataAtom = a
	}
}
