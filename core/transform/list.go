package transform

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const numberLabelClass = "paragraph-number"

// numberingToken accepts the only tokens trusted as original numbering:
// digits, optionally followed by one dotted group ("3", "4.12").
var numberingToken = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ListManager restores visible numbering on ordered-list items.
type ListManager struct {
	doc *goquery.Document
}

func NewListManager(doc *goquery.Document) *ListManager {
	return &ListManager{doc: doc}
}

// PreserveParagraphNumbering puts a "<token> " label in front of every
// ordered-list item whose data-list-text is a numbering token. Labels from
// an earlier run are removed first, so repeated calls give the same markup.
func (m *ListManager) PreserveParagraphNumbering() {
	m.doc.Find("ol").Each(func(_ int, list *goquery.Selection) {
		list.Find("li").Each(func(_ int, item *goquery.Selection) {
			item.Find("span." + numberLabelClass).Remove()

			token, ok := item.Attr(attrListText)
			if !ok || !numberingToken.MatchString(token) {
				return
			}
			item.PrependNodes(numberLabel(token))
		})
	})
}

func numberLabel(token string) *html.Node {
	span := newElement("span", html.Attribute{Key: "class", Val: numberLabelClass})
	span.AppendChild(newText(token + " "))
	return span
}
