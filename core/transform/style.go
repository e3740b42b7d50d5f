package transform

import (
	"github.com/PuerkitoBio/goquery"
)

// baselineStyles is the only stylesheet a cleaned document carries.
const baselineStyles = `
.paragraph-number {
  font-weight: bold;
  margin-right: 5px;
}
ol {
  list-style-type: none;
  padding-left: 0;
}
ol ol {
  padding-left: 20px;
}
`

// StyleManager removes author styling from a document and installs the
// baseline stylesheet.
type StyleManager struct {
	doc *goquery.Document
}

func NewStyleManager(doc *goquery.Document) *StyleManager {
	return &StyleManager{doc: doc}
}

// RemoveStyleTags deletes every <style> element.
func (m *StyleManager) RemoveStyleTags() {
	m.doc.Find("style").Remove()
}

// RemoveInlineStyles drops the style attribute from every element.
func (m *StyleManager) RemoveInlineStyles() {
	m.doc.Find("[style]").RemoveAttr("style")
}

// AddBasicStyles appends the baseline stylesheet to <head>. It reports
// false and does nothing when the document has no head.
func (m *StyleManager) AddBasicStyles() bool {
	head := m.doc.Find("head").First()
	if head.Length() == 0 {
		return false
	}
	style := newElement("style")
	style.AppendChild(newText(baselineStyles))
	head.AppendNodes(style)
	return true
}
