package transform

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HeaderRef identifies a heading across parses. It is never a pointer into
// a tree: every pass resolves it again, by ID first and then by level and
// trimmed text.
type HeaderRef struct {
	ID    string `json:"id,omitempty"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// HeaderManager looks up and re-levels headings in one document.
type HeaderManager struct {
	doc *goquery.Document
}

func NewHeaderManager(doc *goquery.Document) *HeaderManager {
	return &HeaderManager{doc: doc}
}

// FindByID returns the first element carrying the given id.
func (m *HeaderManager) FindByID(id string) (*goquery.Selection, bool) {
	if len(m.doc.Nodes) == 0 {
		return nil, false
	}
	n := findByID(m.doc.Nodes[0], id)
	if n == nil {
		return nil, false
	}
	return m.doc.FindNodes(n), true
}

// FindByText returns the first h{level} whose trimmed text equals the
// trimmed query. Duplicate headings resolve to the first occurrence.
func (m *HeaderManager) FindByText(level int, text string) (*goquery.Selection, bool) {
	if !validLevel(level) {
		return nil, false
	}
	want := strings.TrimSpace(text)
	match := m.doc.Find(headingTag(level)).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == want
	}).First()
	if match.Length() == 0 {
		return nil, false
	}
	return match, true
}

// Resolve finds the live heading for ref in this document. An id that
// belongs to a non-heading element falls through to the text lookup.
func (m *HeaderManager) Resolve(ref HeaderRef) (*goquery.Selection, bool) {
	if ref.ID != "" {
		if sel, ok := m.FindByID(ref.ID); ok && sel.IsMatcher(headingMatcher) {
			return sel, true
		}
	}
	return m.FindByText(ref.Level, ref.Text)
}

// Transform replaces target with a new h{level} element holding the same
// text and attributes, marked with data-header-level. It reports false when
// the level is out of range or target is no longer attached to the tree.
func (m *HeaderManager) Transform(target *goquery.Selection, level int) bool {
	if target == nil || target.Length() == 0 || !validLevel(level) {
		return false
	}
	old := target.Get(0)
	if old.Parent == nil {
		return false
	}

	attrs := make([]html.Attribute, 0, len(old.Attr)+1)
	for _, a := range old.Attr {
		if a.Key != attrHeaderLevel {
			attrs = append(attrs, a)
		}
	}
	attrs = append(attrs, html.Attribute{Key: attrHeaderLevel, Val: strconv.Itoa(level)})

	heading := newElement(headingTag(level), attrs...)
	if text := dom.CollectText(old); text != "" {
		heading.AppendChild(newText(text))
	}
	dom.ReplaceNode(old, heading)
	return true
}
