package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Content node types.
const (
	NodeHeader    = "header"
	NodeList      = "list"
	NodeParagraph = "paragraph"
)

// Structure is the JSON description of an annotated document.
type Structure struct {
	Document DocumentNode `json:"document"`
}

type DocumentNode struct {
	Metadata  DocumentMetadata `json:"metadata"`
	Structure SectionTree      `json:"structure"`
}

type DocumentMetadata struct {
	Title        string `json:"title"`
	Version      string `json:"version"`
	LastModified string `json:"lastModified"`
}

type SectionTree struct {
	Sections []Section `json:"sections"`
}

// Section mirrors one generated <section>. Subsections is always empty:
// sections are flat by position, not nested by heading level.
type Section struct {
	ID          string        `json:"id"`
	HTMLID      string        `json:"htmlId"`
	Title       string        `json:"title"`
	Level       int           `json:"level"`
	Content     []ContentNode `json:"content"`
	Subsections []Section     `json:"subsections"`
	Path        string        `json:"path,omitempty"`
	Element     string        `json:"element,omitempty"`
}

// ContentNode is a header, list or paragraph inside a section. Element is
// only filled in the interactive variant, as are header nodes.
type ContentNode struct {
	Type     string     `json:"type"`
	ID       string     `json:"id"`
	HTMLID   string     `json:"htmlId"`
	Level    int        `json:"level,omitempty"`
	ListType string     `json:"listType,omitempty"`
	Number   string     `json:"number,omitempty"`
	Text     string     `json:"text,omitempty"`
	Items    []ListItem `json:"items,omitempty"`
	Path     string     `json:"path"`
	Element  string     `json:"element,omitempty"`
}

type ListItem struct {
	ID      string `json:"id"`
	HTMLID  string `json:"htmlId"`
	Number  string `json:"number"`
	Text    string `json:"text"`
	Path    string `json:"path"`
	Element string `json:"element,omitempty"`
}

// Paths returns every identity path in s, sections first, in document order.
func (s *Structure) Paths() []string {
	var paths []string
	for _, sec := range s.Document.Structure.Sections {
		if sec.Path != "" {
			paths = append(paths, sec.Path)
		}
		for _, node := range sec.Content {
			if node.Path != "" {
				paths = append(paths, node.Path)
			}
			for _, item := range node.Items {
				if item.Path != "" {
					paths = append(paths, item.Path)
				}
			}
		}
	}
	return paths
}

// structureBuilder projects an annotated document into a Structure. It only
// reads the tree.
type structureBuilder struct {
	interactive  bool
	defaultTitle string
	version      string
	now          time.Time
}

func (b structureBuilder) build(doc *goquery.Document) (*Structure, error) {
	out := &Structure{
		Document: DocumentNode{
			Metadata: DocumentMetadata{
				Title:        documentTitle(doc, b.defaultTitle),
				Version:      b.version,
				LastModified: b.now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			},
			Structure: SectionTree{Sections: []Section{}},
		},
	}

	var err error
	doc.FindMatcher(sectionMatcher).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var section Section
		section, err = b.section(sel)
		if err != nil {
			return false
		}
		out.Document.Structure.Sections = append(out.Document.Structure.Sections, section)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b structureBuilder) section(sel *goquery.Selection) (Section, error) {
	n := sel.Get(0)
	id := dom.GetAttributeOr(n, attrID, "")
	level, err := strconv.Atoi(dom.GetAttributeOr(n, attrSectionLevel, "1"))
	if err != nil {
		level = 1
	}
	section := Section{
		ID:          id,
		HTMLID:      id,
		Title:       dom.GetAttributeOr(n, attrSectionTitle, ""),
		Level:       level,
		Content:     []ContentNode{},
		Subsections: []Section{},
	}
	if b.interactive {
		section.Path = elementPath(n)
		if section.Element, err = goquery.OuterHtml(sel); err != nil {
			return section, fmt.Errorf("serializing section %s: %w", id, err)
		}
	}

	for _, child := range dom.AllChildElements(n) {
		var (
			node ContentNode
			ok   bool
		)
		switch name := dom.NodeName(child); {
		case dom.NameIsHeading(name):
			if !b.interactive {
				continue
			}
			node, ok = b.headerNode(child), true
		case name == "ol" || name == "ul":
			node, ok = b.listNode(child), true
		case name == "p":
			node, ok = b.paragraphNode(child), true
		}
		if !ok {
			continue
		}
		if b.interactive {
			if err := b.attachMarkup(sel, child, &node); err != nil {
				return section, err
			}
		}
		section.Content = append(section.Content, node)
	}
	return section, nil
}

func (b structureBuilder) headerNode(n *html.Node) ContentNode {
	id := dom.GetAttributeOr(n, attrID, "")
	return ContentNode{
		Type:   NodeHeader,
		ID:     id,
		HTMLID: id,
		Level:  headingLevel(n.Data),
		Text:   trimmedText(n),
		Path:   elementPath(n),
	}
}

func (b structureBuilder) listNode(n *html.Node) ContentNode {
	id := dom.GetAttributeOr(n, attrID, "")
	node := ContentNode{
		Type:     NodeList,
		ID:       id,
		HTMLID:   id,
		ListType: dom.GetAttributeOr(n, attrListType, ""),
		Path:     elementPath(n),
	}
	for _, li := range dom.FindAllNodes(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && c.Data == "li"
	}) {
		itemID := dom.GetAttributeOr(li, attrID, "")
		node.Items = append(node.Items, ListItem{
			ID:     itemID,
			HTMLID: itemID,
			Number: dom.GetAttributeOr(li, attrListText, ""),
			Text:   trimmedText(li),
			Path:   elementPath(li),
		})
	}
	return node
}

func (b structureBuilder) paragraphNode(n *html.Node) ContentNode {
	id := dom.GetAttributeOr(n, attrID, "")
	return ContentNode{
		Type:   NodeParagraph,
		ID:     id,
		HTMLID: id,
		Number: dom.GetAttributeOr(n, attrParagraphNumber, ""),
		Text:   trimmedText(n),
		Path:   elementPath(n),
	}
}

// attachMarkup fills the serialized markup of a node and of its list items.
func (b structureBuilder) attachMarkup(section *goquery.Selection, n *html.Node, node *ContentNode) error {
	var err error
	if node.Element, err = goquery.OuterHtml(section.FindNodes(n)); err != nil {
		return fmt.Errorf("serializing %s %s: %w", node.Type, node.ID, err)
	}
	if len(node.Items) == 0 {
		return nil
	}
	items := section.FindNodes(n).Find("li")
	for i := range node.Items {
		if i >= items.Length() {
			break
		}
		if node.Items[i].Element, err = goquery.OuterHtml(items.Eq(i)); err != nil {
			return fmt.Errorf("serializing item %s: %w", node.Items[i].ID, err)
		}
	}
	return nil
}

// documentTitle mirrors document.title: the <title> text with whitespace
// collapsed, or fallback when empty.
func documentTitle(doc *goquery.Document, fallback string) string {
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	if title == "" {
		return fallback
	}
	return title
}
