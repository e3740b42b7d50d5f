package transform

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes written or read by the engine.
const (
	attrID              = "id"
	attrListText        = "data-list-text"
	attrHeaderLevel     = "data-header-level"
	attrSectionLevel    = "data-section-level"
	attrSectionTitle    = "data-section-title"
	attrListType        = "data-list-type"
	attrItemNumber      = "data-item-number"
	attrParagraphNumber = "data-paragraph-number"
)

var (
	headingMatcher = cascadia.MustCompile("h1, h2, h3, h4, h5, h6")
	listMatcher    = cascadia.MustCompile("ol, ul")
	// elements annotate gives a fresh id
	reassignedMatcher = cascadia.MustCompile("p, ol, ul, ol li, ul li")

	sectionMatcher = cascadia.MustCompile("section[" + attrSectionLevel + "]")
)

// parse turns HTML text into a fresh, disposable document. The x/net/html
// parser follows the HTML5 algorithm and never rejects text input.
func parse(text string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(text))
}

func newElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

func newText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// headingLevel returns 1..6 for h1..h6 and 0 for anything else.
func headingLevel(tag string) int {
	if !dom.NameIsHeading(tag) {
		return 0
	}
	return int(tag[1] - '0')
}

func headingTag(level int) string {
	return "h" + strconv.Itoa(level)
}

func validLevel(level int) bool {
	return level >= 1 && level <= 6
}

// trimmedText is the element's text content with surrounding whitespace removed.
func trimmedText(n *html.Node) string {
	return strings.TrimSpace(dom.CollectText(n))
}

// findByID returns the first element below root, in document order, whose
// id equals id exactly.
func findByID(root *html.Node, id string) *html.Node {
	if root == nil || id == "" {
		return nil
	}
	return dom.FindFirstNode(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := dom.GetAttribute(n, attrID)
		return ok && v == id
	})
}
