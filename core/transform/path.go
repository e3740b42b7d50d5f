package transform

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PathSeparator joins the ids of an identity path.
const PathSeparator = " > "

// ElementPath returns the identity path of the first element in sel.
func ElementPath(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return elementPath(sel.Get(0))
}

// elementPath collects the ids of n and of its ancestors below <body>,
// outermost first. Elements without an id are passed over.
func elementPath(n *html.Node) string {
	var ids []string
	for cur := n; cur != nil && cur.DataAtom != atom.Body; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if id := dom.GetAttributeOr(cur, attrID, ""); id != "" {
			ids = append(ids, id)
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, PathSeparator)
}

// resolvePath walks down from <body>, each segment looked up by id among
// the descendants of the previous match. It stops at the first miss.
func resolvePath(doc *goquery.Document, path string) (*goquery.Selection, bool) {
	if strings.TrimSpace(path) == "" {
		return nil, false
	}
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, false
	}

	cur := body.Get(0)
	for _, segment := range strings.Split(path, PathSeparator) {
		next := findByID(cur, strings.TrimSpace(segment))
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return doc.FindNodes(cur), true
}
