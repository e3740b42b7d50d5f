package transform

import (
	"strconv"

	"github.com/JohannesKaufmann/dom"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// idGenerator hands out identities such as "section-3". Counters live for
// one annotation pass, so identical input always yields identical ids.
// Ids in taken are never handed out.
type idGenerator struct {
	counters map[string]int
	taken    map[string]bool
}

func newIDGenerator() *idGenerator {
	return &idGenerator{counters: make(map[string]int), taken: make(map[string]bool)}
}

// reserve marks the ids the author wrote on elements that keep them.
// Paragraphs, lists and list items are re-identified, so theirs are free.
func (g *idGenerator) reserve(doc *goquery.Document) {
	doc.Find("[id]").NotMatcher(reassignedMatcher).Each(func(_ int, s *goquery.Selection) {
		if id, _ := s.Attr(attrID); id != "" {
			g.taken[id] = true
		}
	})
}

func (g *idGenerator) next(prefix string) string {
	for {
		g.counters[prefix]++
		id := prefix + "-" + strconv.Itoa(g.counters[prefix])
		if !g.taken[id] {
			g.taken[id] = true
			return id
		}
	}
}

// annotate restructures doc in place: headings are wrapped into sections,
// and lists, list items and paragraphs receive ids and numbering attributes.
// The three walks run one after another, each over a fresh query.
func annotate(doc *goquery.Document) {
	ids := newIDGenerator()
	ids.reserve(doc)
	sectionize(doc, ids)
	tagLists(doc, ids)
	tagParagraphs(doc, ids)
}

// sectionize wraps every heading and the element siblings that follow it,
// up to the next heading of any level, into a <section> placed where the
// heading was. Sections stay flat; heading levels do not nest them.
func sectionize(doc *goquery.Document, ids *idGenerator) {
	for _, heading := range doc.FindMatcher(headingMatcher).Nodes {
		parent := heading.Parent
		if parent == nil {
			continue
		}

		section := newElement("section",
			html.Attribute{Key: attrID, Val: ids.next("section")},
			html.Attribute{Key: attrSectionLevel, Val: strconv.Itoa(headingLevel(heading.Data))},
			html.Attribute{Key: attrSectionTitle, Val: trimmedText(heading)},
		)

		var following []*html.Node
		for next := dom.NextSiblingElement(heading); next != nil; next = dom.NextSiblingElement(next) {
			if dom.NameIsHeading(dom.NodeName(next)) {
				break
			}
			following = append(following, next)
		}

		parent.InsertBefore(section, heading)
		parent.RemoveChild(heading)
		section.AppendChild(heading)
		for _, n := range following {
			parent.RemoveChild(n)
			section.AppendChild(n)
		}
	}
}

func tagLists(doc *goquery.Document, ids *idGenerator) {
	tagged := make(map[*html.Node]bool)
	doc.FindMatcher(listMatcher).Each(func(_ int, list *goquery.Selection) {
		list.SetAttr(attrID, ids.next("list"))
		if goquery.NodeName(list) == "ol" {
			list.SetAttr(attrListType, "numbered")
		} else {
			list.SetAttr(attrListType, "bulleted")
		}

		list.Find("li").Each(func(_ int, item *goquery.Selection) {
			n := item.Get(0)
			if tagged[n] {
				return
			}
			tagged[n] = true
			item.SetAttr(attrID, ids.next("item"))
			if token, ok := item.Attr(attrListText); ok && token != "" {
				item.SetAttr(attrItemNumber, token)
			}
		})
	})
}

func tagParagraphs(doc *goquery.Document, ids *idGenerator) {
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		p.SetAttr(attrID, ids.next("p"))
		item := p.Closest("li")
		if item.Length() == 0 {
			return
		}
		if token, ok := item.Attr(attrListText); ok && token != "" {
			p.SetAttr(attrParagraphNumber, token)
		}
	})
}
