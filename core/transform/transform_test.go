package transform

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) *goquery.Document {
	t.Helper()
	doc, err := parse(text)
	require.NoError(t, err)
	return doc
}

func outer(t *testing.T, sel *goquery.Selection) string {
	t.Helper()
	out, err := goquery.OuterHtml(sel)
	require.NoError(t, err)
	return out
}

func TestStyleManager(t *testing.T) {
	doc := mustParse(t, `<html><head><style>p{color:red}</style><style>h1{}</style></head>
<body><p style="color:blue">x</p><div style="margin:0"><span style="">y</span></div></body></html>`)
	m := NewStyleManager(doc)

	m.RemoveStyleTags()
	m.RemoveStyleTags()
	assert.Equal(t, 0, doc.Find("style").Length())

	m.RemoveInlineStyles()
	m.RemoveInlineStyles()
	assert.Equal(t, 0, doc.Find("[style]").Length())

	require.True(t, m.AddBasicStyles())
	styles := doc.Find("head style")
	require.Equal(t, 1, styles.Length())
	assert.Contains(t, styles.Text(), ".paragraph-number")
	assert.Contains(t, styles.Text(), "ol ol")
}

func TestStyleManagerWithoutHead(t *testing.T) {
	doc := mustParse(t, "<p>x</p>")
	doc.Find("head").Remove()

	assert.False(t, NewStyleManager(doc).AddBasicStyles())
	assert.Equal(t, 0, doc.Find("style").Length())
}

func TestHeaderManagerFind(t *testing.T) {
	doc := mustParse(t, `<div id="intro">not a heading</div>
<h2>  Scope </h2><h2 id="def">Definitions</h2><h2>Scope</h2><h3>Scope</h3>`)
	m := NewHeaderManager(doc)

	sel, ok := m.FindByID("def")
	require.True(t, ok)
	assert.Equal(t, "h2", goquery.NodeName(sel))

	_, ok = m.FindByID("missing")
	assert.False(t, ok)
	_, ok = m.FindByID("")
	assert.False(t, ok)

	sel, ok = m.FindByText(2, " Scope")
	require.True(t, ok)
	assert.Equal(t, "  Scope ", sel.Text(), "duplicates resolve to the first occurrence")

	_, ok = m.FindByText(4, "Scope")
	assert.False(t, ok)
	_, ok = m.FindByText(7, "Scope")
	assert.False(t, ok)

	t.Run("resolve prefers id", func(t *testing.T) {
		sel, ok := m.Resolve(HeaderRef{ID: "def", Level: 2, Text: "Scope"})
		require.True(t, ok)
		assert.Equal(t, "Definitions", sel.Text())
	})

	t.Run("resolve falls back to text", func(t *testing.T) {
		sel, ok := m.Resolve(HeaderRef{ID: "gone", Level: 3, Text: "Scope"})
		require.True(t, ok)
		assert.Equal(t, "h3", goquery.NodeName(sel))
	})

	t.Run("resolve ignores ids of other elements", func(t *testing.T) {
		sel, ok := m.Resolve(HeaderRef{ID: "intro", Level: 2, Text: "Definitions"})
		require.True(t, ok)
		assert.Equal(t, "h2", goquery.NodeName(sel))
	})
}

func TestHeaderManagerTransform(t *testing.T) {
	doc := mustParse(t, `<body><p>before</p><h1 id="a" class="title" data-header-level="1">Main <em>Title</em></h1><p>after</p></body>`)
	m := NewHeaderManager(doc)

	target := doc.Find("h1")
	require.True(t, m.Transform(target, 3))

	assert.Equal(t, 0, doc.Find("h1").Length())
	h3 := doc.Find("h3")
	require.Equal(t, 1, h3.Length())
	assert.Equal(t, "Main Title", h3.Text())
	assert.Equal(t, "a", h3.AttrOr("id", ""))
	assert.Equal(t, "title", h3.AttrOr("class", ""))
	assert.Equal(t, "3", h3.AttrOr("data-header-level", ""))
	assert.Len(t, h3.Get(0).Attr, 3)

	// Same parent, same position.
	assert.Equal(t, "before", h3.Prev().Text())
	assert.Equal(t, "after", h3.Next().Text())

	assert.False(t, m.Transform(target, 2), "replaced node is detached")
	assert.False(t, m.Transform(h3, 0))
	assert.False(t, m.Transform(doc.Find("h6"), 2))
}

func TestPreserveParagraphNumbering(t *testing.T) {
	doc := mustParse(t, `<ol>
<li data-list-text="1">First</li>
<li data-list-text="4.12">Second</li>
<li data-list-text="a)">Third</li>
<li data-list-text="1.2.3">Fourth</li>
<li>Fifth</li>
</ol>
<ul><li data-list-text="7">Bullet</li></ul>`)
	m := NewListManager(doc)

	m.PreserveParagraphNumbering()
	once := outer(t, doc.Find("body"))
	m.PreserveParagraphNumbering()
	assert.Equal(t, once, outer(t, doc.Find("body")))

	items := doc.Find("ol > li")
	first := items.Eq(0).Children().First()
	assert.True(t, first.HasClass("paragraph-number"))
	assert.Equal(t, "1 ", first.Text())
	assert.Equal(t, "4.12 ", items.Eq(1).Children().First().Text())

	for _, i := range []int{2, 3, 4} {
		assert.Equal(t, 0, items.Eq(i).Find("span.paragraph-number").Length(), "item %d", i)
	}
	assert.Equal(t, 0, doc.Find("ul span.paragraph-number").Length())
}

func TestPreserveParagraphNumberingReplacesStaleLabels(t *testing.T) {
	doc := mustParse(t, `<ol><li data-list-text="2"><span class="paragraph-number">9 </span>Text</li></ol>`)

	NewListManager(doc).PreserveParagraphNumbering()

	labels := doc.Find("span.paragraph-number")
	require.Equal(t, 1, labels.Length())
	assert.Equal(t, "2 ", labels.Text())
}

func TestAnnotateSections(t *testing.T) {
	doc := mustParse(t, "<h1>A</h1><p>x</p><h2>B</h2><p>y</p>")
	annotate(doc)

	sections := doc.Find("body > section")
	require.Equal(t, 2, sections.Length())

	first := sections.Eq(0)
	assert.Equal(t, "section-1", first.AttrOr("id", ""))
	assert.Equal(t, "1", first.AttrOr("data-section-level", ""))
	assert.Equal(t, "A", first.AttrOr("data-section-title", ""))
	assert.Equal(t, []string{"h1", "p"}, childNames(first))
	assert.Equal(t, "x", first.Find("p").Text())

	second := sections.Eq(1)
	assert.Equal(t, "section-2", second.AttrOr("id", ""))
	assert.Equal(t, "2", second.AttrOr("data-section-level", ""))
	assert.Equal(t, []string{"h2", "p"}, childNames(second))
	assert.Equal(t, "y", second.Find("p").Text())
}

func TestAnnotateKeepsSectionsFlat(t *testing.T) {
	doc := mustParse(t, "<h1>A</h1><h2>B</h2><p>b</p><h3>C</h3><h1>D</h1>")
	annotate(doc)

	assert.Equal(t, 4, doc.Find("body > section").Length())
	assert.Equal(t, 0, doc.Find("section section").Length())
	assert.Equal(t, []string{"h1"}, childNames(doc.Find("#section-1")))
}

func TestAnnotateListsAndParagraphs(t *testing.T) {
	doc := mustParse(t, `<ol><li data-list-text="1"><p>one</p><ol><li data-list-text="1.1">sub</li></ol></li><li>two</li></ol>
<ul><li>bullet</li></ul><p>loose</p>`)
	annotate(doc)

	lists := doc.Find("ol, ul")
	assert.Equal(t, "list-1", lists.Eq(0).AttrOr("id", ""))
	assert.Equal(t, "numbered", lists.Eq(0).AttrOr("data-list-type", ""))
	assert.Equal(t, "list-2", lists.Eq(1).AttrOr("id", ""))
	assert.Equal(t, "bulleted", lists.Eq(2).AttrOr("data-list-type", ""))

	var ids []string
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		ids = append(ids, li.AttrOr("id", ""))
	})
	assert.Equal(t, []string{"item-1", "item-2", "item-3", "item-4"}, ids, "each item is tagged once")

	assert.Equal(t, "1", doc.Find("#item-1").AttrOr("data-item-number", ""))
	_, ok := doc.Find("#item-3").Attr("data-item-number")
	assert.False(t, ok)

	p := doc.Find("p").First()
	assert.Equal(t, "p-1", p.AttrOr("id", ""))
	assert.Equal(t, "1", p.AttrOr("data-paragraph-number", ""))
	_, ok = doc.Find("p").Last().Attr("data-paragraph-number")
	assert.False(t, ok)
}

func TestAnnotateIsDeterministic(t *testing.T) {
	const text = "<h1>A</h1><ol><li>x</li></ol><h2>B</h2><p>y</p>"
	a := mustParse(t, text)
	b := mustParse(t, text)
	annotate(a)
	annotate(b)

	assert.Equal(t, outer(t, a.Find("html")), outer(t, b.Find("html")))
}

func childNames(sel *goquery.Selection) []string {
	var names []string
	sel.Children().Each(func(_ int, c *goquery.Selection) {
		names = append(names, goquery.NodeName(c))
	})
	return names
}

func TestElementPath(t *testing.T) {
	doc := mustParse(t, `<h1>T</h1><ol><li data-list-text="1"><div><p>Para</p></div></li></ol>`)
	annotate(doc)

	assert.Equal(t, "section-1 > list-1 > item-1 > p-1", ElementPath(doc.Find("p")))
	assert.Equal(t, "section-1", ElementPath(doc.Find("h1")))
	assert.Equal(t, "", ElementPath(doc.Find("body")))
	assert.Equal(t, "", ElementPath(doc.Find("table")))
}

func TestResolvePath(t *testing.T) {
	doc := mustParse(t, `<h1>T</h1><ol><li data-list-text="1"><p>Para</p></li></ol><h2>U</h2><p>z</p>`)
	annotate(doc)

	sel, ok := resolvePath(doc, "section-1 > list-1 > item-1 > p-1")
	require.True(t, ok)
	assert.Equal(t, "Para", sel.Text())

	sel, ok = resolvePath(doc, "p-2")
	require.True(t, ok)
	assert.Equal(t, "z", sel.Text())

	for _, path := range []string{"", "  ", "section-1 > nope", "list-1 > section-1", "section-1 > p-2"} {
		_, ok := resolvePath(doc, path)
		assert.False(t, ok, "path %q", path)
	}
}

func TestStructurePaths(t *testing.T) {
	s := &Structure{Document: DocumentNode{Structure: SectionTree{Sections: []Section{{
		Path: "section-1",
		Content: []ContentNode{
			{Path: "section-1 > list-1", Items: []ListItem{{Path: "section-1 > list-1 > item-1"}}},
			{Path: "section-1 > p-1"},
		},
	}}}}}

	assert.Equal(t, []string{
		"section-1",
		"section-1 > list-1",
		"section-1 > list-1 > item-1",
		"section-1 > p-1",
	}, s.Paths())
}

func TestDocumentTitle(t *testing.T) {
	assert.Equal(t, "My Doc", documentTitle(mustParse(t, "<title>  My \n Doc </title><p>x</p>"), "Untitled"))
	assert.Equal(t, "Untitled", documentTitle(mustParse(t, "<p>x</p>"), "Untitled"))
	assert.Equal(t, "fallback", documentTitle(mustParse(t, "<title> </title>"), "fallback"))
}
