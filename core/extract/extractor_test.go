package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRemovesNoise(t *testing.T) {
	in := `<html><head><style>p{}</style><script>window.fileMetadata = {};</script></head>
<body><h1>Title</h1><script>alert(1)</script><form><input name="q"></form><p>Body text</p></body></html>`

	out, err := New().Extract(in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<body>"))
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "<form")
	assert.NotContains(t, out, "fileMetadata")
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<p>Body text</p>")
}

func TestExtractPrefersMain(t *testing.T) {
	out, err := New().Extract(`<body><nav>menu</nav><main><p>core</p></main></body>`)
	require.NoError(t, err)
	assert.Equal(t, "<main><p>core</p></main>", out)
}

func TestExtractFlattensNumberedLists(t *testing.T) {
	in := `<body><ol>
<li data-list-text="1"><span class="paragraph-number">1 </span>First
<ol><li data-list-text="1.1"><span class="paragraph-number">1.1 </span>Nested</li></ol>
</li>
<li data-list-text="2"><span class="paragraph-number">2 </span>Second</li>
</ol>
<ol><li>Plain</li></ol></body>`

	out, err := New().Extract(in)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find("ol").Length(), "lists without labels are kept")
	assert.Equal(t, "Plain", doc.Find("ol > li").Text())
	assert.Equal(t, 0, doc.Find("span.paragraph-number").Length())

	var labels []string
	doc.Find("strong").Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, s.Text())
	})
	assert.Equal(t, []string{"1", "1.1", "2"}, labels)
}
