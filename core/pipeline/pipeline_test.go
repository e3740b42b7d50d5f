package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/fetch"
)

const agreement = `<html lang="cs"><head><title>Smlouva o dílo</title>
<style>h1 { color: red }</style></head>
<body>
<h1>Smlouva o dílo</h1>
<h2>Předmět</h2>
<ol>
<li data-list-text="1"><p>Zhotovitel se zavazuje</p></li>
<li data-list-text="2"><p>Objednatel se zavazuje</p></li>
</ol>
<h2>Cena</h2>
<p>Cena je <a href="/cenik">dle ceníku</a>.</p>
</body></html>`

type stubLoader struct {
	doc *core.SourceDocument
	err error
}

func (l stubLoader) Load(ctx context.Context, ref string) (*core.SourceDocument, error) {
	return l.doc, l.err
}

func newPipeline(loader core.Loader) *Pipeline {
	p := New(loader, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC) }
	return p
}

func TestRequestTokens(t *testing.T) {
	req := Request{Headers: []int{2, 0, 2}, Levels: map[int]int{1: 3, 0: 2}}
	assert.Equal(t, []string{"header-0", "header-1", "header-2"}, req.Tokens())
	assert.Empty(t, Request{}.Tokens())
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smlouva.html")
	require.NoError(t, os.WriteFile(path, []byte(agreement), 0o644))

	p := newPipeline(fetch.NewFileSource())
	doc, err := p.Process(context.Background(), path, Request{Levels: map[int]int{1: 3}})
	require.NoError(t, err)

	assert.Equal(t, []string{"header-1"}, doc.Result.Applied)
	assert.Empty(t, doc.Result.Skipped)
	assert.Contains(t, doc.HTML, `<h3 data-header-level="3">Předmět</h3>`)
	assert.NotContains(t, doc.HTML, "color: red")
	assert.Contains(t, doc.HTML, `<span class="paragraph-number">1 </span>`)

	assert.Contains(t, doc.Markdown, "### Předmět")
	assert.Contains(t, doc.Markdown, "**1**")
	assert.Contains(t, doc.Markdown, "[dle ceníku](/cenik)")

	assert.Equal(t, core.DocumentMetadata{
		Source:      path,
		Name:        "smlouva.html",
		Title:       "Smlouva o dílo",
		Language:    "cs",
		ProcessedAt: "2024-05-02T08:30:00Z",
	}, doc.Meta)

	require.NotNil(t, doc.Structure)
	assert.Len(t, doc.Structure.Document.Structure.Sections, 3)
	assert.Equal(t, 3, doc.FileMetadata.Headers[1].CustomLevel)
}

func TestCleanResolvesLinksAgainstOrigin(t *testing.T) {
	p := newPipeline(stubLoader{doc: &core.SourceDocument{
		Name:     "example_com_smlouva.html",
		Location: "https://example.com/smlouvy/smlouva.html",
		HTML:     agreement,
	}})

	doc, err := p.Process(context.Background(), "https://example.com/smlouvy/smlouva.html", Request{})
	require.NoError(t, err)
	assert.Contains(t, doc.Markdown, "[dle ceníku](https://example.com/cenik)")
	assert.Empty(t, doc.Result.Applied)
}

func TestCleanInteractive(t *testing.T) {
	p := newPipeline(nil)
	s, err := p.OpenSource(&core.SourceDocument{Name: "a.html", HTML: agreement})
	require.NoError(t, err)

	doc, err := p.Clean(s, Request{Interactive: true})
	require.NoError(t, err)

	for _, section := range doc.Structure.Document.Structure.Sections {
		assert.NotEmpty(t, section.Path)
		assert.NotEmpty(t, section.Element)
	}
}

func TestCleanRejectsLevels(t *testing.T) {
	p := newPipeline(nil)
	s, err := p.OpenSource(&core.SourceDocument{Name: "a.html", HTML: agreement})
	require.NoError(t, err)

	_, err = p.Clean(s, Request{Levels: map[int]int{9: 2}})
	assert.ErrorIs(t, err, ErrLevelRejected)

	_, err = p.Clean(s, Request{Levels: map[int]int{0: 7}})
	assert.ErrorIs(t, err, ErrLevelRejected)
}

func TestCleanRejectedLevelsLeaveSessionUnchanged(t *testing.T) {
	p := newPipeline(nil)
	s, err := p.OpenSource(&core.SourceDocument{Name: "a.html", HTML: agreement})
	require.NoError(t, err)
	before := s.Manager.Metadata().Headers
	require.Len(t, before, 3)

	// Map order varies, so repeat until every ordering has likely been seen.
	for range 50 {
		_, err := p.Clean(s, Request{Levels: map[int]int{0: 4, 1: 5, 2: 9}})
		require.ErrorIs(t, err, ErrLevelRejected)
		_, err = p.Clean(s, Request{Levels: map[int]int{0: 4, 1: 5, 3: 2}})
		require.ErrorIs(t, err, ErrLevelRejected)
		assert.Equal(t, before, s.Manager.Metadata().Headers)
	}
}

func TestOpenLoadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := newPipeline(stubLoader{err: boom}).Open(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://example.com", originOf("https://example.com/a/b.html"))
	assert.Equal(t, "http://localhost:8080", originOf("http://localhost:8080/x"))
	assert.Equal(t, "", originOf("/tmp/a.html"))
}
