// Package pipeline runs a document through the whole cleaner:
// load → analyze → level overrides → transform → extract → normalize.
// Rendering and writing stay with the caller, which picks the format.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/extract"
	"github.com/tesarmarek/Legal-document-cleaner/core/fetch"
	"github.com/tesarmarek/Legal-document-cleaner/core/normalize"
	"github.com/tesarmarek/Legal-document-cleaner/core/transform"
)

// ErrLevelRejected is returned when a level override names no header or a
// level outside 1..6.
var ErrLevelRejected = errors.New("header level override rejected")

// Pipeline holds the stages shared by every document it processes.
type Pipeline struct {
	Loader    core.Loader
	Extractor core.Extractor
	// Normalizer is used for every document when set. Otherwise each
	// document gets a Markdown normalizer that resolves relative links
	// against the origin it was fetched from.
	Normalizer core.Normalizer
	Logger     *slog.Logger
	// ManagerOptions are passed to every transform.Manager created.
	ManagerOptions []transform.Option

	now func() time.Time
}

// New creates a Pipeline with the default extractor.
func New(loader core.Loader, logger *slog.Logger, opts ...transform.Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Loader:         loader,
		Extractor:      extract.New(),
		Logger:         logger,
		ManagerOptions: append([]transform.Option{transform.WithLogger(logger)}, opts...),
		now:            time.Now,
	}
}

// Session is one analyzed document.
type Session struct {
	Source  *core.SourceDocument
	Manager *transform.Manager
}

// Request describes the transformation of one session.
type Request struct {
	// Levels maps header indexes to their new level.
	Levels map[int]int
	// Headers are the header indexes to re-level. Indexes named in Levels
	// are always included.
	Headers []int
	// Interactive selects the interactive structure JSON.
	Interactive bool
}

// Tokens returns the transformation tokens of r, sorted by index with
// duplicates removed.
func (r Request) Tokens() []string {
	seen := make(map[int]bool, len(r.Headers)+len(r.Levels))
	indexes := make([]int, 0, len(r.Headers)+len(r.Levels))
	add := func(i int) {
		if !seen[i] {
			seen[i] = true
			indexes = append(indexes, i)
		}
	}
	for _, i := range r.Headers {
		add(i)
	}
	for i := range r.Levels {
		add(i)
	}
	sort.Ints(indexes)

	tokens := make([]string, len(indexes))
	for n, i := range indexes {
		tokens[n] = "header-" + strconv.Itoa(i)
	}
	return tokens
}

// Open loads ref and analyzes it.
func (p *Pipeline) Open(ctx context.Context, ref string) (*Session, error) {
	src, err := p.Loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return p.OpenSource(src)
}

// OpenSource analyzes an already loaded document.
func (p *Pipeline) OpenSource(src *core.SourceDocument) (*Session, error) {
	m := transform.NewManager(p.ManagerOptions...)
	m.SetOriginalContent(src.HTML)
	if err := m.Analyze(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	p.Logger.Info("document opened",
		"name", src.Name,
		"location", src.Location,
		"headers", len(m.Metadata().Headers),
	)
	return &Session{Source: src, Manager: m}, nil
}

// Clean applies req to an open session and prepares the result for the
// renderers. Level overrides are all checked before any is applied, so a
// rejected request leaves the session unchanged.
func (p *Pipeline) Clean(s *Session, req Request) (*core.CleanedDocument, error) {
	if err := checkLevels(s, req.Levels); err != nil {
		return nil, err
	}
	for index, level := range req.Levels {
		if !s.Manager.UpdateHeaderLevel(index, level) {
			return nil, fmt.Errorf("%w: header %d to level %d", ErrLevelRejected, index, level)
		}
	}

	res, err := s.Manager.ApplyTransformations(req.Tokens())
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	content, err := p.Extractor.Extract(res.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	markdown, err := p.normalizer(s.Source).Normalize(content)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	var structure *transform.Structure
	if req.Interactive {
		structure, err = s.Manager.InteractiveJSON()
	} else {
		structure, err = s.Manager.Structure()
	}
	if err != nil {
		return nil, fmt.Errorf("structure: %w", err)
	}

	return &core.CleanedDocument{
		Meta:         p.metadata(s.Source, structure, res.HTML),
		HTML:         res.HTML,
		Markdown:     markdown,
		Structure:    structure,
		FileMetadata: s.Manager.Metadata(),
		Result:       res,
	}, nil
}

// Process opens ref and cleans it in one step.
func (p *Pipeline) Process(ctx context.Context, ref string, req Request) (*core.CleanedDocument, error) {
	s, err := p.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	return p.Clean(s, req)
}

func (p *Pipeline) normalizer(src *core.SourceDocument) core.Normalizer {
	if p.Normalizer != nil {
		return p.Normalizer
	}
	if origin := originOf(src.Location); origin != "" {
		return normalize.New(normalize.WithDomain(origin))
	}
	return normalize.New()
}

func (p *Pipeline) metadata(src *core.SourceDocument, structure *transform.Structure, html string) core.DocumentMetadata {
	return core.DocumentMetadata{
		Source:      src.Location,
		Name:        src.Name,
		Title:       structure.Document.Metadata.Title,
		Language:    documentLanguage(html),
		ProcessedAt: p.now().UTC().Format(time.RFC3339),
	}
}

// originOf returns scheme://host of an http(s) location, or "".
func originOf(location string) string {
	if !fetch.IsURL(location) {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

func documentLanguage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	lang, _ := doc.Find("html").First().Attr("lang")
	return strings.TrimSpace(lang)
}

// checkLevels rejects the first override, in index order, whose header or
// level does not exist.
func checkLevels(s *Session, levels map[int]int) error {
	count := len(s.Manager.Metadata().Headers)
	indexes := make([]int, 0, len(levels))
	for index := range levels {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		level := levels[index]
		if index < 0 || index >= count || level < 1 || level > 6 {
			return fmt.Errorf("%w: header %d to level %d", ErrLevelRejected, index, level)
		}
	}
	return nil
}
