// Package transform analyzes an HTML document and applies a bounded set of
// structural transformations to it.
//
// A Manager owns one original HTML text. Every operation reparses that text
// into its own disposable tree, so the original is never changed. Analysis
// wraps each heading into a <section>, assigns ids to lists, items and
// paragraphs, and records the header and list inventory. Callers may then
// override header levels and apply "header-{index}" tokens, which strips
// styles, re-levels the chosen headings, restores paragraph numbering and
// returns the serialized document.
//
// Ids come from per-pass counters, so analyzing the same text twice yields
// the same ids and identity paths stay resolvable between calls.
package transform

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	DefaultTitle            = "Untitled"
	DefaultStructureVersion = "1.0"
)

// ErrNotAnalyzed is returned by operations that need Analyze to have run.
var ErrNotAnalyzed = errors.New("document has not been analyzed")

var headerToken = regexp.MustCompile(`^header-(\d+)$`)

// Reasons reported for skipped transformation tokens.
const (
	SkipMalformed   = "malformed token"
	SkipDuplicate   = "duplicate token"
	SkipNoRecord    = "no header at index"
	SkipNotFound    = "header not found in document"
	SkipSameElement = "header already targeted by another token"
)

// SkippedToken is a token that ApplyTransformations ignored.
type SkippedToken struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// Result is the outcome of ApplyTransformations. HTML is the serialized
// <html> element; Applied and Skipped partition the input tokens.
type Result struct {
	HTML    string         `json:"html"`
	Applied []string       `json:"applied"`
	Skipped []SkippedToken `json:"skipped"`
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock sets the time source used for lastModified.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDefaultTitle sets the title used when the document has no <title>.
func WithDefaultTitle(title string) Option {
	return func(m *Manager) {
		if title != "" {
			m.defaultTitle = title
		}
	}
}

func WithStructureVersion(version string) Option {
	return func(m *Manager) {
		if version != "" {
			m.version = version
		}
	}
}

// Manager drives analysis and transformation of one document. It is meant
// for one caller at a time; it does no locking of its own.
type Manager struct {
	meta Metadata

	logger       *slog.Logger
	now          func() time.Time
	defaultTitle string
	version      string
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:       slog.Default(),
		now:          time.Now,
		defaultTitle: DefaultTitle,
		version:      DefaultStructureVersion,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOriginalContent stores the document text and drops any earlier analysis.
func (m *Manager) SetOriginalContent(content string) {
	m.meta.resetInventory()
	m.meta.OriginalContent = content
}

func (m *Manager) OriginalContent() string {
	return m.meta.OriginalContent
}

// Analyzed reports whether Analyze has run since the content was last set.
func (m *Manager) Analyzed() bool {
	return m.meta.analyzed
}

// Metadata returns a snapshot of the manager's metadata.
func (m *Manager) Metadata() Metadata {
	return m.meta.clone()
}

// Analyze parses the original text, annotates it and records the header and
// list inventory along with the structure JSON. Earlier inventory and level
// overrides are discarded.
func (m *Manager) Analyze() error {
	doc, err := m.annotatedDocument()
	if err != nil {
		return err
	}

	m.meta.resetInventory()
	m.analyzeHeaders(doc)
	m.analyzeLists(doc)

	structure, err := m.builder(false).build(doc)
	if err != nil {
		return fmt.Errorf("building structure: %w", err)
	}
	m.meta.DocumentStructure = structure
	m.meta.analyzed = true

	m.logger.Debug("document analyzed",
		"headers", len(m.meta.Headers),
		"list_items", len(m.meta.Lists),
		"sections", len(structure.Document.Structure.Sections),
	)
	return nil
}

func (m *Manager) analyzeHeaders(doc *goquery.Document) {
	doc.FindMatcher(headingMatcher).Each(func(_ int, h *goquery.Selection) {
		n := h.Get(0)
		level := headingLevel(n.Data)
		text := trimmedText(n)
		id, _ := h.Attr(attrID)

		m.meta.Headers = append(m.meta.Headers, HeaderRecord{
			Level:       level,
			Text:        text,
			CustomLevel: level,
		})
		m.meta.HeaderTransforms = append(m.meta.HeaderTransforms, HeaderTransformEntry{
			Ref:           HeaderRef{ID: id, Level: level, Text: text},
			Preview:       fmt.Sprintf("h%d: %s", level, text),
			CurrentLevel:  level,
			ProposedLevel: level,
		})
	})
}

// analyzeLists records the items of every outermost <ol>, and for each of
// them the items of its first nested <ol>. Deeper levels are not recorded.
func (m *Manager) analyzeLists(doc *goquery.Document) {
	doc.Find("ol").FilterFunction(func(_ int, list *goquery.Selection) bool {
		return list.ParentsFiltered("ol").Length() == 0
	}).Each(func(_ int, list *goquery.Selection) {
		listID, _ := list.Attr(attrID)
		list.ChildrenFiltered("li").Each(func(_ int, item *goquery.Selection) {
			m.meta.Lists = append(m.meta.Lists, listEntry(listID, item))

			nested := item.Find("ol").First()
			if nested.Length() == 0 {
				return
			}
			nestedID, _ := nested.Attr(attrID)
			nested.ChildrenFiltered("li").Each(func(_ int, sub *goquery.Selection) {
				m.meta.Lists = append(m.meta.Lists, listEntry(nestedID, sub))
			})
		})
	})
}

func listEntry(listID string, item *goquery.Selection) ListEntry {
	number, _ := item.Attr(attrListText)
	return ListEntry{
		ID:     listID,
		Number: number,
		Text:   trimmedText(item.Get(0)),
	}
}

// UpdateHeaderLevel sets the proposed level of header index. It reports
// false, changing nothing, when index is out of range or level is not 1..6.
func (m *Manager) UpdateHeaderLevel(index, level int) bool {
	ok := m.meta.updateHeaderLevel(index, level)
	if !ok {
		m.logger.Debug("header level update ignored", "index", index, "level", level)
	}
	return ok
}

// ApplyTransformations reparses the original text and applies, in order:
// style removal, re-leveling of the headers named by tokens, paragraph
// numbering and the baseline stylesheet. Tokens that name no header are
// reported in Result.Skipped and otherwise ignored.
func (m *Manager) ApplyTransformations(tokens []string) (Result, error) {
	doc, err := parse(m.meta.OriginalContent)
	if err != nil {
		return Result{}, fmt.Errorf("parsing original content: %w", err)
	}

	styles := NewStyleManager(doc)
	styles.RemoveStyleTags()
	styles.RemoveInlineStyles()

	type pending struct {
		token  string
		target *goquery.Selection
		level  int
	}

	var (
		res     = Result{Applied: []string{}, Skipped: []SkippedToken{}}
		headers = NewHeaderManager(doc)
		queue   []pending
		seen    = make(map[string]bool)
		claimed = make(map[*html.Node]bool)
	)
	skip := func(token, reason string) {
		res.Skipped = append(res.Skipped, SkippedToken{Token: token, Reason: reason})
		m.logger.Debug("transformation token skipped", "token", token, "reason", reason)
	}

	for _, token := range tokens {
		match := headerToken.FindStringSubmatch(token)
		if match == nil {
			skip(token, SkipMalformed)
			continue
		}
		if seen[token] {
			skip(token, SkipDuplicate)
			continue
		}
		seen[token] = true

		index, err := strconv.Atoi(match[1])
		if err != nil || index >= len(m.meta.HeaderTransforms) {
			skip(token, SkipNoRecord)
			continue
		}
		entry := m.meta.HeaderTransforms[index]

		target, ok := headers.Resolve(entry.Ref)
		if !ok {
			skip(token, SkipNotFound)
			continue
		}
		if claimed[target.Get(0)] {
			skip(token, SkipSameElement)
			continue
		}
		claimed[target.Get(0)] = true

		level := entry.ProposedLevel
		if !validLevel(level) {
			level = entry.CurrentLevel
		}
		queue = append(queue, pending{token: token, target: target, level: level})
	}

	for _, p := range queue {
		if !headers.Transform(p.target, p.level) {
			skip(p.token, SkipNotFound)
			continue
		}
		res.Applied = append(res.Applied, p.token)
	}

	NewListManager(doc).PreserveParagraphNumbering()
	styles.AddBasicStyles()

	res.HTML, err = goquery.OuterHtml(doc.Find("html").First())
	if err != nil {
		return Result{}, fmt.Errorf("serializing document: %w", err)
	}
	m.logger.Debug("transformations applied",
		"applied", len(res.Applied),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Structure returns the structure JSON cached by the last Analyze.
func (m *Manager) Structure() (*Structure, error) {
	if !m.meta.analyzed || m.meta.DocumentStructure == nil {
		return nil, ErrNotAnalyzed
	}
	return m.meta.DocumentStructure, nil
}

// BuildStructure builds the structure JSON from a fresh parse.
func (m *Manager) BuildStructure() (*Structure, error) {
	return m.buildFresh(false)
}

// InteractiveJSON builds the structure JSON with markup and identity paths
// for every section and node.
func (m *Manager) InteractiveJSON() (*Structure, error) {
	return m.buildFresh(true)
}

func (m *Manager) buildFresh(interactive bool) (*Structure, error) {
	doc, err := m.annotatedDocument()
	if err != nil {
		return nil, err
	}
	structure, err := m.builder(interactive).build(doc)
	if err != nil {
		return nil, fmt.Errorf("building structure: %w", err)
	}
	return structure, nil
}

// FindElementByPath resolves an identity path against a fresh annotated
// parse of the original text. The selection belongs to that parse only.
func (m *Manager) FindElementByPath(path string) (*goquery.Selection, bool) {
	doc, err := m.annotatedDocument()
	if err != nil {
		m.logger.Warn("path lookup failed", "path", path, "error", err)
		return nil, false
	}
	return resolvePath(doc, path)
}

func (m *Manager) annotatedDocument() (*goquery.Document, error) {
	doc, err := parse(m.meta.OriginalContent)
	if err != nil {
		return nil, fmt.Errorf("parsing original content: %w", err)
	}
	annotate(doc)
	return doc, nil
}

func (m *Manager) builder(interactive bool) structureBuilder {
	return structureBuilder{
		interactive:  interactive,
		defaultTitle: m.defaultTitle,
		version:      m.version,
		now:          m.now(),
	}
}
