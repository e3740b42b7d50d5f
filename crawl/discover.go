// Package crawl finds the documents processed by a batch run.
// A URL is expanded through its site's sitemap.xml or, failing that, by
// following same-site links breadth first. A directory is expanded to the
// HTML and Markdown files below it.
package crawl

import (
	"context"
	"encoding/xml"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tesarmarek/Legal-document-cleaner/core"
	"github.com/tesarmarek/Legal-document-cleaner/core/fetch"
)

// DefaultMaxDocuments bounds a discovery run.
const DefaultMaxDocuments = 100

// sitemapURL holds a URL from a sitemap.xml.
type sitemapURL struct {
	Loc string `xml:"loc"`
}

// urlSet is the root element of a sitemap.xml.
type urlSet struct {
	URLs []sitemapURL `xml:"url"`
}

// Discoverer expands a batch reference into document references.
type Discoverer struct {
	Loader       core.Loader
	MaxDocuments int
	Logger       *slog.Logger
}

// NewDiscoverer creates a Discoverer that loads pages through loader.
func NewDiscoverer(loader core.Loader, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{Loader: loader, MaxDocuments: DefaultMaxDocuments, Logger: logger}
}

// Discover returns the documents reachable from ref. A URL is always
// included itself; a directory yields its document files in lexical order;
// any other path is returned unchanged.
func (d *Discoverer) Discover(ctx context.Context, ref string) ([]string, error) {
	if fetch.IsURL(ref) {
		return d.discoverSite(ctx, ref)
	}
	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	if !info.IsDir() {
		return []string{ref}, nil
	}
	return d.discoverFiles(ref)
}

func (d *Discoverer) discoverSite(ctx context.Context, baseURL string) ([]string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	sitemap := fmt.Sprintf("%s://%s/sitemap.xml", parsed.Scheme, parsed.Host)
	urls, err := d.fromSitemap(ctx, sitemap, parsed.Host)
	if err == nil && len(urls) > 0 {
		queue := NewQueue(d.limit())
		queue.Add(NormalizeURL(baseURL))
		for _, u := range urls {
			queue.Add(u)
		}
		return queue.All(), nil
	}
	if err != nil {
		d.Logger.Debug("sitemap unavailable, following links", "sitemap", sitemap, "error", err)
	}
	return d.fromLinks(ctx, baseURL, parsed.Host)
}

func (d *Discoverer) fromSitemap(ctx context.Context, sitemap, host string) ([]string, error) {
	doc, err := d.Loader.Load(ctx, sitemap)
	if err != nil {
		return nil, err
	}
	var set urlSet
	if err := xml.Unmarshal([]byte(doc.HTML), &set); err != nil {
		return nil, fmt.Errorf("parsing sitemap: %w", err)
	}

	var urls []string
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if IsSameHost(loc, host) && !IsStaticAsset(loc) {
			urls = append(urls, NormalizeURL(loc))
		}
	}
	return urls, nil
}

// fromLinks crawls breadth first from startURL. Pages that fail to load
// are skipped and not returned.
func (d *Discoverer) fromLinks(ctx context.Context, startURL, host string) ([]string, error) {
	queue := NewQueue(d.limit())
	queue.Add(NormalizeURL(startURL))

	var found []string
	for queue.HasNext() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue.Next()

		doc, err := d.Loader.Load(ctx, current)
		if err != nil {
			d.Logger.Warn("skipping page", "url", current, "error", err)
			continue
		}
		found = append(found, current)

		for _, link := range extractLinks(doc.HTML, current) {
			if IsSameHost(link, host) && !IsStaticAsset(link) {
				queue.Add(NormalizeURL(link))
			}
		}
	}
	return found, nil
}

func (d *Discoverer) discoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsDocumentFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	if len(files) > d.limit() {
		files = files[:d.limit()]
	}
	return files, nil
}

func (d *Discoverer) limit() int {
	if d.MaxDocuments <= 0 {
		return DefaultMaxDocuments
	}
	return d.MaxDocuments
}

// extractLinks returns the href of every <a>, resolved against baseURL.
func extractLinks(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if resolved := resolveURL(s.AttrOr("href", ""), base); resolved != "" {
			links = append(links, resolved)
		}
	})
	return links
}

// resolveURL resolves a potentially relative URL against a base.
func resolveURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
