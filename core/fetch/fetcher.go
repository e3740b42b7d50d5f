// Package fetch implements the Loader interface.
// Documents come from local files or over HTTP; both paths decode the
// bytes to UTF-8 using the declared or sniffed charset.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/html/charset"

	"github.com/tesarmarek/Legal-document-cleaner/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "htmlcleaner/1.0 (+https://github.com/tesarmarek/Legal-document-cleaner)"
	defaultAttempts  = 3
	maxBodyBytes     = 32 << 20
)

// Options configure an HTTPFetcher. Zero values select the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Attempts  uint
	Delay     time.Duration
	Logger    *slog.Logger
}

// HTTPFetcher fetches documents via HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	attempts  uint
	delay     time.Duration
	logger    *slog.Logger
}

// New creates an HTTPFetcher.
func New(opts Options) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		attempts:  defaultAttempts,
		delay:     500 * time.Millisecond,
		logger:    slog.Default(),
	}
	if opts.Timeout > 0 {
		f.client.Timeout = opts.Timeout
	}
	if opts.UserAgent != "" {
		f.userAgent = opts.UserAgent
	}
	if opts.Attempts > 0 {
		f.attempts = opts.Attempts
	}
	if opts.Delay > 0 {
		f.delay = opts.Delay
	}
	if opts.Logger != nil {
		f.logger = opts.Logger
	}
	return f
}

// statusError is a non-2xx answer. Server errors and 429 are retried.
type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.code, e.url)
}

func (e *statusError) temporary() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// Load retrieves the document at url, retrying transient failures.
func (f *HTTPFetcher) Load(ctx context.Context, url string) (*core.SourceDocument, error) {
	var doc *core.SourceDocument
	err := retry.Do(
		func() error {
			var err error
			doc, err = f.fetch(ctx, url)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if !retry.IsRecoverable(err) {
				return false
			}
			var se *statusError
			if errors.As(err, &se) {
				return se.temporary()
			}
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Warn("fetch failed, retrying", "url", url, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (*core.SourceDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{url: url, code: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	text, err := decode(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}

	return &core.SourceDocument{
		Name:       NameFromURL(url) + ".html",
		Location:   url,
		StatusCode: resp.StatusCode,
		HTML:       text,
	}, nil
}

// decode converts raw bytes to UTF-8 text. A BOM or a charset in the
// content type wins; otherwise valid UTF-8 is kept as is and anything else
// goes through the <meta charset> sniff.
func decode(raw []byte, contentType string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if !certain && utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s content: %w", name, err)
	}
	return string(out), nil
}
