// internal/source/static/reader.go
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/expowait/internal/ratelimit"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// Options configures a static Reader
type Options struct {
	URL          string
	RowSelector  string
	CellSelector string
	UserAgent    string
	Headers      map[string]string
}

// Reader fetches a page with a single GET and reads its table rows with goquery.
// It never executes JavaScript.
type Reader struct {
	opts    Options
	client  *http.Client
	limiter ratelimit.RateLimiter
	logger  zerolog.Logger
}

// New creates a static Reader with dependency injection
func New(opts Options, client *http.Client, lim ratelimit.RateLimiter, logger zerolog.Logger) *Reader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Reader{
		opts:    opts,
		client:  client,
		limiter: lim,
		logger:  logger,
	}
}

// Name returns the name of this reader
func (r *Reader) Name() string {
	return "StaticReader"
}

// Read implements source.Reader
func (r *Reader) Read(ctx context.Context) (*models.Table, error) {
	start := time.Now()

	r.logger.Debug().
		Str("url", r.opts.URL).
		Str("reader", r.Name()).
		Msg("Starting fetch")

	doc, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}

	rows := source.RowsFromDocument(doc, r.opts.RowSelector, r.opts.CellSelector)
	if len(rows) == 0 {
		r.logger.Warn().
			Str("selector", r.opts.RowSelector).
			Msg("Row selector matched nothing")
	}

	r.logger.Debug().
		Str("url", r.opts.URL).
		Int("rows", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetch completed")

	return &models.Table{
		Source:    r.Name(),
		URL:       r.opts.URL,
		Rows:      rows,
		FetchedAt: time.Now(),
	}, nil
}

func (r *Reader) fetch(ctx context.Context) (*goquery.Document, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, r.opts.URL); err != nil {
			return nil, source.Classify("rate limiter wait", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.opts.URL, nil)
	if err != nil {
		return nil, source.NewError(source.ErrCodeNetwork, "failed to create request", err)
	}

	req.Header.Set("User-Agent", r.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	for key, value := range r.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, source.Classify("failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, source.NewError(source.ErrCodeNetwork, fmt.Sprintf("unexpected status %s", resp.Status), nil).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("url", r.opts.URL)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, source.NewError(source.ErrCodeParse, "failed to decode body", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, source.NewError(source.ErrCodeParse, "failed to parse HTML", err)
	}
	return doc, nil
}
