// internal/source/browser/reader.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// Options configures a browser Reader
type Options struct {
	URL          string
	WaitSelector string
	RowSelector  string
	CellSelector string
	UserAgent    string
	Headers      map[string]string
	Proxy        string

	Headless   bool
	ChromePath string

	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	WaitNetworkIdle   bool

	// MinHTMLLength is the smallest plausible rendered page, in characters. 0 disables the check.
	MinHTMLLength int

	// Diagnostic artifacts, overwritten on every run. Empty paths disable them.
	HTMLDumpPath   string
	ScreenshotPath string
}

// Reader renders the page in Chrome, waits for the table and reads its rows.
// A fresh browser process is started for every Read.
type Reader struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a browser Reader
func New(opts Options, logger zerolog.Logger) *Reader {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = 30 * time.Second
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "table.table"
	}
	return &Reader{opts: opts, logger: logger}
}

// Name returns the name of this reader
func (r *Reader) Name() string {
	return "BrowserReader"
}

// Read implements source.Reader
func (r *Reader) Read(ctx context.Context) (*models.Table, error) {
	start := time.Now()

	r.logger.Debug().
		Str("url", r.opts.URL).
		Str("reader", r.Name()).
		Bool("headless", r.opts.Headless).
		Msg("Starting fetch")

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	watcher := newPageWatcher(r.logger)
	chromedp.ListenTarget(browserCtx, watcher.handle)

	// The first Run starts the browser; it must not carry the navigation deadline
	err := chromedp.Run(browserCtx,
		network.Enable(),
		runtime.Enable(),
		page.SetLifecycleEventsEnabled(true),
		network.SetExtraHTTPHeaders(r.extraHeaders()),
	)
	if err != nil {
		return nil, source.Classify("failed to start browser", err)
	}

	navCtx, navCancel := context.WithTimeout(browserCtx, r.opts.NavigationTimeout)
	defer navCancel()

	tasks := []chromedp.Action{watcher.arm(), chromedp.Navigate(r.opts.URL)}
	if r.opts.WaitNetworkIdle {
		tasks = append(tasks, watcher.waitNetworkIdle())
	}
	if err := chromedp.Run(navCtx, tasks...); err != nil {
		return nil, source.Classify("navigation failed", err).WithDetail("url", r.opts.URL)
	}

	r.logger.Debug().Dur("elapsed", time.Since(start)).Msg("Navigation completed")

	r.writeDiagnostics(browserCtx)

	selCtx, selCancel := context.WithTimeout(browserCtx, r.opts.SelectorTimeout)
	defer selCancel()

	if err := chromedp.Run(selCtx, chromedp.WaitVisible(r.opts.WaitSelector, chromedp.ByQuery)); err != nil {
		se := source.Classify("selector did not appear", err)
		return nil, se.WithDetail("selector", r.opts.WaitSelector).WithDetail("timeout", r.opts.SelectorTimeout.String())
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, source.Classify("failed to read rendered HTML", err)
	}

	if n := utf8.RuneCountInString(html); r.opts.MinHTMLLength > 0 && n < r.opts.MinHTMLLength {
		r.logger.Error().
			Int("length", n).
			Int("min_length", r.opts.MinHTMLLength).
			Msg("Rendered HTML is implausibly short, page probably failed to load")
		return nil, source.NewError(source.ErrCodeIntegrity, fmt.Sprintf("rendered HTML too short (%d chars)", n), nil).
			WithDetail("length", n)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, source.NewError(source.ErrCodeParse, "failed to parse rendered HTML", err)
	}
	rows := source.RowsFromDocument(doc, r.opts.RowSelector, r.opts.CellSelector)

	r.logger.Info().
		Str("url", r.opts.URL).
		Int("rows", len(rows)).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Fetch completed")

	return &models.Table{
		Source:    r.Name(),
		URL:       r.opts.URL,
		Rows:      rows,
		FetchedAt: time.Now(),
	}, nil
}

func (r *Reader) extraHeaders() network.Headers {
	headers := network.Headers{}
	for key, value := range r.opts.Headers {
		headers[key] = value
	}
	if r.opts.UserAgent != "" {
		headers["User-Agent"] = r.opts.UserAgent
	}
	return headers
}

func (r *Reader) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
	}

	chromePath := r.opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome(r.logger)
	}
	if chromePath != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, opts...)
	}

	if r.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		// Headed mode needs a display (xvfb on CI)
		opts = append(opts, chromedp.Flag("headless", false))
	}

	if r.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.opts.UserAgent))
	}
	if r.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(r.opts.Proxy))
	}
	return opts
}
