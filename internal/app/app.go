// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/law-makers/expowait/internal/config"
	"github.com/law-makers/expowait/internal/metrics"
	"github.com/law-makers/expowait/internal/pipeline"
	"github.com/law-makers/expowait/internal/ratelimit"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/internal/source/browser"
	"github.com/law-makers/expowait/internal/source/sheet"
	"github.com/law-makers/expowait/internal/source/static"
	"github.com/law-makers/expowait/internal/store"
	urlutil "github.com/law-makers/expowait/internal/utils/url"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command invocation. Use Close() to release
// idle connections on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	RestyClient *resty.Client
	Metrics     *metrics.Metrics
	Sink        *store.Appender
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the per-host rate limiter
//   - Initializes the HTTP clients with timeout and proxy
//   - Creates the CSV appender and metrics registry
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	return NewWithWriter(ctx, cfg, nil)
}

// NewWithWriter is New with an explicit log destination. A nil writer
// selects stderr, or a console writer when JSON logs are off.
func NewWithWriter(ctx context.Context, cfg *config.Config, w io.Writer) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg, w)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	restyClient := resty.New().
		SetTimeout(cfg.HTTPTimeout).
		SetHeaders(cfg.Headers)

	if cfg.Proxy != "" {
		proxyURL, err := urlutil.ValidateProxyURL(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		restyClient.SetProxy(cfg.Proxy)
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: transport,
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Str("proxy", cfg.Proxy).
		Msg("HTTP clients initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		RestyClient: restyClient,
		Metrics:     metrics.New(),
		Sink:        store.NewAppender(cfg.OutputFile, cfg.CRLF, logger),
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if w == nil {
		if cfg.JSONLog {
			w = os.Stderr
		} else {
			w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
				cw.Out = os.Stderr
			})
		}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Reader builds the reader for a single source kind
func (a *Application) Reader(kind models.SourceKind) (source.Reader, error) {
	cfg := a.Config
	logger := a.Logger.With().Str("component", string(kind)).Logger()

	switch kind {
	case models.SourceHTML:
		return static.New(static.Options{
			URL:         cfg.PageURL,
			RowSelector: cfg.HTMLRowSelector,
			UserAgent:   cfg.UserAgent,
			Headers:     cfg.Headers,
		}, a.HTTPClient, a.RateLimiter, logger), nil

	case models.SourceBrowser:
		opts := browser.Options{
			URL:               cfg.PageURL,
			WaitSelector:      cfg.Browser.WaitSelector,
			RowSelector:       cfg.Browser.RowSelector,
			UserAgent:         cfg.UserAgent,
			Headers:           cfg.Headers,
			Proxy:             cfg.Proxy,
			Headless:          cfg.Browser.Headless,
			ChromePath:        cfg.Browser.ChromePath,
			NavigationTimeout: cfg.Browser.NavigationTimeout,
			SelectorTimeout:   cfg.Browser.SelectorTimeout,
			WaitNetworkIdle:   cfg.Browser.WaitNetworkIdle,
			MinHTMLLength:     cfg.Browser.MinHTMLLength,
		}
		if cfg.Browser.Diagnostics {
			opts.HTMLDumpPath = cfg.Browser.HTMLDumpPath
			opts.ScreenshotPath = cfg.Browser.ScreenshotPath
		}
		return browser.New(opts, logger), nil

	case models.SourceSheet:
		return a.SheetReader(), nil
	}
	return nil, fmt.Errorf("unknown source %q", kind)
}

// SheetReader builds the spreadsheet reader
func (a *Application) SheetReader() *sheet.Reader {
	return sheet.New(sheet.Options{
		SheetID:   a.Config.SheetID,
		SheetName: a.Config.SheetName,
		UserAgent: a.Config.UserAgent,
	}, a.RestyClient, a.RateLimiter, a.Logger.With().Str("component", string(models.SourceSheet)).Logger())
}

// Runner builds the pipeline for the configured source and optional fallback
func (a *Application) Runner() (*pipeline.Runner, error) {
	primary, err := a.Reader(a.Config.Source)
	if err != nil {
		return nil, err
	}

	layouts := map[string]models.Layout{
		primary.Name(): a.Config.Layout(a.Config.Source),
	}

	var secondary source.Reader
	if a.Config.Fallback != "" {
		if secondary, err = a.Reader(a.Config.Fallback); err != nil {
			return nil, err
		}
		layouts[secondary.Name()] = a.Config.Layout(a.Config.Fallback)
	}

	return &pipeline.Runner{
		Source:  source.NewFallback(primary, secondary, *a.Logger),
		Layout:  a.Config.Layout(a.Config.Source),
		Layouts: layouts,
		Sink:    a.Sink,
		Logger:  *a.Logger,
		Metrics: a.Metrics,
	}, nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}
	if a.RestyClient != nil {
		a.RestyClient.GetClient().CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
