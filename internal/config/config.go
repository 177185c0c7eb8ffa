package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/law-makers/expowait/pkg/models"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Sources
	Source    models.SourceKind
	Fallback  models.SourceKind
	PageURL   string
	SheetID   string
	SheetName string
	Layouts   map[models.SourceKind]models.Layout

	// Output
	OutputFile  string
	CRLF        bool
	MetricsFile string

	// HTTP
	HTTPTimeout     time.Duration
	UserAgent       string
	Proxy           string
	Headers         map[string]string
	RateLimitRPS    float64
	RateLimitBurst  int
	HTMLRowSelector string

	Browser BrowserConfig
}

// BrowserConfig holds the settings of the browser source
type BrowserConfig struct {
	Headless          bool
	ChromePath        string
	RowSelector       string
	WaitSelector      string
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	WaitNetworkIdle   bool
	MinHTMLLength     int
	Diagnostics       bool
	HTMLDumpPath      string
	ScreenshotPath    string
}

// Default returns a Config populated with defaults only
func Default() *Config {
	return &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		Source:          DefaultSource,
		PageURL:         DefaultPageURL,
		SheetID:         DefaultSheetID,
		Layouts:         DefaultLayouts(),
		OutputFile:      DefaultOutputFile,
		CRLF:            DefaultCRLF,
		HTTPTimeout:     DefaultHTTPTimeout,
		UserAgent:       DefaultUserAgent,
		Headers:         map[string]string{},
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		HTMLRowSelector: DefaultHTMLRowSelector,
		Browser: BrowserConfig{
			Headless:          DefaultBrowserHeadless,
			RowSelector:       DefaultBrowserRowSelector,
			WaitSelector:      DefaultWaitSelector,
			NavigationTimeout: DefaultNavigationTimeout,
			SelectorTimeout:   DefaultSelectorTimeout,
			WaitNetworkIdle:   DefaultWaitNetworkIdle,
			MinHTMLLength:     DefaultMinHTMLLength,
			HTMLDumpPath:      DefaultHTMLDumpPath,
			ScreenshotPath:    DefaultScreenshotPath,
		},
	}
}

// Layout returns the column layout for a source kind
func (c *Config) Layout(kind models.SourceKind) models.Layout {
	if l, ok := c.Layouts[kind]; ok {
		return l
	}
	return DefaultLayouts()[kind]
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv("EXPOWAIT_CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		file, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := file.apply(cfg); err != nil {
			return nil, fmt.Errorf("apply config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cmd != nil {
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EXPOWAIT_SOURCE"); v != "" {
		cfg.Source = models.SourceKind(v)
	}
	if v := os.Getenv("EXPOWAIT_FALLBACK"); v != "" {
		cfg.Fallback = models.SourceKind(v)
	}
	if v := os.Getenv("EXPOWAIT_URL"); v != "" {
		cfg.PageURL = v
	}
	if v := os.Getenv("EXPOWAIT_SHEET_ID"); v != "" {
		cfg.SheetID = v
	}
	if v := os.Getenv("EXPOWAIT_OUTPUT"); v != "" {
		cfg.OutputFile = v
	}
	if v := os.Getenv("EXPOWAIT_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("EXPOWAIT_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("EXPOWAIT_CHROME_PATH"); v != "" {
		cfg.Browser.ChromePath = v
	}
	if v := os.Getenv("EXPOWAIT_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Browser.Headless = b
		}
	}
	if v := os.Getenv("EXPOWAIT_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
}

func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()

	str := func(name string, dst *string) {
		if f := flags.Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}
	dur := func(name string, dst *time.Duration) error {
		f := flags.Lookup(name)
		if f == nil || !f.Changed || f.Value.String() == "" {
			return nil
		}
		d, err := time.ParseDuration(f.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = d
		return nil
	}

	var source, fallback string
	str("source", &source)
	str("fallback", &fallback)
	if source != "" {
		cfg.Source = models.SourceKind(source)
	}
	if fallback != "" {
		cfg.Fallback = models.SourceKind(fallback)
	}

	str("url", &cfg.PageURL)
	str("sheet-id", &cfg.SheetID)
	str("sheet-name", &cfg.SheetName)
	str("output", &cfg.OutputFile)
	str("user-agent", &cfg.UserAgent)
	str("proxy", &cfg.Proxy)
	str("chrome-path", &cfg.Browser.ChromePath)
	str("wait-selector", &cfg.Browser.WaitSelector)
	str("metrics-file", &cfg.MetricsFile)

	if err := dur("timeout", &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := dur("nav-timeout", &cfg.Browser.NavigationTimeout); err != nil {
		return err
	}
	if err := dur("selector-timeout", &cfg.Browser.SelectorTimeout); err != nil {
		return err
	}

	if f := flags.Lookup("row-selector"); f != nil && f.Changed {
		if cfg.Source == models.SourceBrowser {
			cfg.Browser.RowSelector = f.Value.String()
		} else {
			cfg.HTMLRowSelector = f.Value.String()
		}
	}

	if hs, err := flags.GetStringArray("header"); err == nil && len(hs) > 0 {
		for k, v := range ParseHeaders(hs) {
			cfg.Headers[k] = v
		}
	}

	if flags.Changed("headed") {
		if headed, err := flags.GetBool("headed"); err == nil && headed {
			cfg.Browser.Headless = false
		}
	}
	if flags.Changed("diagnostics") {
		cfg.Browser.Diagnostics, _ = flags.GetBool("diagnostics")
	}
	if flags.Changed("min-html-length") {
		cfg.Browser.MinHTMLLength, _ = flags.GetInt("min-html-length")
	}

	layout := cfg.Layout(cfg.Source)
	if flags.Changed("min-cells") {
		layout.MinCells, _ = flags.GetInt("min-cells")
	}
	if flags.Changed("posted-col") {
		layout.PostedIndex, _ = flags.GetInt("posted-col")
	}
	cfg.Layouts[cfg.Source] = layout

	if v, _ := flags.GetBool("json"); v {
		cfg.JSONLog = true
	}
	if v, _ := flags.GetBool("quiet"); v {
		cfg.LogLevel = "error"
	}
	if v, _ := flags.GetBool("verbose"); v {
		cfg.LogLevel = "debug"
	}
	return nil
}
