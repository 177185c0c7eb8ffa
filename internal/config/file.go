package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/titanous/json5"
)

// File is the on-disk configuration. Every field is optional; unset fields
// keep the value from the defaults.
type File struct {
	Source      string                `json:"source"`
	Fallback    string                `json:"fallback"`
	URL         string                `json:"url"`
	SheetID     string                `json:"sheet_id"`
	SheetName   string                `json:"sheet_name"`
	Output      string                `json:"output"`
	CRLF        *bool                 `json:"crlf"`
	MetricsFile string                `json:"metrics_file"`
	LogLevel    string                `json:"log_level"`
	JSONLog     *bool                 `json:"json_log"`
	UserAgent   string                `json:"user_agent"`
	Proxy       string                `json:"proxy"`
	Timeout     string                `json:"timeout"`
	RateLimit   *float64              `json:"rate_limit"`
	Burst       *int                  `json:"burst"`
	Headers     map[string]string     `json:"headers"`
	RowSelector string                `json:"row_selector"`
	Browser     FileBrowser           `json:"browser"`
	Layouts     map[string]FileLayout `json:"layouts"`
}

// FileBrowser is the browser section of the config file
type FileBrowser struct {
	Headless        *bool  `json:"headless"`
	ChromePath      string `json:"chrome_path"`
	RowSelector     string `json:"row_selector"`
	WaitSelector    string `json:"wait_selector"`
	NavTimeout      string `json:"nav_timeout"`
	SelectorTimeout string `json:"selector_timeout"`
	WaitNetworkIdle *bool  `json:"wait_network_idle"`
	MinHTMLLength   *int   `json:"min_html_length"`
	Diagnostics     *bool  `json:"diagnostics"`
	HTMLDumpPath    string `json:"html_dump_path"`
	ScreenshotPath  string `json:"screenshot_path"`
}

// FileLayout overrides part of a source's column layout
type FileLayout struct {
	MinCells    *int `json:"min_cells"`
	NameIndex   *int `json:"name_index"`
	WaitIndex   *int `json:"wait_index"`
	PostedIndex *int `json:"posted_index"`
}

func splitExt(f string) (string, string) {
	ext := filepath.Ext(f)
	return strings.TrimSuffix(f, ext), strings.TrimPrefix(ext, ".")
}

// ReadFile reads a JSON5 config file and merges <name>.local.<ext> over it
// when present. At least one of the two files must exist.
func ReadFile(name string) (*File, error) {
	var out File
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(data) > 0 {
		if err := json5.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		found = true
	}

	prefix, ext := splitExt(filepath.Base(name))
	localPath := filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
	local, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if len(local) > 0 {
		var override File
		if err := json5.Unmarshal(local, &override); err != nil {
			return nil, fmt.Errorf("parse %s: %w", localPath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", localPath, err)
		}
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return &out, nil
}

func (f *File) apply(cfg *Config) error {
	setStr := func(src string, dst *string) {
		if src != "" {
			*dst = src
		}
	}
	setDur := func(key, src string, dst *time.Duration) error {
		if src == "" {
			return nil
		}
		d, err := time.ParseDuration(src)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if f.Source != "" {
		cfg.Source = models.SourceKind(f.Source)
	}
	if f.Fallback != "" {
		cfg.Fallback = models.SourceKind(f.Fallback)
	}
	setStr(f.URL, &cfg.PageURL)
	setStr(f.SheetID, &cfg.SheetID)
	setStr(f.SheetName, &cfg.SheetName)
	setStr(f.Output, &cfg.OutputFile)
	setStr(f.MetricsFile, &cfg.MetricsFile)
	setStr(f.LogLevel, &cfg.LogLevel)
	setStr(f.UserAgent, &cfg.UserAgent)
	setStr(f.Proxy, &cfg.Proxy)
	setStr(f.RowSelector, &cfg.HTMLRowSelector)
	if f.CRLF != nil {
		cfg.CRLF = *f.CRLF
	}
	if f.JSONLog != nil {
		cfg.JSONLog = *f.JSONLog
	}
	if f.RateLimit != nil {
		cfg.RateLimitRPS = *f.RateLimit
	}
	if f.Burst != nil {
		cfg.RateLimitBurst = *f.Burst
	}
	if err := setDur("timeout", f.Timeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	for k, v := range f.Headers {
		cfg.Headers[k] = v
	}

	b := f.Browser
	setStr(b.ChromePath, &cfg.Browser.ChromePath)
	setStr(b.RowSelector, &cfg.Browser.RowSelector)
	setStr(b.WaitSelector, &cfg.Browser.WaitSelector)
	setStr(b.HTMLDumpPath, &cfg.Browser.HTMLDumpPath)
	setStr(b.ScreenshotPath, &cfg.Browser.ScreenshotPath)
	if b.Headless != nil {
		cfg.Browser.Headless = *b.Headless
	}
	if b.WaitNetworkIdle != nil {
		cfg.Browser.WaitNetworkIdle = *b.WaitNetworkIdle
	}
	if b.MinHTMLLength != nil {
		cfg.Browser.MinHTMLLength = *b.MinHTMLLength
	}
	if b.Diagnostics != nil {
		cfg.Browser.Diagnostics = *b.Diagnostics
	}
	if err := setDur("browser.nav_timeout", b.NavTimeout, &cfg.Browser.NavigationTimeout); err != nil {
		return err
	}
	if err := setDur("browser.selector_timeout", b.SelectorTimeout, &cfg.Browser.SelectorTimeout); err != nil {
		return err
	}

	for name, fl := range f.Layouts {
		kind, ok := models.ParseSourceKind(name)
		if !ok {
			return fmt.Errorf("layouts: unknown source %q", name)
		}
		l := cfg.Layout(kind)
		if fl.MinCells != nil {
			l.MinCells = *fl.MinCells
		}
		if fl.NameIndex != nil {
			l.NameIndex = *fl.NameIndex
		}
		if fl.WaitIndex != nil {
			l.WaitIndex = *fl.WaitIndex
		}
		if fl.PostedIndex != nil {
			l.PostedIndex = *fl.PostedIndex
		}
		cfg.Layouts[kind] = l
	}
	return nil
}
