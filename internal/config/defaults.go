package config

import (
	"time"

	"github.com/law-makers/expowait/pkg/models"
)

// Default constants for application configuration
const (
	DefaultLogLevel  = "info"
	DefaultJSONLog   = false
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

	DefaultSource     = models.SourceHTML
	DefaultPageURL    = "https://expo2025.fun/%E3%83%91%E3%83%93%E3%83%AA%E3%82%AA%E3%83%B3%E5%BE%85%E3%81%A1%E6%99%82%E9%96%93/"
	DefaultSheetID    = "14R9px2COU6-9UIgib2xY7ICh5sI-FDzcfC14iQXFj3U"
	DefaultOutputFile = "wait_times.csv"
	DefaultCRLF       = true

	DefaultHTTPTimeout    = 30 * time.Second
	DefaultRateLimitRPS   = 1.0
	DefaultRateLimitBurst = 2

	DefaultHTMLRowSelector    = "div.table-responsive tbody tr"
	DefaultBrowserRowSelector = "table.table tbody tr"
	DefaultWaitSelector       = "table.table"
	DefaultBrowserHeadless    = true
	DefaultNavigationTimeout  = 60 * time.Second
	DefaultSelectorTimeout    = 30 * time.Second
	DefaultWaitNetworkIdle    = true
	DefaultMinHTMLLength      = 50000
	DefaultHTMLDumpPath       = "debug-dump.html"
	DefaultScreenshotPath     = "debug.png"

	MaxSelectorTimeout = 5 * time.Minute
)

// DefaultLayouts holds the column layout of each source
func DefaultLayouts() map[models.SourceKind]models.Layout {
	return map[models.SourceKind]models.Layout{
		models.SourceHTML:    {MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 2},
		models.SourceBrowser: {MinCells: 3, NameIndex: 0, WaitIndex: 1, PostedIndex: 2},
		models.SourceSheet:   {MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 3},
	}
}
