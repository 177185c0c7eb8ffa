package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", false, "Emit logs as JSON")
	pf.String("config", "", "Path to a JSON5 configuration file (optional)")
	pf.String("proxy", "", "Set HTTP/SOCKS5 proxy (e.g., http://localhost:8080)")
	pf.String("timeout", "30s", "Set hard timeout for HTTP requests")
	pf.String("user-agent", "", "Custom user agent string")
	pf.StringArrayP("header", "H", nil, "Extra request header (e.g., -H \"Referer: https://expo2025.fun/\")")

	pf.String("source", "", "Source to read: html, browser, or sheet")
	pf.String("fallback", "", "Source to read when the primary source fails (optional)")
	pf.String("url", "", "Wait time page URL")
	pf.String("sheet-id", "", "Published spreadsheet ID")
	pf.String("sheet-name", "", "Spreadsheet tab name (optional)")
}

// RegisterRunFlags registers flags that only apply to the run command
func RegisterRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("output", "o", "", "CSV file to append to")
	f.String("row-selector", "", "CSS selector of table rows (overrides the source default)")
	f.Int("min-cells", 0, "Minimum cells per row (overrides the source default)")
	f.Int("posted-col", 0, "Index of the posting time column, -1 for none (overrides the source default)")
	f.Bool("headed", false, "Show the browser window (needs a display)")
	f.String("chrome-path", "", "Chrome/Chromium executable")
	f.String("nav-timeout", "", "Navigation timeout for the browser source")
	f.String("selector-timeout", "", "How long to wait for the table to render")
	f.String("wait-selector", "", "Selector that signals the table has rendered")
	f.Int("min-html-length", -1, "Smallest plausible rendered page in characters, 0 disables")
	f.Bool("diagnostics", false, "Write an HTML dump and full-page screenshot on each browser run")
	f.String("metrics-file", "", "Write Prometheus metrics to this textfile")
}
