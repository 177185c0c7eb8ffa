package browser

import (
	"context"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
)

// writeDiagnostics dumps the rendered HTML and a full-page screenshot.
// Failures are logged and never abort the read.
func (r *Reader) writeDiagnostics(ctx context.Context) {
	if r.opts.HTMLDumpPath == "" && r.opts.ScreenshotPath == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.NavigationTimeout)
	defer cancel()

	if r.opts.HTMLDumpPath != "" {
		var html string
		if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to capture HTML dump")
		} else if err := writeArtifact(r.opts.HTMLDumpPath, []byte(html)); err != nil {
			r.logger.Warn().Err(err).Str("path", r.opts.HTMLDumpPath).Msg("Failed to write HTML dump")
		} else {
			r.logger.Debug().Str("path", r.opts.HTMLDumpPath).Int("bytes", len(html)).Msg("HTML dump saved")
		}
	}

	if r.opts.ScreenshotPath != "" {
		var buf []byte
		// quality 100 keeps the PNG encoding
		if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to capture screenshot")
		} else if err := writeArtifact(r.opts.ScreenshotPath, buf); err != nil {
			r.logger.Warn().Err(err).Str("path", r.opts.ScreenshotPath).Msg("Failed to write screenshot")
		} else {
			r.logger.Debug().Str("path", r.opts.ScreenshotPath).Int("bytes", len(buf)).Msg("Screenshot saved")
		}
	}
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
