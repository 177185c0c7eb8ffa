package config

import (
	"fmt"

	urlutil "github.com/law-makers/expowait/internal/utils/url"
	"github.com/law-makers/expowait/pkg/models"
)

func validate(c *Config) error {
	if _, ok := models.ParseSourceKind(string(c.Source)); !ok {
		return fmt.Errorf("unknown source %q (want html, browser or sheet)", c.Source)
	}
	if c.Fallback != "" {
		if _, ok := models.ParseSourceKind(string(c.Fallback)); !ok {
			return fmt.Errorf("unknown fallback source %q", c.Fallback)
		}
		if c.Fallback == c.Source {
			return fmt.Errorf("fallback source must differ from the primary source")
		}
	}

	for _, kind := range c.kinds() {
		switch kind {
		case models.SourceHTML, models.SourceBrowser:
			if err := urlutil.ValidateURL(c.PageURL); err != nil {
				return err
			}
		case models.SourceSheet:
			if c.SheetID == "" {
				return fmt.Errorf("sheet source requires a sheet id")
			}
		}
		if err := validateLayout(kind, c.Layout(kind)); err != nil {
			return err
		}
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.Proxy != "" {
		if _, err := urlutil.ValidateProxyURL(c.Proxy); err != nil {
			return err
		}
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.Browser.SelectorTimeout <= 0 || c.Browser.SelectorTimeout > MaxSelectorTimeout {
		return fmt.Errorf("selector timeout must be between 0 and %s", MaxSelectorTimeout)
	}
	if c.Browser.MinHTMLLength < 0 {
		c.Browser.MinHTMLLength = DefaultMinHTMLLength
	}
	return nil
}

func validateLayout(kind models.SourceKind, l models.Layout) error {
	if l.MinCells < 1 {
		return fmt.Errorf("%s layout: min_cells must be >= 1", kind)
	}
	if l.NameIndex < 0 || l.NameIndex >= l.MinCells {
		return fmt.Errorf("%s layout: name_index must be within min_cells", kind)
	}
	if l.WaitIndex < 0 || l.WaitIndex >= l.MinCells {
		return fmt.Errorf("%s layout: wait_index must be within min_cells", kind)
	}
	if l.PostedIndex < -1 {
		return fmt.Errorf("%s layout: posted_index must be >= -1", kind)
	}
	return nil
}

// kinds lists the sources a run will touch
func (c *Config) kinds() []models.SourceKind {
	if c.Fallback == "" {
		return []models.SourceKind{c.Source}
	}
	return []models.SourceKind{c.Source, c.Fallback}
}
