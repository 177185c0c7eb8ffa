// Package store appends observations to the wait time CSV log.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// Appender appends observations to a CSV file. It never writes a header and
// never truncates existing content.
type Appender struct {
	path   string
	crlf   bool
	logger zerolog.Logger
}

// NewAppender creates an Appender for path. crlf selects \r\n record terminators.
func NewAppender(path string, crlf bool, logger zerolog.Logger) *Appender {
	return &Appender{path: path, crlf: crlf, logger: logger}
}

// Path returns the destination file
func (a *Appender) Path() string {
	return a.path
}

// Append writes obs as one batch and returns the number of records written.
// An empty batch leaves the file untouched.
func (a *Appender) Append(obs []models.Observation) (int, error) {
	if len(obs) == 0 {
		a.logger.Warn().
			Str("file", a.path).
			Msg("No wait time rows extracted, page structure may have changed")
		return 0, nil
	}

	// Render the whole batch first so a failure never leaves half a batch on disk
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = a.crlf
	for _, o := range obs {
		if err := w.Write(o.Record()); err != nil {
			return 0, fmt.Errorf("encode csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush csv records: %w", err)
	}

	if err := ensureDir(a.path); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open csv file: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return 0, fmt.Errorf("append csv records: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close csv file: %w", err)
	}

	a.logger.Info().
		Str("file", a.path).
		Int("rows", len(obs)).
		Msg("Wait times appended")
	return len(obs), nil
}

// ensureDir creates the parent directory of filename. A bare file name needs none.
func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
