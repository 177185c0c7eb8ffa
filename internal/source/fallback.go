package source

import (
	"context"
	"errors"

	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// Fallback reads from Primary and, only if that fails, from Secondary.
// Each reader is attempted at most once.
type Fallback struct {
	Primary   Reader
	Secondary Reader
	Logger    zerolog.Logger
}

// NewFallback returns primary alone when secondary is nil
func NewFallback(primary, secondary Reader, logger zerolog.Logger) Reader {
	if secondary == nil {
		return primary
	}
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}
}

// Name returns the name of this reader
func (f *Fallback) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

// Read implements Reader
func (f *Fallback) Read(ctx context.Context) (*models.Table, error) {
	table, err := f.Primary.Read(ctx)
	if err == nil {
		return table, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	f.Logger.Warn().
		Err(err).
		Str("primary", f.Primary.Name()).
		Str("fallback", f.Secondary.Name()).
		Msg("Primary source failed, reading fallback source")

	table, ferr := f.Secondary.Read(ctx)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return table, nil
}
