// Package source defines the readers that turn a remote page or spreadsheet
// into rows of raw cell text.
package source

import (
	"context"

	"github.com/law-makers/expowait/pkg/models"
)

// Reader is the interface that all source implementations must implement
type Reader interface {
	// Read fetches the remote source once and returns its rows
	Read(ctx context.Context) (*models.Table, error)

	// Name returns the name of the reader implementation
	Name() string
}
