package pipeline

import (
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// Extract keeps the rows carrying at least layout.MinCells cells.
// Shorter rows are skipped, not treated as errors.
func Extract(table *models.Table, layout models.Layout, logger zerolog.Logger) []models.RawRow {
	if table == nil {
		return nil
	}

	rows := make([]models.RawRow, 0, len(table.Rows))
	for i, row := range table.Rows {
		if len(row) < layout.MinCells {
			logger.Debug().
				Int("row", i).
				Int("cells", len(row)).
				Int("min_cells", layout.MinCells).
				Msg("Skipping short row")
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
