package pipeline

import (
	"time"

	"github.com/law-makers/expowait/pkg/models"
)

// Assemble normalizes the fields picked by layout and stamps every row with capturedAt.
// Indexes beyond the end of a row yield empty fields.
func Assemble(rows []models.RawRow, layout models.Layout, capturedAt time.Time) []models.Observation {
	obs := make([]models.Observation, 0, len(rows))
	for _, row := range rows {
		o := models.Observation{
			CapturedAt:     capturedAt,
			AttractionName: Normalize(cell(row, layout.NameIndex)),
			WaitTime:       Normalize(cell(row, layout.WaitIndex)),
			HasPosted:      layout.HasPosted(),
		}
		if o.HasPosted {
			o.PostedAt = Normalize(cell(row, layout.PostedIndex))
		}
		obs = append(obs, o)
	}
	return obs
}

func cell(row models.RawRow, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
