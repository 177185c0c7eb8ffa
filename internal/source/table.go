package source

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/expowait/pkg/models"
)

// DefaultCellSelector selects the cells inside a table row
const DefaultCellSelector = "td"

// RowsFromDocument returns the verbatim cell text of every row matching rowSelector.
// Rows without any cell are kept; length filtering belongs to the extractor.
func RowsFromDocument(doc *goquery.Document, rowSelector, cellSelector string) []models.RawRow {
	if cellSelector == "" {
		cellSelector = DefaultCellSelector
	}

	var rows []models.RawRow
	doc.Find(rowSelector).Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find(cellSelector)
		row := make(models.RawRow, 0, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			row = append(row, td.Text())
		})
		rows = append(rows, row)
	})
	return rows
}
