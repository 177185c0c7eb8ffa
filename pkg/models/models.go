package models

import "time"

// TimestampLayout is the local ISO-8601 layout used for captured_at.
// No zone suffix is written.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// SourceKind selects which reader produces the table
type SourceKind string

const (
	SourceHTML    SourceKind = "html"
	SourceBrowser SourceKind = "browser"
	SourceSheet   SourceKind = "sheet"
)

// ParseSourceKind returns the kind for s and whether it is known
func ParseSourceKind(s string) (SourceKind, bool) {
	switch SourceKind(s) {
	case SourceHTML, SourceBrowser, SourceSheet:
		return SourceKind(s), true
	}
	return "", false
}

// RawRow is the unparsed cell text of a single source row
type RawRow []string

// Table is the tabular structure returned by a source reader
type Table struct {
	Source    string
	URL       string
	Rows      []RawRow
	FetchedAt time.Time
}

// Layout describes where the fields of an observation live inside a RawRow.
// PostedIndex is -1 when the source carries no posting time.
type Layout struct {
	MinCells    int `json:"min_cells"`
	NameIndex   int `json:"name_index"`
	WaitIndex   int `json:"wait_index"`
	PostedIndex int `json:"posted_index"`
}

// HasPosted reports whether the layout emits a posted_at column
func (l Layout) HasPosted() bool {
	return l.PostedIndex >= 0
}

// Observation is one timestamped wait time row
type Observation struct {
	CapturedAt     time.Time `json:"captured_at"`
	AttractionName string    `json:"attraction_name"`
	WaitTime       string    `json:"wait_time"`
	PostedAt       string    `json:"posted_at,omitempty"`
	HasPosted      bool      `json:"-"`
}

// Record renders the observation as a CSV record
func (o Observation) Record() []string {
	rec := []string{
		o.CapturedAt.Format(TimestampLayout),
		o.AttractionName,
		o.WaitTime,
	}
	if o.HasPosted {
		rec = append(rec, o.PostedAt)
	}
	return rec
}
