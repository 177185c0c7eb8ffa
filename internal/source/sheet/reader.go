// Package sheet reads a published Google spreadsheet through its gviz JSON-P
// query endpoint.
package sheet

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/law-makers/expowait/internal/ratelimit"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
	"github.com/titanous/json5"
)

// DefaultBaseURL is the spreadsheet host prefix
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

var responseWrapper = regexp.MustCompile(`(?s)setResponse\((.*)\);`)

// Options configures a sheet Reader
type Options struct {
	BaseURL   string
	SheetID   string
	SheetName string
	UserAgent string
}

// Reader fetches the gviz payload and exposes table.rows as raw rows
type Reader struct {
	opts    Options
	client  *resty.Client
	limiter ratelimit.RateLimiter
	logger  zerolog.Logger
}

// New creates a sheet Reader. The resty client carries timeout and proxy settings.
func New(opts Options, client *resty.Client, lim ratelimit.RateLimiter, logger zerolog.Logger) *Reader {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	return &Reader{opts: opts, client: client, limiter: lim, logger: logger}
}

// Name returns the name of this reader
func (r *Reader) Name() string {
	return "SheetReader"
}

// QueryURL returns the JSON-P endpoint for the configured spreadsheet
func (r *Reader) QueryURL() string {
	u := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json", r.opts.BaseURL, url.PathEscape(r.opts.SheetID))
	if r.opts.SheetName != "" {
		u += "&sheet=" + url.QueryEscape(r.opts.SheetName)
	}
	return u
}

// Read implements source.Reader
func (r *Reader) Read(ctx context.Context) (*models.Table, error) {
	resp, err := r.query(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RawRow, 0, len(resp.Table.Rows))
	for _, row := range resp.Table.Rows {
		raw := make(models.RawRow, len(row.C))
		for i, c := range row.C {
			raw[i] = c.Text()
		}
		rows = append(rows, raw)
	}

	r.logger.Debug().
		Str("sheet_id", r.opts.SheetID).
		Int("rows", len(rows)).
		Int("cols", len(resp.Table.Cols)).
		Msg("Spreadsheet rows decoded")

	return &models.Table{
		Source:    r.Name(),
		URL:       r.QueryURL(),
		Rows:      rows,
		FetchedAt: time.Now(),
	}, nil
}

// Columns returns the column labels of the spreadsheet in order
func (r *Reader) Columns(ctx context.Context) ([]string, error) {
	resp, err := r.query(ctx)
	if err != nil {
		return nil, err
	}

	labels := make([]string, len(resp.Table.Cols))
	for i, col := range resp.Table.Cols {
		labels[i] = col.Label
	}
	return labels, nil
}

func (r *Reader) query(ctx context.Context) (*Response, error) {
	queryURL := r.QueryURL()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, queryURL); err != nil {
			return nil, source.Classify("rate limiter wait", err)
		}
	}

	r.logger.Debug().Str("url", queryURL).Str("reader", r.Name()).Msg("Starting fetch")

	req := r.client.R().SetContext(ctx)
	if r.opts.UserAgent != "" {
		req.SetHeader("User-Agent", r.opts.UserAgent)
	}
	res, err := req.Get(queryURL)
	if err != nil {
		return nil, source.Classify("failed to fetch spreadsheet", err)
	}
	if res.IsError() {
		return nil, source.NewError(source.ErrCodeNetwork, fmt.Sprintf("unexpected status %s", res.Status()), nil).
			WithDetail("status_code", res.StatusCode()).
			WithDetail("url", queryURL)
	}

	return Decode(res.Body())
}

// Decode strips the setResponse(...) wrapper and decodes the payload
func Decode(body []byte) (*Response, error) {
	m := responseWrapper.FindSubmatch(body)
	if m == nil {
		return nil, source.NewError(source.ErrCodeParse, "setResponse wrapper not found", nil).
			WithDetail("body_length", len(body))
	}

	var resp Response
	if err := json5.Unmarshal(m[1], &resp); err != nil {
		return nil, source.NewError(source.ErrCodeParse, "malformed spreadsheet payload", err)
	}

	if resp.Status == "error" {
		msg := "spreadsheet query failed"
		if len(resp.Errors) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, resp.Errors[0].DetailedMessage)
		}
		return nil, source.NewError(source.ErrCodeParse, msg, nil)
	}
	if resp.Table == nil {
		return nil, source.NewError(source.ErrCodeParse, "payload has no table", nil)
	}
	return &resp, nil
}

// Response is the gviz query response body
type Response struct {
	Version string       `json:"version"`
	ReqID   string       `json:"reqId"`
	Status  string       `json:"status"`
	Errors  []QueryError `json:"errors"`
	Table   *Table       `json:"table"`
}

// QueryError is one entry of a failed response
type QueryError struct {
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	DetailedMessage string `json:"detailed_message"`
}

// Table holds the column descriptions and rows of a response
type Table struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

// Column describes one spreadsheet column
type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Row is a fixed-size array of cells; empty cells are null
type Row struct {
	C []*Cell `json:"c"`
}

// Cell carries a raw value and an optional formatted value
type Cell struct {
	V interface{} `json:"v"`
	F string      `json:"f"`
}

// Text renders the cell value as text. Null cells render empty.
func (c *Cell) Text() string {
	if c == nil {
		return ""
	}
	switch v := c.V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return c.F
	default:
		return fmt.Sprint(v)
	}
}
