// Package pipeline runs one scrape: fetch, extract, normalize, assemble, append.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/law-makers/expowait/internal/metrics"
	"github.com/law-makers/expowait/internal/reqctx"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/rs/zerolog"
)

// State is a step of a run
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateExtracting State = "extracting"
	StateAssembling State = "assembling"
	StateAppending  State = "appending"
	StateDone       State = "done"
)

// Sink receives the assembled batch
type Sink interface {
	Append(obs []models.Observation) (int, error)
}

// Result summarises a finished run. Err is set when the run ended early;
// FailedAt names the step that failed.
type Result struct {
	RunID     string
	State     State
	FailedAt  State
	Fetched   int
	Extracted int
	Appended  int
	Err       error
	Duration  time.Duration
}

// OK reports whether the run completed without error
func (r Result) OK() bool {
	return r.Err == nil
}

// Runner wires a source reader to a sink
type Runner struct {
	Source source.Reader
	Layout models.Layout
	// Layouts overrides Layout for tables produced by the named reader,
	// so a fallback source keeps its own column positions.
	Layouts map[string]models.Layout
	Sink    Sink
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Now is the capture clock; defaults to time.Now
	Now func() time.Time
}

// Run executes one pass. It never panics on pipeline errors and never returns
// them to the caller other than through Result.
func (r *Runner) Run(ctx context.Context) (res Result) {
	ctx = reqctx.WithRunContext(ctx)
	rc := reqctx.FromContext(ctx)
	logger := r.Logger.With().Str("run_id", rc.RunID).Str("source", r.Source.Name()).Logger()

	res = Result{RunID: rc.RunID, State: StateIdle}
	defer func() {
		res.Duration = time.Since(rc.StartTime)
	}()

	res.State = StateFetching
	logger.Info().Msg("Fetching wait times")

	fetchStart := time.Now()
	table, err := r.Source.Read(ctx)
	r.Metrics.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		return r.fail(logger, res, err)
	}

	res.State = StateExtracting
	if table == nil {
		return r.fail(logger, res, source.NewError(source.ErrCodeParse, "source returned no table", nil))
	}
	res.Fetched = len(table.Rows)
	layout := r.layoutFor(table)
	rows := Extract(table, layout, logger)
	res.Extracted = len(rows)

	res.State = StateAssembling
	obs := Assemble(rows, layout, r.now())

	res.State = StateAppending
	n, err := r.Sink.Append(obs)
	if err != nil {
		return r.fail(logger, res, fmt.Errorf("append observations: %w", err))
	}
	res.Appended = n
	res.State = StateDone

	r.Metrics.AddRows(n)
	outcome := "success"
	if n == 0 {
		outcome = "empty"
	}
	r.Metrics.IncRun(r.Source.Name(), outcome)

	logger.Info().
		Int("fetched", res.Fetched).
		Int("extracted", res.Extracted).
		Int("appended", res.Appended).
		Msg("Run completed")
	return res
}

func (r *Runner) fail(logger zerolog.Logger, res Result, err error) Result {
	res.FailedAt = res.State
	res.State = StateDone
	res.Err = err

	code := source.CodeOf(err)
	if res.FailedAt == StateAppending {
		code = "WRITE_ERROR"
	}
	r.Metrics.IncError(string(code))
	r.Metrics.IncRun(r.Source.Name(), "error")

	ev := logger.Error().Err(err).Str("code", string(code)).Str("stage", string(res.FailedAt))
	if code == source.ErrCodeTimeout {
		ev.Msg("Timed out loading the page or waiting for the table")
	} else {
		ev.Msg("Scrape run failed")
	}
	return res
}

func (r *Runner) layoutFor(table *models.Table) models.Layout {
	if l, ok := r.Layouts[table.Source]; ok {
		return l
	}
	return r.Layout
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
