// Package metrics exposes run counters for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a scrape run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry          *prometheus.Registry
	RunsTotal         *prometheus.CounterVec
	RowsAppendedTotal prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	LastSuccess       prometheus.Gauge
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expowait_runs_total",
			Help: "Scrape runs by outcome.",
		},
		[]string{"source", "outcome"},
	)
	rows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expowait_rows_appended_total",
			Help: "Wait time rows appended to the CSV log.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expowait_errors_total",
			Help: "Run failures by error code.",
		},
		[]string{"code"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expowait_fetch_duration_seconds",
			Help:    "Time spent reading the source.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
	)
	lastSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "expowait_last_success_timestamp_seconds",
			Help: "Unix time of the last run that appended rows.",
		},
	)

	registry.MustRegister(runs, rows, errorsTotal, fetchDuration, lastSuccess)

	return &Metrics{
		Registry:          registry,
		RunsTotal:         runs,
		RowsAppendedTotal: rows,
		ErrorsTotal:       errorsTotal,
		FetchDuration:     fetchDuration,
		LastSuccess:       lastSuccess,
	}
}

// IncRun counts a finished run
func (m *Metrics) IncRun(source, outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(source, outcome).Inc()
}

// AddRows counts appended rows and marks the run as a success
func (m *Metrics) AddRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsAppendedTotal.Add(float64(n))
	m.LastSuccess.SetToCurrentTime()
}

// IncError counts a failure for an error code
func (m *Metrics) IncError(code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(code).Inc()
}

// ObserveFetch records how long the source read took
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// WriteTextfile atomically writes the registry in text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
