package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/law-makers/expowait/internal/metrics"
	"github.com/law-makers/expowait/internal/source"
	"github.com/law-makers/expowait/internal/source/sheet"
	"github.com/law-makers/expowait/internal/source/static"
	"github.com/law-makers/expowait/internal/store"
	"github.com/law-makers/expowait/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 4, 13, 15, 3, 0, 0, time.Local)

const fixedStamp = "2025-04-13T15:03:00.000000"

type fakeReader struct {
	table *models.Table
	err   error
}

func (f *fakeReader) Name() string { return "FakeReader" }

func (f *fakeReader) Read(ctx context.Context) (*models.Table, error) {
	return f.table, f.err
}

type failingSink struct{}

func (failingSink) Append(obs []models.Observation) (int, error) {
	return 0, errors.New("disk full")
}

func newRunner(t *testing.T, r source.Reader, layout models.Layout, logs *bytes.Buffer) (*Runner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out", "wait_times.csv")
	logger := zerolog.New(logs)
	return &Runner{
		Source:  r,
		Layout:  layout,
		Sink:    store.NewAppender(path, false, logger),
		Logger:  logger,
		Metrics: metrics.New(),
		Now:     func() time.Time { return fixedNow },
	}, path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestRun_HTMLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="table-responsive"><table class="table"><tbody>
			<tr><td>Space Mountain</td><td>30分</td><td>15:02</td></tr>
			<tr><td>It's a Small World</td><td>なし</td><td>—</td></tr>
		</tbody></table></div></body></html>`))
	}))
	defer server.Close()

	reader := static.New(static.Options{
		URL:         server.URL,
		RowSelector: "div.table-responsive tbody tr",
		UserAgent:   "TestReader/1.0",
	}, &http.Client{Timeout: 5 * time.Second}, nil, zerolog.Nop())

	var logs bytes.Buffer
	runner, path := newRunner(t, reader, models.Layout{MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 2}, &logs)

	res := runner.Run(context.Background())
	require.True(t, res.OK(), "run failed: %v", res.Err)
	require.Equal(t, StateDone, res.State)
	require.Equal(t, 2, res.Appended)

	require.Equal(t, []string{
		fixedStamp + ",Space Mountain,30分,15:02",
		fixedStamp + ",It's a Small World,なし,—",
	}, readLines(t, path))
	require.Equal(t, float64(2), testutil.ToFloat64(runner.Metrics.RowsAppendedTotal))
}

func TestRun_SheetSource(t *testing.T) {
	client := resty.New()
	httpmock.ActivateNonDefault(client.GetClient())
	defer httpmock.DeactivateAndReset()

	reader := sheet.New(sheet.Options{SheetID: "sheet-123"}, client, nil, zerolog.Nop())
	httpmock.RegisterResponder(http.MethodGet, reader.QueryURL(), httpmock.NewStringResponder(200,
		`/*O_o*/
google.visualization.Query.setResponse({"table":{"rows":[{"c":[{"v":"A"},{"v":"5分"},null,{"v":"15:00"}]}]}});`))

	var logs bytes.Buffer
	runner, path := newRunner(t, reader, models.Layout{MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 3}, &logs)

	res := runner.Run(context.Background())
	require.True(t, res.OK(), "run failed: %v", res.Err)
	require.Equal(t, []string{fixedStamp + ",A,5分,15:00"}, readLines(t, path))
}

func TestRun_Timeout(t *testing.T) {
	timeout := source.NewError(source.ErrCodeTimeout, "selector did not appear", context.DeadlineExceeded)

	var logs bytes.Buffer
	runner, path := newRunner(t, &fakeReader{err: timeout}, models.Layout{MinCells: 3, NameIndex: 0, WaitIndex: 1, PostedIndex: 2}, &logs)

	res := runner.Run(context.Background())
	require.False(t, res.OK())
	require.ErrorIs(t, res.Err, source.ErrTimeout)
	require.Equal(t, StateFetching, res.FailedAt)
	require.Equal(t, StateDone, res.State)
	require.Zero(t, res.Appended)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "no file should be written on timeout")
	require.Contains(t, logs.String(), `"code":"TIMEOUT"`)
	require.Equal(t, float64(1), testutil.ToFloat64(runner.Metrics.ErrorsTotal.WithLabelValues("TIMEOUT")))
}

func TestRun_AppendsToExistingFile(t *testing.T) {
	table := &models.Table{Rows: []models.RawRow{
		{"A", "5分", "15:00"},
		{"too short"},
		{"B", "10分", "15:01"},
	}}

	var logs bytes.Buffer
	runner, path := newRunner(t, &fakeReader{table: table}, models.Layout{MinCells: 3, NameIndex: 0, WaitIndex: 1, PostedIndex: 2}, &logs)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("2025-04-13T14:00:00.000000,Old,1分,13:59\n"), 0o644))

	res := runner.Run(context.Background())
	require.True(t, res.OK())
	require.Equal(t, 3, res.Fetched)
	require.Equal(t, 2, res.Extracted)
	require.Equal(t, 2, res.Appended)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+2)
	require.Equal(t, "Old", records[0][1])
}

func TestRun_ZeroRows(t *testing.T) {
	table := &models.Table{Rows: []models.RawRow{{"only"}, {}}}

	var logs bytes.Buffer
	runner, path := newRunner(t, &fakeReader{table: table}, models.Layout{MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: -1}, &logs)

	res := runner.Run(context.Background())
	require.True(t, res.OK())
	require.Zero(t, res.Appended)
	require.Contains(t, logs.String(), `"level":"warn"`)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestRun_NilTable(t *testing.T) {
	var logs bytes.Buffer
	runner, _ := newRunner(t, &fakeReader{}, models.Layout{MinCells: 2}, &logs)

	res := runner.Run(context.Background())
	require.ErrorIs(t, res.Err, source.ErrParse)
	require.Equal(t, StateExtracting, res.FailedAt)
}

func TestRun_SinkFailure(t *testing.T) {
	var logs bytes.Buffer
	runner, _ := newRunner(t, &fakeReader{table: &models.Table{Rows: []models.RawRow{{"A", "5分"}}}}, models.Layout{MinCells: 2, PostedIndex: -1, WaitIndex: 1}, &logs)
	runner.Sink = failingSink{}

	res := runner.Run(context.Background())
	require.Error(t, res.Err)
	require.Equal(t, StateAppending, res.FailedAt)
	require.Contains(t, logs.String(), "disk full")
}

func TestRun_FallbackUsesItsOwnLayout(t *testing.T) {
	primary := &fakeReader{err: source.NewError(source.ErrCodeNetwork, "connection refused", nil)}
	secondary := &namedReader{name: "SheetReader", table: &models.Table{
		Source: "SheetReader",
		Rows:   []models.RawRow{{"A", "5分", "", "15:00"}},
	}}

	var logs bytes.Buffer
	runner, path := newRunner(t, source.NewFallback(primary, secondary, zerolog.Nop()),
		models.Layout{MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 2}, &logs)
	runner.Layouts = map[string]models.Layout{
		"SheetReader": {MinCells: 2, NameIndex: 0, WaitIndex: 1, PostedIndex: 3},
	}

	res := runner.Run(context.Background())
	require.True(t, res.OK(), "run failed: %v", res.Err)
	require.Equal(t, []string{fixedStamp + ",A,5分,15:00"}, readLines(t, path))
}

type namedReader struct {
	name  string
	table *models.Table
}

func (n *namedReader) Name() string { return n.name }

func (n *namedReader) Read(ctx context.Context) (*models.Table, error) {
	return n.table, nil
}
