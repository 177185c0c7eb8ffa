package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/expowait/internal/ui"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body><div class="table-responsive"><table class="table"><tbody>
<tr><td>Italy Pavilion</td><td>120分</td><td>15:02</td></tr>
<tr><td>Japan Pavilion</td><td>45分</td><td>15:01</td></tr>
<tr><td>broken row</td></tr>
</tbody></table></div></body></html>`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := ui.Enabled
	ui.Enabled = false
	t.Cleanup(func() { ui.Enabled = prev })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRun_AppendsRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingPage))
	}))
	defer server.Close()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "wait_times.csv")
	metricsPath := filepath.Join(dir, "expowait.prom")

	out, err := execute(t, "run", "--json", "--url", server.URL, "-o", csvPath, "--metrics-file", metricsPath)
	require.NoError(t, err)
	require.Contains(t, out, "appended 2 rows")

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasSuffix(lines[0], ",Italy Pavilion,120分,15:02"), lines[0])

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(prom), "expowait_rows_appended_total 2")
}

func TestRun_FailureStillExitsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	csvPath := filepath.Join(t.TempDir(), "wait_times.csv")
	out, err := execute(t, "run", "--json", "--url", server.URL, "-o", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "NETWORK_ERROR")

	_, statErr := os.Stat(csvPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := execute(t, "run", "--source", "carrier-pigeon")
	require.Error(t, err)
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	require.Contains(t, out, "EXPOWAIT")
	require.Contains(t, out, "Commands")
	require.Contains(t, out, "columns")
	require.Contains(t, out, "--source")
}

func TestPrintColumns(t *testing.T) {
	prev := ui.Enabled
	ui.Enabled = false
	defer func() { ui.Enabled = prev }()

	var buf bytes.Buffer
	printColumns(&buf, []string{"パビリオン", "待ち時間", "", "更新"})
	require.Equal(t, "0: パビリオン\n1: 待ち時間\n2: (no label)\n3: 更新\n", buf.String())
}
