// internal/source/static/reader_test.go
package static

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/expowait/internal/ratelimit"
	"github.com/law-makers/expowait/internal/source"
	"github.com/rs/zerolog"
)

const waitTable = `<!DOCTYPE html>
<html>
<head><title>パビリオン待ち時間</title></head>
<body>
	<div class="table-responsive">
		<table class="table">
			<thead><tr><th>名前</th><th>待ち時間</th><th>投稿</th></tr></thead>
			<tbody>
				<tr><td>  Space
					Mountain </td><td>30分</td><td>15:02</td></tr>
				<tr><td>It's a Small World</td><td>なし</td><td>—</td></tr>
				<tr><td>lonely cell</td></tr>
			</tbody>
		</table>
	</div>
</body>
</html>`

func newTestReader(url string) *Reader {
	return New(Options{
		URL:         url,
		RowSelector: "div.table-responsive tbody tr",
		UserAgent:   "TestReader/1.0",
		Headers:     map[string]string{"X-Custom-Header": "TestValue"},
	}, &http.Client{Timeout: 5 * time.Second}, ratelimit.NewHostLimiter(100, 10), zerolog.Nop())
}

func TestReader_Read_Table(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(waitTable))
	}))
	defer server.Close()

	table, err := newTestReader(server.URL).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(table.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(table.Rows))
	}
	if table.Rows[1][1] != "なし" {
		t.Errorf("Expected wait 'なし', got '%s'", table.Rows[1][1])
	}
	if len(table.Rows[2]) != 1 {
		t.Errorf("Expected the short row to be returned with 1 cell, got %d", len(table.Rows[2]))
	}
	// Cell text is verbatim; normalisation happens later
	if table.Rows[0][0] == "Space Mountain" {
		t.Error("Expected raw whitespace to be preserved in cell text")
	}
}

func TestReader_Read_SendsHeaders(t *testing.T) {
	var gotUA, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom-Header")
		w.Write([]byte(waitTable))
	}))
	defer server.Close()

	if _, err := newTestReader(server.URL).Read(context.Background()); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if gotUA != "TestReader/1.0" {
		t.Errorf("Expected User-Agent 'TestReader/1.0', got '%s'", gotUA)
	}
	if gotCustom != "TestValue" {
		t.Errorf("Expected custom header 'TestValue', got '%s'", gotCustom)
	}
}

func TestReader_Read_ShiftJIS(t *testing.T) {
	// "待ち" encoded as Shift_JIS
	body := append([]byte(`<html><body><div class="table-responsive"><table><tbody><tr><td>A</td><td>`),
		0x91, 0xd2, 0x82, 0xbf)
	body = append(body, []byte(`</td></tr></tbody></table></div></body></html>`)...)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		w.Write(body)
	}))
	defer server.Close()

	table, err := newTestReader(server.URL).Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0][1] != "待ち" {
		t.Errorf("Expected decoded cell '待ち', got %v", table.Rows)
	}
}

func TestReader_Read_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestReader(server.URL).Read(context.Background())
	if !errors.Is(err, source.ErrNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}

	var se *source.Error
	if errors.As(err, &se) && se.Details["status_code"] != http.StatusServiceUnavailable {
		t.Errorf("Expected status_code detail 503, got %v", se.Details["status_code"])
	}
}

func TestReader_Read_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(waitTable))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestReader(server.URL).Read(ctx)
	if !errors.Is(err, source.ErrTimeout) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestReader_Name(t *testing.T) {
	if name := newTestReader("http://example.com").Name(); name != "StaticReader" {
		t.Errorf("Expected name 'StaticReader', got '%s'", name)
	}
}
