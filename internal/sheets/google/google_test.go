package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := credentials(Config{}); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}

	b, err := credentials(Config{ServiceAccountJSON: ` {"type":"service_account"} `, ServiceAccountFile: "/nope"})
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline JSON should win, got %q %v", b, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if b, err := credentials(Config{ServiceAccountFile: path}); err != nil || len(b) == 0 {
		t.Fatalf("file credentials: %q %v", b, err)
	}
	if _, err := credentials(Config{ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

func fakeSheets(t *testing.T) (*Client, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, ":clear") {
			_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1"}`)
			return
		}
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","updatedRange":"Expenses!A1:E2"}`)
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return NewWithService(svc, Config{SpreadsheetID: "sheet-1"}, nil), &calls
}

func TestMirrorExpensesClearsThenWrites(t *testing.T) {
	c, calls := fakeSheets(t)
	err := c.MirrorExpenses(context.Background(), []core.Expense{
		{ID: 7, Title: "Lunch", Category: "Food", Amount: core.Money{Cents: 1250}, Date: "2024-01-02"},
	})
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if len(*calls) != 2 {
		t.Fatalf("expected clear + update, got %d calls", len(*calls))
	}
	clear, update := (*calls)[0], (*calls)[1]
	if clear.method != http.MethodPost || !strings.HasSuffix(clear.path, ":clear") || !strings.Contains(clear.path, "Expenses") {
		t.Fatalf("unexpected clear call %+v", clear)
	}
	if update.method != http.MethodPut || !strings.Contains(update.path, "/v4/spreadsheets/sheet-1/values/") {
		t.Fatalf("unexpected update call %+v", update)
	}
	values, _ := update.body["values"].([]any)
	if len(values) != 2 {
		t.Fatalf("expected header + 1 row, got %v", update.body["values"])
	}
	row, _ := values[1].([]any)
	if len(row) != 5 || row[0] != "7" || row[3] != "12.50" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestMirrorWithoutService(t *testing.T) {
	c := &Client{}
	if err := c.MirrorIncome(context.Background(), nil); err == nil {
		t.Fatalf("expected error without service")
	}
}
