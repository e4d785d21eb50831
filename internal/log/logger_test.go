package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Handler: slog.NewTextHandler(&buf, nil)}).WithComponent(ComponentLedger)
	l.Info("hello", FieldLedger, "expenses")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "ledger=expenses") {
		t.Fatalf("unexpected log line %q", out)
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Handler: slog.NewTextHandler(&buf, nil)}))
	r := httptest.NewRequest("GET", "/api/expenses?sort=dateDesc", nil)

	sl.LogHTTPEnd(context.Background(), r, 502, 12, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("expected error level for 5xx, got %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpUpdate, nil)
	if !strings.Contains(buf.String(), "disk full") || !strings.Contains(buf.String(), "operation=update") {
		t.Fatalf("unexpected error line %q", buf.String())
	}
}
