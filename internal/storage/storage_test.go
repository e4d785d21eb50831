package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{"memory": NewMemoryStore(), "sqlite": sq}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := s.Put(ctx, "a", []byte("1")); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "a", []byte("2")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, err := s.Get(ctx, "a")
			if err != nil || string(v) != "2" {
				t.Fatalf("get: %q %v", v, err)
			}
			if err := s.Put(ctx, "b", []byte("x")); err != nil {
				t.Fatalf("put: %v", err)
			}
			keys, err := s.Keys(ctx)
			if err != nil || len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
				t.Fatalf("keys: %v %v", keys, err)
			}
			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestLoadListRecoversFromBadDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cases := map[string]string{
		"absent":    "",
		"empty":     "   ",
		"truncated": `[{"id":1,"name":"a"`,
		"object":    `{"id":1}`,
		"null":      `null`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_ = s.Delete(ctx, KeyExpenses)
			if name != "absent" {
				_ = s.Put(ctx, KeyExpenses, []byte(doc))
			}
			got, err := LoadList[item](ctx, s, KeyExpenses)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil list, got %#v", got)
			}
		})
	}
}

func TestLoadListSkipsOnlyBadRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Put(ctx, KeyExpenses, []byte(`[{"id":1,"name":"a"},{"id":2,"name":5},null,{"id":"x"},{"id":3,"name":"c"}]`))

	got, err := LoadList[item](ctx, s, KeyExpenses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("expected records 1 and 3, got %#v", got)
	}
}

func TestSaveAndLoadList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	if err := SaveList(ctx, s, KeyIncome, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadList[item](ctx, s, KeyIncome)
	if err != nil || len(out) != 2 || out[1].Name != "b" {
		t.Fatalf("load: %#v %v", out, err)
	}

	if err := SaveList[item](ctx, s, KeyBudgets, nil); err != nil {
		t.Fatalf("save nil: %v", err)
	}
	raw, _ := s.Get(ctx, KeyBudgets)
	if string(raw) != "[]" {
		t.Fatalf("nil list should persist as [], got %q", raw)
	}
}

func TestNumbersDefaultToZero(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if n, err := LoadNumber(ctx, s, KeyLastSynced); err != nil || n != 0 {
		t.Fatalf("expected 0, got %d %v", n, err)
	}
	_ = s.Put(ctx, KeyLastSynced, []byte("not-a-number"))
	if n, _ := LoadNumber(ctx, s, KeyLastSynced); n != 0 {
		t.Fatalf("expected 0 for malformed number, got %d", n)
	}
	if err := SaveNumber(ctx, s, KeyLastSynced, 1700000000000); err != nil {
		t.Fatalf("save: %v", err)
	}
	if n, _ := LoadNumber(ctx, s, KeyLastSynced); n != 1700000000000 {
		t.Fatalf("unexpected number %d", n)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if _, _, err := Open(ctx, Config{Type: "sheets"}, nil); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
	if _, _, err := Open(ctx, Config{Type: SQLiteBackend}, nil); err == nil {
		t.Fatalf("expected error for missing sqlite path")
	}
	s, cleanup, err := Open(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "x", "db.sqlite")}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer cleanup()
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
}
