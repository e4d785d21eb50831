package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// LoadList reads the JSON array stored under key. An absent key, an empty
// document or one that is not an array yields an empty list and no error.
// Records that do not decode are skipped one by one so the rest of the
// ledger survives; only store failures are returned.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []T{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.WarnContext(ctx, "Discarding undecodable ledger document",
			"component", "storage", "store_key", key, "error", err)
		return []T{}, nil
	}
	out := make([]T, 0, len(records))
	for i, rec := range records {
		if string(rec) == "null" {
			continue
		}
		var v T
		if err := json.Unmarshal(rec, &v); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable ledger record",
				"component", "storage", "store_key", key, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// SaveList writes items as a JSON array under key. A nil slice is stored as [].
func SaveList[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}

// LoadNumber reads an integer stored as text. Missing or malformed values read as 0.
func LoadNumber(ctx context.Context, s Store, key string) (int64, error) {
	raw, err := LoadString(ctx, s, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func SaveNumber(ctx context.Context, s Store, key string, n int64) error {
	return s.Put(ctx, key, []byte(strconv.FormatInt(n, 10)))
}

// LoadString reads a raw string value; a missing key reads as "".
func LoadString(ctx context.Context, s Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return string(raw), nil
}

func SaveString(ctx context.Context, s Store, key, value string) error {
	return s.Put(ctx, key, []byte(value))
}
