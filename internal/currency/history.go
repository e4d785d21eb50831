package currency

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// HistoryLimit is how many conversions the history keeps.
const HistoryLimit = 10

// History is the newest-first list of recent conversions.
type History struct {
	store storage.Store
	mu    sync.Mutex
}

func NewHistory(store storage.Store) *History {
	return &History{store: store}
}

func (h *History) List(ctx context.Context) ([]core.ConversionEntry, error) {
	return storage.LoadList[core.ConversionEntry](ctx, h.store, storage.KeyFXHistory)
}

// Add puts e first and drops whatever falls beyond HistoryLimit. The id is
// derived from e.When and bumped until no kept entry uses it.
func (h *History) Add(ctx context.Context, e core.ConversionEntry) (core.ConversionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.List(ctx)
	if err != nil {
		return e, err
	}
	taken := make(map[core.RecordID]bool, len(entries))
	for _, old := range entries {
		taken[old.ID] = true
	}
	e.ID = core.NewRecordID(e.When, func(id core.RecordID) bool { return taken[id] })
	entries = append([]core.ConversionEntry{e}, entries...)
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}
	if err := storage.SaveList(ctx, h.store, storage.KeyFXHistory, entries); err != nil {
		return e, fmt.Errorf("save conversion history: %w", err)
	}
	return e, nil
}

// Delete removes one entry; an unknown id is a no-op.
func (h *History) Delete(ctx context.Context, id core.RecordID) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.List(ctx)
	if err != nil {
		return false, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	if err := storage.SaveList(ctx, h.store, storage.KeyFXHistory, kept); err != nil {
		return false, fmt.Errorf("save conversion history: %w", err)
	}
	return true, nil
}

func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return storage.SaveList(ctx, h.store, storage.KeyFXHistory, []core.ConversionEntry{})
}

// Replace overwrites the history, newest first, trimmed to HistoryLimit.
func (h *History) Replace(ctx context.Context, entries []core.ConversionEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(entries) > HistoryLimit {
		entries = entries[:HistoryLimit]
	}
	return storage.SaveList(ctx, h.store, storage.KeyFXHistory, entries)
}
