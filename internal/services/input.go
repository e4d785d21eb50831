package services

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// parseAmount turns form input into Money, reporting bad input as a validation error.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	return core.Money{Cents: cents}, nil
}

// parseID reads an edit target; "" means a new record.
func parseID(s string) (core.RecordID, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	id, err := core.ParseRecordID(s)
	if err != nil {
		return 0, false, fmt.Errorf("id %q: %w", s, core.ErrRecordNotFound)
	}
	return id, true, nil
}

// nextID picks a timestamp id not used by any existing record.
func nextID[T ledger.Record](existing []T, now time.Time) core.RecordID {
	taken := make(map[string]bool, len(existing))
	for _, rec := range existing {
		taken[rec.RecordKey()] = true
	}
	return core.NewRecordID(now, func(id core.RecordID) bool { return taken[id.String()] })
}
