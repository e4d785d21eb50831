// Package storage persists ledger documents in a key-value store.
//
// Every ledger is one JSON document under a fixed key. Reads that fail to
// decode fall back to an empty ledger; see LoadList.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get when the key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Canonical keys. Every component reads and writes through these.
const (
	KeyExpenses   = "expenses"
	KeyIncome     = "incomeData"
	KeyBudgets    = "monthlyBudgets"
	KeyFXHistory  = "fx_history_v1"
	KeyLastSynced = "lastSynced"
)

// Store is a flat key-value document store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
