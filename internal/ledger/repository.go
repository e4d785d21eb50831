// Package ledger holds the expense, income and budget ledgers and the pure
// views computed over them.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Ledger names carried on Change and on the wire.
const (
	Expenses = "expenses"
	Income   = "income"
	Budgets  = "budgets"
)

// Op is the kind of write a Change reports.
type Op string

const (
	OpUpsert  Op = "upsert"
	OpDelete  Op = "delete"
	OpReplace Op = "replace"
)

// Change describes one committed ledger write.
type Change struct {
	Ledger string    `json:"ledger"`
	Op     Op        `json:"op"`
	Key    string    `json:"key,omitempty"`
	At     time.Time `json:"at"`
}

// Observer is told about every committed write, after the store accepted it.
type Observer interface {
	LedgerChanged(ctx context.Context, c Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, c Change)

func (f ObserverFunc) LedgerChanged(ctx context.Context, c Change) { f(ctx, c) }

// Record is anything a Repository can keep.
type Record interface {
	RecordKey() string
	RecordAmount() core.Money
}

// Repository is one ledger persisted as a single list document.
// Writes are read-modify-write under one mutex, so concurrent writers on the
// same process never lose each other's records.
type Repository[T Record] struct {
	name  string
	key   string
	store storage.Store
	now   func() time.Time

	mu sync.Mutex

	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

func NewRepository[T Record](name, key string, store storage.Store) *Repository[T] {
	return &Repository[T]{
		name:      name,
		key:       key,
		store:     store,
		now:       time.Now,
		observers: make(map[int]Observer),
	}
}

func NewExpenseRepository(s storage.Store) *Repository[core.Expense] {
	return NewRepository[core.Expense](Expenses, storage.KeyExpenses, s)
}

func NewIncomeRepository(s storage.Store) *Repository[core.Income] {
	return NewRepository[core.Income](Income, storage.KeyIncome, s)
}

func NewBudgetRepository(s storage.Store) *Repository[core.Budget] {
	return NewRepository[core.Budget](Budgets, storage.KeyBudgets, s)
}

// Name is the ledger name used on Change.
func (r *Repository[T]) Name() string { return r.name }

// List returns the ledger in stored order. A damaged document reads as empty.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	return storage.LoadList[T](ctx, r.store, r.key)
}

func (r *Repository[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	items, err := r.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if it.RecordKey() == key {
			return it, true, nil
		}
	}
	return zero, false, nil
}

// Upsert replaces the record with the same key in place, or appends it.
// It reports whether the record was new.
func (r *Repository[T]) Upsert(ctx context.Context, rec T) (bool, error) {
	created := true
	err := r.mutate(ctx, OpUpsert, rec.RecordKey(), func(items []T) ([]T, bool) {
		for i := range items {
			if items[i].RecordKey() == rec.RecordKey() {
				items[i] = rec
				created = false
				return items, true
			}
		}
		return append(items, rec), true
	})
	return created, err
}

// Update replaces the record with the same key in place. The existence check
// and the write happen under one lock, so an absent key is never recreated;
// it reports false and writes nothing.
func (r *Repository[T]) Update(ctx context.Context, rec T) (bool, error) {
	found := false
	err := r.mutate(ctx, OpUpsert, rec.RecordKey(), func(items []T) ([]T, bool) {
		for i := range items {
			if items[i].RecordKey() == rec.RecordKey() {
				items[i] = rec
				found = true
				return items, true
			}
		}
		return items, false
	})
	return found, err
}

// Append builds a new record from the current contents and appends it, all
// under the write lock. build typically picks a free id.
func (r *Repository[T]) Append(ctx context.Context, build func(existing []T) T) (T, error) {
	var rec T
	err := r.mutateKeyed(ctx, OpUpsert, func(items []T) ([]T, string, bool) {
		rec = build(items)
		return append(items, rec), rec.RecordKey(), true
	})
	return rec, err
}

// Delete removes the record with key. Deleting an absent key is a no-op that
// neither writes nor notifies.
func (r *Repository[T]) Delete(ctx context.Context, key string) (bool, error) {
	removed := false
	err := r.mutate(ctx, OpDelete, key, func(items []T) ([]T, bool) {
		out := items[:0]
		for _, it := range items {
			if it.RecordKey() == key {
				removed = true
				continue
			}
			out = append(out, it)
		}
		return out, removed
	})
	return removed, err
}

// Replace swaps the whole ledger, used by restores.
func (r *Repository[T]) Replace(ctx context.Context, records []T) error {
	return r.mutate(ctx, OpReplace, "", func([]T) ([]T, bool) {
		out := make([]T, len(records))
		copy(out, records)
		return out, true
	})
}

// TotalFor sums the amounts of records matching pred; nil matches all.
func (r *Repository[T]) TotalFor(ctx context.Context, pred func(T) bool) (core.Money, error) {
	items, err := r.List(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return Sum(items, pred), nil
}

// Subscribe registers o and returns a func that removes it.
func (r *Repository[T]) Subscribe(o Observer) func() {
	r.obsMu.Lock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = o
	r.obsMu.Unlock()
	return func() {
		r.obsMu.Lock()
		delete(r.observers, id)
		r.obsMu.Unlock()
	}
}

func (r *Repository[T]) mutate(ctx context.Context, op Op, key string, fn func([]T) ([]T, bool)) error {
	return r.mutateKeyed(ctx, op, func(items []T) ([]T, string, bool) {
		out, changed := fn(items)
		return out, key, changed
	})
}

func (r *Repository[T]) mutateKeyed(ctx context.Context, op Op, fn func([]T) ([]T, string, bool)) error {
	r.mu.Lock()
	items, err := r.List(ctx)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	out, key, changed := fn(items)
	if !changed {
		r.mu.Unlock()
		return nil
	}
	if err := storage.SaveList(ctx, r.store, r.key, out); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("save %s: %w", r.name, err)
	}
	r.mu.Unlock()

	r.notify(ctx, Change{Ledger: r.name, Op: op, Key: key, At: r.now()})
	return nil
}

func (r *Repository[T]) notify(ctx context.Context, c Change) {
	r.obsMu.RLock()
	obs := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		obs = append(obs, o)
	}
	r.obsMu.RUnlock()
	for _, o := range obs {
		o.LedgerChanged(ctx, c)
	}
}

// Sum adds up the amounts of records matching pred; nil matches all.
func Sum[T Record](records []T, pred func(T) bool) core.Money {
	var total core.Money
	for _, rec := range records {
		if pred == nil || pred(rec) {
			total = total.Add(rec.RecordAmount())
		}
	}
	return total
}
