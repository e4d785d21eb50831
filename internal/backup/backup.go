package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ErrMalformed wraps documents that cannot be decoded at all.
var ErrMalformed = errors.New("malformed backup")

// Store is the part of a ledger repository a backup reads and replaces.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Replace(ctx context.Context, records []T) error
}

// Ledgers groups everything a backup covers.
type Ledgers struct {
	Expenses Store[core.Expense]
	Income   Store[core.Income]
	Budgets  Store[core.Budget]
	History  Store[core.ConversionEntry]
}

// Summary counts what an import restored.
type Summary struct {
	Expenses int `json:"expenses"`
	Income   int `json:"income"`
	Budgets  int `json:"budgets"`
	History  int `json:"history"`
}

// Export renders every ledger and the conversion history in the given format.
func Export(ctx context.Context, l Ledgers, f Format) ([]byte, error) {
	c, err := codecFor(f)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if s.Expenses, err = l.Expenses.List(ctx); err != nil {
		return nil, fmt.Errorf("read expenses: %w", err)
	}
	if s.Income, err = l.Income.List(ctx); err != nil {
		return nil, fmt.Errorf("read income: %w", err)
	}
	if s.Budgets, err = l.Budgets.List(ctx); err != nil {
		return nil, fmt.Errorf("read budgets: %w", err)
	}
	if s.History, err = l.History.List(ctx); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return c.encode(newDocument(s, time.Now()))
}

// Import decodes data, validates every record and only then replaces the
// ledgers. A rejected document leaves all ledgers untouched.
func Import(ctx context.Context, l Ledgers, f Format, data []byte) (Summary, error) {
	c, err := codecFor(f)
	if err != nil {
		return Summary{}, err
	}
	doc, err := c.decode(data)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	s, err := doc.snapshot()
	if err != nil {
		return Summary{}, err
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentBackup)
	if err := l.Expenses.Replace(ctx, s.Expenses); err != nil {
		return Summary{}, fmt.Errorf("restore expenses: %w", err)
	}
	if err := l.Income.Replace(ctx, s.Income); err != nil {
		return Summary{}, fmt.Errorf("restore income: %w", err)
	}
	if err := l.Budgets.Replace(ctx, s.Budgets); err != nil {
		return Summary{}, fmt.Errorf("restore budgets: %w", err)
	}
	if err := l.History.Replace(ctx, s.History); err != nil {
		return Summary{}, fmt.Errorf("restore history: %w", err)
	}

	sum := Summary{
		Expenses: len(s.Expenses),
		Income:   len(s.Income),
		Budgets:  len(s.Budgets),
		History:  len(s.History),
	}
	logger.InfoContext(ctx, "Backup imported",
		log.FieldOperation, log.OpImport,
		"expenses", sum.Expenses,
		"income", sum.Income,
		"budgets", sum.Budgets,
		"history", sum.History)
	return sum, nil
}
