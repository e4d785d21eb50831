// Package memory is an in-process ledger mirror for development and tests.
package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	ports "fintrack/internal/sheets"
)

// Mirror keeps the rows of the last mirror call per tab.
type Mirror struct {
	mu    sync.Mutex
	tabs  map[string][][]string
	calls map[string]int
}

var _ ports.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{tabs: make(map[string][][]string), calls: make(map[string]int)}
}

func (m *Mirror) MirrorExpenses(_ context.Context, expenses []core.Expense) error {
	m.store(ledger.Expenses, ports.ExpenseRows(expenses))
	return nil
}

func (m *Mirror) MirrorIncome(_ context.Context, income []core.Income) error {
	m.store(ledger.Income, ports.IncomeRows(income))
	return nil
}

func (m *Mirror) MirrorBudgets(_ context.Context, rows []ledger.BudgetStatus) error {
	m.store(ledger.Budgets, ports.BudgetRows(rows))
	return nil
}

// Rows returns a copy of the last rows mirrored for a ledger, header included.
func (m *Mirror) Rows(ledgerName string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.tabs[ledgerName]
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Calls reports how many times a ledger was mirrored.
func (m *Mirror) Calls(ledgerName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[ledgerName]
}

func (m *Mirror) store(name string, rows [][]string) {
	m.mu.Lock()
	m.tabs[name] = rows
	m.calls[name]++
	m.mu.Unlock()
}
