package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func setup(t *testing.T) (*MirrorWorker, *memory.Mirror, *ledger.Repository[core.Expense], *ledger.Repository[core.Budget]) {
	t.Helper()
	store := storage.NewMemoryStore()
	exp := ledger.NewExpenseRepository(store)
	inc := ledger.NewIncomeRepository(store)
	bud := ledger.NewBudgetRepository(store)
	m := memory.New()
	return NewMirrorWorker(exp, inc, bud, m, nil), m, exp, bud
}

func TestHandleLedgerChange(t *testing.T) {
	w, m, exp, bud := setup(t)
	ctx := context.Background()
	jan, _ := core.ParseMonth("2024-01")
	_, _ = bud.Upsert(ctx, core.Budget{Month: jan, Amount: core.Money{Cents: 10000}})
	_, _ = exp.Upsert(ctx, core.Expense{ID: 1, Title: "Rent", Category: "Home", Amount: core.Money{Cents: 15000}, Date: "2024-01-03"})

	if err := w.HandleLedgerChange(ctx, &amqp.LedgerChangedMessage{Ledger: ledger.Expenses, Op: ledger.OpUpsert, Key: "1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rows := m.Rows(ledger.Expenses); len(rows) != 2 || rows[1][1] != "Rent" {
		t.Fatalf("expenses not mirrored: %v", rows)
	}
	rows := m.Rows(ledger.Budgets)
	if len(rows) != 2 || rows[1][5] != ledger.StatusExceeded {
		t.Fatalf("expense change should refresh budgets: %v", rows)
	}
	if m.Calls(ledger.Income) != 0 {
		t.Fatalf("income should not be mirrored for an expense change")
	}

	if err := w.HandleLedgerChange(ctx, &amqp.LedgerChangedMessage{Ledger: "unknown"}); err != nil {
		t.Fatalf("unknown ledgers are ignored, got %v", err)
	}
}

func TestMirrorAll(t *testing.T) {
	w, m, _, _ := setup(t)
	if err := w.MirrorAll(context.Background()); err != nil {
		t.Fatalf("mirror all: %v", err)
	}
	for _, name := range []string{ledger.Expenses, ledger.Income, ledger.Budgets} {
		if m.Calls(name) != 1 {
			t.Fatalf("%s mirrored %d times", name, m.Calls(name))
		}
	}
}

type brokenLister struct{}

func (brokenLister) List(context.Context) ([]core.Income, error) {
	return nil, errors.New("read failed")
}

func TestMirrorErrorsAreWrapped(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewMirrorWorker(ledger.NewExpenseRepository(store), brokenLister{}, ledger.NewBudgetRepository(store), memory.New(), nil)
	err := w.MirrorLedger(context.Background(), ledger.Income)
	if err == nil || err.Error() != "mirror income: read failed" {
		t.Fatalf("unexpected error %v", err)
	}
}
