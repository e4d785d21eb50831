package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func TestMirrorKeepsLastRows(t *testing.T) {
	m := New()
	ctx := context.Background()
	_ = m.MirrorExpenses(ctx, []core.Expense{{ID: 1, Title: "a", Category: "c", Amount: core.Money{Cents: 100}, Date: "2024-01-01"}})
	_ = m.MirrorExpenses(ctx, nil)

	rows := m.Rows(ledger.Expenses)
	if len(rows) != 1 || rows[0][0] != "ID" {
		t.Fatalf("expected only the header after mirroring an empty ledger, got %v", rows)
	}
	if m.Calls(ledger.Expenses) != 2 || m.Calls(ledger.Income) != 0 {
		t.Fatalf("unexpected call counts")
	}
}

func TestMirrorBudgets(t *testing.T) {
	m := New()
	mo, _ := core.ParseMonth("2024-02")
	st := ledger.ReconcileBudget(core.Budget{Month: mo, Amount: core.Money{Cents: 1000}}, nil)
	_ = m.MirrorBudgets(context.Background(), []ledger.BudgetStatus{st})

	rows := m.Rows(ledger.Budgets)
	if len(rows) != 2 || rows[1][0] != "2024-02" || rows[1][1] != "10.00" || rows[1][5] != ledger.StatusWithinLimit {
		t.Fatalf("unexpected budget rows %v", rows)
	}
}
