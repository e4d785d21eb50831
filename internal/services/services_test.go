package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

func newExpenseService(t *testing.T) (*ExpenseService, *ledger.Repository[core.Expense]) {
	t.Helper()
	repo := ledger.NewExpenseRepository(storage.NewMemoryStore())
	svc := NewExpenseService(repo, nil)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestExpenseService_SaveValidation(t *testing.T) {
	svc, repo := newExpenseService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ExpenseInput
		want  error
	}{
		{"empty title", ExpenseInput{Title: " ", Category: "Food", Amount: "10", Date: "2024-01-01"}, core.ErrEmptyTitle},
		{"zero amount", ExpenseInput{Title: "a", Category: "Food", Amount: "0", Date: "2024-01-01"}, core.ErrInvalidAmount},
		{"negative amount", ExpenseInput{Title: "a", Category: "Food", Amount: "-5", Date: "2024-01-01"}, core.ErrInvalidAmount},
		{"missing category", ExpenseInput{Title: "a", Amount: "5", Date: "2024-01-01"}, core.ErrEmptyCategory},
		{"bad date", ExpenseInput{Title: "a", Category: "Food", Amount: "5", Date: "yesterday"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Save(ctx, tt.input)
			if !core.IsValidation(err) || !errors.Is(err, tt.want) {
				t.Fatalf("expected validation error %v, got %v", tt.want, err)
			}
		})
	}

	list, _ := repo.List(ctx)
	if len(list) != 0 {
		t.Fatalf("rejected input must not write, found %d records", len(list))
	}
}

func TestExpenseService_AddEditDelete(t *testing.T) {
	svc, repo := newExpenseService(t)
	ctx := context.Background()

	e, created, err := svc.Save(ctx, ExpenseInput{Title: "Lunch", Category: "Food", Amount: "12,50", Date: "2024-01-10"})
	if err != nil || !created {
		t.Fatalf("add: created=%v err=%v", created, err)
	}
	if e.ID != core.RecordID(svc.now().UnixMilli()) || e.Amount.Cents != 1250 {
		t.Fatalf("unexpected expense %+v", e)
	}

	second, _, err := svc.Save(ctx, ExpenseInput{Title: "Coffee", Category: "Food", Amount: "3", Date: "2024-01-10"})
	if err != nil || second.ID == e.ID {
		t.Fatalf("second add must get a distinct id: %+v %v", second, err)
	}

	edited, created, err := svc.Save(ctx, ExpenseInput{ID: e.ID.String(), Title: "Dinner", Category: "Food", Amount: "20", Date: "2024-01-10"})
	if err != nil || created || edited.ID != e.ID {
		t.Fatalf("edit: %+v created=%v err=%v", edited, created, err)
	}
	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].Title != "Dinner" {
		t.Fatalf("edit must replace in place: %+v", list)
	}

	if _, _, err := svc.Save(ctx, ExpenseInput{ID: "999", Title: "x", Category: "y", Amount: "1", Date: "2024-01-10"}); !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("editing unknown id should be not found, got %v", err)
	}

	removed, err := svc.Delete(ctx, e.ID.String())
	if err != nil || !removed {
		t.Fatalf("delete: %v %v", removed, err)
	}
	removed, err = svc.Delete(ctx, e.ID.String())
	if err != nil || removed {
		t.Fatalf("second delete should be a no-op: %v %v", removed, err)
	}

	if _, _, err := svc.Save(ctx, ExpenseInput{ID: e.ID.String(), Title: "Late edit", Category: "Food", Amount: "5", Date: "2024-01-10"}); !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("editing a deleted expense should be not found, got %v", err)
	}
	if _, ok, _ := repo.Get(ctx, e.ID.String()); ok {
		t.Fatalf("editing a deleted expense must not recreate it")
	}
}

func TestExpenseService_View(t *testing.T) {
	svc, _ := newExpenseService(t)
	ctx := context.Background()
	for _, in := range []ExpenseInput{
		{Title: "Rent", Category: "Home", Amount: "1000", Date: "2024-01-01"},
		{Title: "Lunch", Category: "Food", Amount: "10", Date: "2024-01-09"},
		{Title: "Old", Category: "Food", Amount: "30", Date: "2023-12-01"},
	} {
		if _, _, err := svc.Save(ctx, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	v, err := svc.View(ctx, ExpenseQuery{Category: "Food", Period: ledger.PeriodMonth, Sort: ledger.SortAmountDesc})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(v.Expenses) != 1 || v.Expenses[0].Title != "Lunch" || v.Stats.Total.Cents != 1000 {
		t.Fatalf("unexpected view %+v", v)
	}
	if len(v.Categories) != 2 {
		t.Fatalf("categories come from the whole ledger, got %v", v.Categories)
	}
}

func TestIncomeService(t *testing.T) {
	repo := ledger.NewIncomeRepository(storage.NewMemoryStore())
	svc := NewIncomeService(repo, nil)
	ctx := context.Background()

	if _, _, err := svc.Save(ctx, IncomeInput{Title: "Salary", Amount: "100", Date: "2024-02-01"}); !errors.Is(err, core.ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	if _, _, err := svc.Save(ctx, IncomeInput{Title: "Salary", Source: "Job", Amount: "5000", Date: "2024-02-01"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, err := svc.Save(ctx, IncomeInput{Title: "Gig", Source: "Freelance", Amount: "200", Date: "2024-02-15"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	v, err := svc.View(ctx, IncomeQuery{Sort: ledger.SortIncomeAmountLow, Month: "2024-02"})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if v.Count != 2 || v.Total.Cents != 520000 || v.Income[0].Title != "Gig" {
		t.Fatalf("unexpected view %+v", v)
	}
	if v.Month == nil || v.Month.TopSource != "Job" {
		t.Fatalf("unexpected month summary %+v", v.Month)
	}

	if _, err := svc.View(ctx, IncomeQuery{Month: "Feb"}); !core.IsValidation(err) {
		t.Fatalf("expected validation error for bad month, got %v", err)
	}

	if _, _, err := svc.Save(ctx, IncomeInput{ID: "424242", Title: "Bonus", Source: "Job", Amount: "10", Date: "2024-02-20"}); !errors.Is(err, core.ErrRecordNotFound) {
		t.Fatalf("editing unknown income should be not found, got %v", err)
	}
	if list, _ := repo.List(ctx); len(list) != 2 {
		t.Fatalf("missed edit must not add a record, got %d", len(list))
	}
}

func TestBudgetService(t *testing.T) {
	store := storage.NewMemoryStore()
	expenses := ledger.NewExpenseRepository(store)
	budgets := ledger.NewBudgetRepository(store)
	svc := NewBudgetService(budgets, expenses, nil)
	ctx := context.Background()

	if _, _, err := svc.Set(ctx, BudgetInput{Month: "2024-13", Amount: "10"}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, _, err := svc.Set(ctx, BudgetInput{Month: "2024-01", Amount: "0"}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, created, err := svc.Set(ctx, BudgetInput{Month: "2024-01", Amount: "4000"}); err != nil || !created {
		t.Fatalf("set: %v %v", created, err)
	}
	if _, created, err := svc.Set(ctx, BudgetInput{Month: "2024-01", Amount: "5000"}); err != nil || created {
		t.Fatalf("second set should replace: %v %v", created, err)
	}
	_, _ = expenses.Upsert(ctx, core.Expense{ID: 1, Title: "Rent", Category: "Home", Amount: core.Money{Cents: 300000}, Date: "2024-01-05"})

	rows, err := svc.Statuses(ctx)
	if err != nil || len(rows) != 1 {
		t.Fatalf("statuses: %v %v", rows, err)
	}
	if rows[0].Remaining.Cents != 200000 || rows[0].Status != ledger.StatusWithinLimit {
		t.Fatalf("unexpected status %+v", rows[0])
	}

	st, err := svc.Status(ctx, "2024-03")
	if err != nil || st.PercentUsed != 0 || !st.Budget.IsZero() {
		t.Fatalf("month without budget: %+v %v", st, err)
	}

	if removed, err := svc.Delete(ctx, "2024-01"); err != nil || !removed {
		t.Fatalf("delete: %v %v", removed, err)
	}
}
