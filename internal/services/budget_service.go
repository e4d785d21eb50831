package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// BudgetInput sets the budget of one month ("YYYY-MM").
type BudgetInput struct {
	Month  string
	Amount string
}

// BudgetService keeps one budget per month and reconciles it against expenses.
type BudgetService struct {
	budgets  *ledger.Repository[core.Budget]
	expenses *ledger.Repository[core.Expense]
	logger   *log.Logger
}

func NewBudgetService(budgets *ledger.Repository[core.Budget], expenses *ledger.Repository[core.Expense], logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		budgets:  budgets,
		expenses: expenses,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// Set creates or replaces the budget of a month.
func (s *BudgetService) Set(ctx context.Context, in BudgetInput) (core.Budget, bool, error) {
	m, err := core.ParseMonth(in.Month)
	if err != nil {
		return core.Budget{}, false, &core.ValidationError{Field: "month", Err: err}
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Budget{}, false, err
	}
	b := core.Budget{Month: m, Amount: amount}
	if err := b.Validate(); err != nil {
		return core.Budget{}, false, err
	}

	created, err := s.budgets.Upsert(ctx, b)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("save budget: %w", err)
	}
	s.logger.InfoContext(ctx, "Budget saved",
		log.FieldMonth, m.String(),
		log.FieldAmount, amount.String(),
		"created", created)
	return b, created, nil
}

// Delete removes the budget of a month; a month without budget is a no-op.
func (s *BudgetService) Delete(ctx context.Context, month string) (bool, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return false, &core.ValidationError{Field: "month", Err: err}
	}
	removed, err := s.budgets.Delete(ctx, m.String())
	if err != nil {
		return false, fmt.Errorf("delete budget: %w", err)
	}
	if removed {
		s.logger.InfoContext(ctx, "Budget deleted", log.FieldMonth, m.String())
	}
	return removed, nil
}

// Statuses reconciles every budget against the expense ledger.
func (s *BudgetService) Statuses(ctx context.Context) ([]ledger.BudgetStatus, error) {
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.ReconcileBudgets(budgets, expenses), nil
}

// Status reconciles one month. A month without budget reports a zero budget.
func (s *BudgetService) Status(ctx context.Context, month string) (ledger.BudgetStatus, error) {
	m, err := core.ParseMonth(strings.TrimSpace(month))
	if err != nil {
		return ledger.BudgetStatus{}, &core.ValidationError{Field: "month", Err: err}
	}
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return ledger.BudgetStatus{}, err
	}
	expenses, err := s.expenses.List(ctx)
	if err != nil {
		return ledger.BudgetStatus{}, err
	}
	b, ok := ledger.BudgetFor(budgets, m)
	if !ok {
		b = core.Budget{Month: m}
	}
	return ledger.ReconcileBudget(b, expenses), nil
}
