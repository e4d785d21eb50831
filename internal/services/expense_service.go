package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// ExpenseInput is an expense form submission. An empty ID adds a new record.
type ExpenseInput struct {
	ID       string
	Title    string
	Category string
	Amount   string
	Date     string
}

// ExpenseQuery selects the expense page view.
type ExpenseQuery struct {
	Sort     string
	Category string
	Period   string
}

// ExpenseView is the expense page: filtered rows plus whole-ledger stats.
type ExpenseView struct {
	Expenses   []core.Expense      `json:"expenses"`
	Stats      ledger.ExpenseStats `json:"stats"`
	Categories []string            `json:"categories"`
}

// ExpenseService validates expense input before it reaches the ledger.
type ExpenseService struct {
	repo   *ledger.Repository[core.Expense]
	logger *log.Logger
	now    func() time.Time
}

func NewExpenseService(repo *ledger.Repository[core.Expense], logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentExpense),
		now:    time.Now,
	}
}

// Save adds or edits an expense. Nothing is written unless the input is valid.
func (s *ExpenseService) Save(ctx context.Context, in ExpenseInput) (core.Expense, bool, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, false, err
	}
	e := core.Expense{
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
		Amount:   amount,
		Date:     strings.TrimSpace(in.Date),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, false, err
	}

	id, editing, err := parseID(in.ID)
	if err != nil {
		return core.Expense{}, false, err
	}

	if !editing {
		e, err = s.repo.Append(ctx, func(existing []core.Expense) core.Expense {
			e.ID = nextID(existing, s.now())
			return e
		})
		if err != nil {
			return core.Expense{}, false, fmt.Errorf("add expense: %w", err)
		}
		s.logger.InfoContext(ctx, "Expense added", log.NewFields().
			WithOperation(log.OpCreate).
			WithRecord(ledger.Expenses, e.RecordKey()).
			WithEntry(e.Title, e.Amount.String(), log.FieldCategory, e.Category).ToSlice()...)
		return e, true, nil
	}

	e.ID = id
	found, err := s.repo.Update(ctx, e)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("update expense: %w", err)
	}
	if !found {
		return core.Expense{}, false, fmt.Errorf("expense %s: %w", e.RecordKey(), core.ErrRecordNotFound)
	}
	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithRecord(ledger.Expenses, e.RecordKey()).
		WithEntry(e.Title, e.Amount.String(), log.FieldCategory, e.Category).ToSlice()...)
	return e, false, nil
}

// Delete removes an expense. Removing an unknown id is not an error.
func (s *ExpenseService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if removed {
		s.logger.InfoContext(ctx, "Expense deleted", log.FieldRecordKey, id)
	}
	return removed, nil
}

// View filters by category then period, sorts, and reports stats over the
// filtered rows.
func (s *ExpenseService) View(ctx context.Context, q ExpenseQuery) (ExpenseView, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return ExpenseView{}, err
	}
	rows := ledger.FilterExpensesByCategory(all, q.Category)
	rows = ledger.FilterExpensesByPeriod(rows, q.Period, s.now())
	rows = ledger.SortExpenses(rows, q.Sort)
	return ExpenseView{
		Expenses:   rows,
		Stats:      ledger.ComputeExpenseStats(rows),
		Categories: ledger.ExpenseCategories(all),
	}, nil
}
