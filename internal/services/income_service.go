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

type IncomeInput struct {
	ID     string
	Title  string
	Source string
	Amount string
	Date   string
}

// IncomeQuery selects the income page view. Month is "YYYY-MM" or "".
type IncomeQuery struct {
	Sort  string
	Month string
}

type IncomeView struct {
	Income  []core.Income              `json:"income"`
	Total   core.Money                 `json:"total"`
	Count   int                        `json:"count"`
	Sources []core.LabeledAmount       `json:"sources"`
	Month   *ledger.IncomeMonthSummary `json:"month,omitempty"`
}

type IncomeService struct {
	repo   *ledger.Repository[core.Income]
	logger *log.Logger
	now    func() time.Time
}

func NewIncomeService(repo *ledger.Repository[core.Income], logger *log.Logger) *IncomeService {
	if logger == nil {
		logger = log.Discard()
	}
	return &IncomeService{
		repo:   repo,
		logger: logger.WithComponent(log.ComponentIncome),
		now:    time.Now,
	}
}

func (s *IncomeService) Save(ctx context.Context, in IncomeInput) (core.Income, bool, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.Income{}, false, err
	}
	inc := core.Income{
		Title:  strings.TrimSpace(in.Title),
		Source: strings.TrimSpace(in.Source),
		Amount: amount,
		Date:   strings.TrimSpace(in.Date),
	}
	if err := inc.Validate(); err != nil {
		return core.Income{}, false, err
	}

	id, editing, err := parseID(in.ID)
	if err != nil {
		return core.Income{}, false, err
	}

	fields := func(op string) []any {
		return log.NewFields().
			WithOperation(op).
			WithRecord(ledger.Income, inc.RecordKey()).
			WithEntry(inc.Title, inc.Amount.String(), log.FieldSource, inc.Source).ToSlice()
	}

	if !editing {
		inc, err = s.repo.Append(ctx, func(existing []core.Income) core.Income {
			inc.ID = nextID(existing, s.now())
			return inc
		})
		if err != nil {
			return core.Income{}, false, fmt.Errorf("add income: %w", err)
		}
		s.logger.InfoContext(ctx, "Income added", fields(log.OpCreate)...)
		return inc, true, nil
	}

	inc.ID = id
	found, err := s.repo.Update(ctx, inc)
	if err != nil {
		return core.Income{}, false, fmt.Errorf("update income: %w", err)
	}
	if !found {
		return core.Income{}, false, fmt.Errorf("income %s: %w", inc.RecordKey(), core.ErrRecordNotFound)
	}
	s.logger.InfoContext(ctx, "Income updated", fields(log.OpUpdate)...)
	return inc, false, nil
}

func (s *IncomeService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete income: %w", err)
	}
	if removed {
		s.logger.InfoContext(ctx, "Income deleted", log.FieldRecordKey, id)
	}
	return removed, nil
}

// View sorts the whole ledger; the month summary is only built when q.Month is set.
func (s *IncomeService) View(ctx context.Context, q IncomeQuery) (IncomeView, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return IncomeView{}, err
	}
	v := IncomeView{
		Income:  ledger.SortIncome(all, q.Sort),
		Total:   ledger.Sum(all, nil),
		Count:   len(all),
		Sources: ledger.GroupIncomeBySource(all),
	}
	if strings.TrimSpace(q.Month) != "" {
		m, err := core.ParseMonth(q.Month)
		if err != nil {
			return IncomeView{}, &core.ValidationError{Field: "month", Err: err}
		}
		sum := ledger.SummarizeIncomeMonth(all, m)
		v.Month = &sum
	}
	return v, nil
}
