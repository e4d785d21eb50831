package ledger

import (
	"sort"

	"fintrack/internal/core"
)

// Budget status labels.
const (
	StatusExceeded    = "Exceeded"
	StatusWithinLimit = "Within Limit"
)

// BudgetStatus is one reconciled row of the budget table.
type BudgetStatus struct {
	Month       core.Month `json:"month"`
	Label       string     `json:"label"`
	Budget      core.Money `json:"budget"`
	Spent       core.Money `json:"spent"`
	Remaining   core.Money `json:"remaining"`
	PercentUsed int        `json:"percentUsed"`
	Status      string     `json:"status"`
}

// SpentInMonth totals expenses dated inside m. Malformed dates never count.
func SpentInMonth(expenses []core.Expense, m core.Month) core.Money {
	return Sum(expenses, func(e core.Expense) bool { return m.Contains(e.Date) })
}

// ReconcileBudget compares a month's budget with what was spent in it.
func ReconcileBudget(b core.Budget, expenses []core.Expense) BudgetStatus {
	spent := SpentInMonth(expenses, b.Month)
	remaining := b.Amount.Sub(spent)
	st := BudgetStatus{
		Month:       b.Month,
		Label:       b.Month.Label(),
		Budget:      b.Amount,
		Spent:       spent,
		Remaining:   remaining,
		PercentUsed: PercentUsed(spent, b.Amount),
		Status:      StatusWithinLimit,
	}
	if remaining.IsNegative() {
		st.Status = StatusExceeded
	}
	return st
}

// ReconcileBudgets reconciles every budget, oldest month first.
func ReconcileBudgets(budgets []core.Budget, expenses []core.Expense) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, ReconcileBudget(b, expenses))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// PercentUsed is round(spent/budget*100) capped at 100. A zero budget reads
// 0 when nothing was spent and 100 otherwise.
func PercentUsed(spent, budget core.Money) int {
	if budget.Cents <= 0 {
		if spent.Cents > 0 {
			return 100
		}
		return 0
	}
	if spent.Cents <= 0 {
		return 0
	}
	pct := (spent.Cents*100 + budget.Cents/2) / budget.Cents
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// BudgetFor finds the budget of m.
func BudgetFor(budgets []core.Budget, m core.Month) (core.Budget, bool) {
	for _, b := range budgets {
		if b.Month == m {
			return b, true
		}
	}
	return core.Budget{}, false
}
