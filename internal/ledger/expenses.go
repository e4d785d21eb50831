package ledger

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// ExpenseStats is the header of the expense page.
type ExpenseStats struct {
	Total   core.Money `json:"total"`
	Average core.Money `json:"average"`
	Highest core.Money `json:"highest"`
	Count   int        `json:"count"`
}

// Expense sort orders.
const (
	SortAmountDesc = "amountDesc"
	SortAmountAsc  = "amountAsc"
	SortDateDesc   = "dateDesc"
	SortDateAsc    = "dateAsc"
)

// Expense period filters.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// ComputeExpenseStats returns zeros for an empty list.
func ComputeExpenseStats(expenses []core.Expense) ExpenseStats {
	var st ExpenseStats
	for i, e := range expenses {
		st.Total = st.Total.Add(e.Amount)
		if i == 0 || e.Amount.Cents > st.Highest.Cents {
			st.Highest = e.Amount
		}
	}
	st.Count = len(expenses)
	if st.Count > 0 {
		st.Average = core.MoneyFromMajor(st.Total.Major().Div(decimalInt(st.Count)))
	}
	return st
}

func FilterExpensesByCategory(expenses []core.Expense, category string) []core.Expense {
	if category == "" || category == AllCategories {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// FilterExpensesByPeriod keeps expenses dated today, within the last 7 days
// or in the current calendar month, relative to now. Unknown periods and ""
// keep everything; malformed dates never match a period.
func FilterExpensesByPeriod(expenses []core.Expense, period string, now time.Time) []core.Expense {
	today := truncateDay(now)
	var match func(time.Time) bool
	switch period {
	case PeriodToday:
		match = func(d time.Time) bool { return d.Equal(today) }
	case PeriodWeek:
		from := today.AddDate(0, 0, -7)
		match = func(d time.Time) bool { return !d.Before(from) && !d.After(today) }
	case PeriodMonth:
		m := core.MonthOf(now)
		match = func(d time.Time) bool { return core.MonthOf(d) == m }
	default:
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if d, ok := core.ParseDay(e.Date); ok && match(d) {
			out = append(out, e)
		}
	}
	return out
}

// SortExpenses returns a sorted copy. The sort is stable; date orders put
// malformed dates last.
func SortExpenses(expenses []core.Expense, order string) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	switch order {
	case SortAmountDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	case SortAmountAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents < out[j].Amount.Cents })
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return DateAfter(out[i].Date, out[j].Date) })
	case SortDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return dateBefore(out[i].Date, out[j].Date) })
	}
	return out
}

// ExpenseCategories lists distinct categories in first-seen order.
func ExpenseCategories(expenses []core.Expense) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range expenses {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// GroupExpensesByCategory totals expenses per category in first-seen order.
func GroupExpensesByCategory(expenses []core.Expense) []core.LabeledAmount {
	return groupBy(expenses, func(e core.Expense) string { return e.Category })
}

func groupBy[T Record](records []T, label func(T) string) []core.LabeledAmount {
	index := make(map[string]int)
	var out []core.LabeledAmount
	for _, r := range records {
		l := label(r)
		i, ok := index[l]
		if !ok {
			i = len(out)
			index[l] = i
			out = append(out, core.LabeledAmount{Label: l})
		}
		out[i].Amount = out[i].Amount.Add(r.RecordAmount())
	}
	return out
}

// DateAfter orders stored dates newest first; malformed dates sort after valid ones.
func DateAfter(a, b string) bool {
	da, okA := core.ParseDay(a)
	db, okB := core.ParseDay(b)
	switch {
	case okA && okB:
		return da.After(db)
	default:
		return okA && !okB
	}
}

func dateBefore(a, b string) bool {
	da, okA := core.ParseDay(a)
	db, okB := core.ParseDay(b)
	switch {
	case okA && okB:
		return da.Before(db)
	default:
		return okA && !okB
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
