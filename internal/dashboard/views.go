package dashboard

import (
	"sort"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Activity kinds.
const (
	KindExpense = "Expense"
	KindIncome  = "Income"
)

// DefaultRecent is how many entries the activity feed shows.
const DefaultRecent = 5

// zeroBucketFloor keeps empty weekday bars visible.
const zeroBucketFloor = 5.0

// Totals are the headline figures of the dashboard.
type Totals struct {
	Month           core.Month `json:"month"`
	TotalIncome     core.Money `json:"totalIncome"`
	TotalExpense    core.Money `json:"totalExpense"`
	Balance         core.Money `json:"balance"`
	MonthBudget     core.Money `json:"monthBudget"`
	MonthSpent      core.Money `json:"monthSpent"`
	RemainingBudget core.Money `json:"remainingBudget"`
	Exceeded        bool       `json:"exceeded"`
}

// ActivityItem is one row of the merged activity feed.
type ActivityItem struct {
	Kind   string        `json:"type"`
	ID     core.RecordID `json:"id"`
	Title  string        `json:"title"`
	Label  string        `json:"label"`
	Amount core.Money    `json:"amount"`
	Date   string        `json:"date"`
}

// WeekdayBucket is the spend of one day of the week. Height is a percentage
// of the largest bucket.
type WeekdayBucket struct {
	Day    string     `json:"day"`
	Amount core.Money `json:"amount"`
	Height float64    `json:"height"`
}

// Trend holds two series aligned on Dates.
type Trend struct {
	Dates   []string     `json:"dates"`
	Expense []core.Money `json:"expense"`
	Income  []core.Money `json:"income"`
}

// ComputeTotals reconciles the ledgers for the month containing now. The
// remaining budget is measured against that month's spend only.
func ComputeTotals(expenses []core.Expense, income []core.Income, budgets []core.Budget, now time.Time) Totals {
	m := core.MonthOf(now)
	t := Totals{
		Month:        m,
		TotalIncome:  ledger.Sum(income, nil),
		TotalExpense: ledger.Sum(expenses, nil),
		MonthSpent:   ledger.SpentInMonth(expenses, m),
	}
	t.Balance = t.TotalIncome.Sub(t.TotalExpense)
	if b, ok := ledger.BudgetFor(budgets, m); ok {
		t.MonthBudget = b.Amount
	}
	t.RemainingBudget = t.MonthBudget.Sub(t.MonthSpent)
	t.Exceeded = t.RemainingBudget.IsNegative()
	return t
}

// RecentActivity merges both ledgers, newest date first, and keeps n rows.
// Equal dates keep ledger order with expenses ahead of income.
func RecentActivity(expenses []core.Expense, income []core.Income, n int) []ActivityItem {
	if n <= 0 {
		n = DefaultRecent
	}
	items := make([]ActivityItem, 0, len(expenses)+len(income))
	for _, e := range expenses {
		items = append(items, ActivityItem{Kind: KindExpense, ID: e.ID, Title: e.Title, Label: e.Category, Amount: e.Amount, Date: e.Date})
	}
	for _, i := range income {
		items = append(items, ActivityItem{Kind: KindIncome, ID: i.ID, Title: i.Title, Label: i.Source, Amount: i.Amount, Date: i.Date})
	}
	sort.SliceStable(items, func(a, b int) bool { return ledger.DateAfter(items[a].Date, items[b].Date) })
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// WeeklyBuckets sums expenses by day of the week, Sunday first. Expenses with
// malformed dates are skipped.
func WeeklyBuckets(expenses []core.Expense) [7]WeekdayBucket {
	var out [7]WeekdayBucket
	for d := range out {
		out[d].Day = time.Weekday(d).String()[:3]
	}
	for _, e := range expenses {
		day, ok := core.ParseDay(e.Date)
		if !ok {
			continue
		}
		wd := day.Weekday()
		out[wd].Amount = out[wd].Amount.Add(e.Amount)
	}

	// max is at least one major unit so an empty week never divides by zero
	maxCents := int64(100)
	for _, b := range out {
		if b.Amount.Cents > maxCents {
			maxCents = b.Amount.Cents
		}
	}
	for d := range out {
		if out[d].Amount.Cents <= 0 {
			out[d].Height = zeroBucketFloor
			continue
		}
		out[d].Height = float64(out[d].Amount.Cents) / float64(maxCents) * 100
	}
	return out
}

// MonthlyTrend groups both ledgers by calendar day over the sorted union of
// dates, zero filling the side without data on a day.
func MonthlyTrend(expenses []core.Expense, income []core.Income) Trend {
	exp := make(map[string]core.Money)
	inc := make(map[string]core.Money)
	days := make(map[string]bool)
	for _, e := range expenses {
		if k := core.DayKey(e.Date); k != "" {
			exp[k] = exp[k].Add(e.Amount)
			days[k] = true
		}
	}
	for _, i := range income {
		if k := core.DayKey(i.Date); k != "" {
			inc[k] = inc[k].Add(i.Amount)
			days[k] = true
		}
	}

	t := Trend{
		Dates:   make([]string, 0, len(days)),
		Expense: make([]core.Money, 0, len(days)),
		Income:  make([]core.Money, 0, len(days)),
	}
	for k := range days {
		t.Dates = append(t.Dates, k)
	}
	sort.Strings(t.Dates)
	for _, k := range t.Dates {
		t.Expense = append(t.Expense, exp[k])
		t.Income = append(t.Income, inc[k])
	}
	return t
}

// Greeting picks the salutation for the hour of day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good Morning!"
	case hour >= 12 && hour < 17:
		return "Good Afternoon!"
	case hour >= 17 && hour < 21:
		return "Good Evening!"
	default:
		return "Good Night!"
	}
}
