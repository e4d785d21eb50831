package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Income sort orders.
const (
	SortIncomeDateDesc   = "date-desc"
	SortIncomeDateAsc    = "date-asc"
	SortIncomeAmountHigh = "amount-high"
	SortIncomeAmountLow  = "amount-low"
	SortIncomeSource     = "source"
)

// IncomeMonthSummary describes one month of income.
type IncomeMonthSummary struct {
	Month     core.Month `json:"month"`
	Total     core.Money `json:"total"`
	TopSource string     `json:"topSource"`
	TopAmount core.Money `json:"topAmount"`
	Count     int        `json:"count"`
}

// SortIncome returns a sorted copy; unknown orders keep stored order.
func SortIncome(income []core.Income, order string) []core.Income {
	out := make([]core.Income, len(income))
	copy(out, income)
	switch order {
	case SortIncomeDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return DateAfter(out[i].Date, out[j].Date) })
	case SortIncomeDateAsc:
		sort.SliceStable(out, func(i, j int) bool { return dateBefore(out[i].Date, out[j].Date) })
	case SortIncomeAmountHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	case SortIncomeAmountLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents < out[j].Amount.Cents })
	case SortIncomeSource:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Source) < strings.ToLower(out[j].Source)
		})
	}
	return out
}

// GroupIncomeBySource totals income per source in first-seen order.
func GroupIncomeBySource(income []core.Income) []core.LabeledAmount {
	return groupBy(income, func(i core.Income) string { return i.Source })
}

// SummarizeIncomeMonth totals the entries dated in m. The top source is the
// one with the largest total, first seen wins ties. An empty month reports "-".
func SummarizeIncomeMonth(income []core.Income, m core.Month) IncomeMonthSummary {
	sum := IncomeMonthSummary{Month: m, TopSource: "-"}
	var inMonth []core.Income
	for _, inc := range income {
		if m.Contains(inc.Date) {
			inMonth = append(inMonth, inc)
		}
	}
	if len(inMonth) == 0 {
		return sum
	}
	sum.Count = len(inMonth)
	sum.Total = Sum(inMonth, nil)
	for i, g := range GroupIncomeBySource(inMonth) {
		if i == 0 || g.Amount.Cents > sum.TopAmount.Cents {
			sum.TopSource = g.Label
			sum.TopAmount = g.Amount
		}
	}
	return sum
}

func decimalInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
