// Package sheets mirrors the ledgers into a spreadsheet, one tab per ledger.
package sheets

import (
	"context"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// LedgerMirror rewrites a whole tab from the current ledger contents.
type LedgerMirror interface {
	MirrorExpenses(ctx context.Context, expenses []core.Expense) error
	MirrorIncome(ctx context.Context, income []core.Income) error
	MirrorBudgets(ctx context.Context, rows []ledger.BudgetStatus) error
}

// Header rows of the mirrored tabs.
var (
	ExpenseHeader = []string{"ID", "Title", "Category", "Amount", "Date"}
	IncomeHeader  = []string{"ID", "Title", "Source", "Amount", "Date"}
	BudgetHeader  = []string{"Month", "Budget", "Spent", "Remaining", "Used %", "Status"}
)

// ExpenseRows renders expenses as header plus one row each.
func ExpenseRows(expenses []core.Expense) [][]string {
	rows := make([][]string, 0, len(expenses)+1)
	rows = append(rows, ExpenseHeader)
	for _, e := range expenses {
		rows = append(rows, []string{e.ID.String(), e.Title, e.Category, e.Amount.String(), e.Date})
	}
	return rows
}

func IncomeRows(income []core.Income) [][]string {
	rows := make([][]string, 0, len(income)+1)
	rows = append(rows, IncomeHeader)
	for _, i := range income {
		rows = append(rows, []string{i.ID.String(), i.Title, i.Source, i.Amount.String(), i.Date})
	}
	return rows
}

func BudgetRows(statuses []ledger.BudgetStatus) [][]string {
	rows := make([][]string, 0, len(statuses)+1)
	rows = append(rows, BudgetHeader)
	for _, s := range statuses {
		rows = append(rows, []string{
			s.Month.String(),
			s.Budget.String(),
			s.Spent.String(),
			s.Remaining.String(),
			strconv.Itoa(s.PercentUsed),
			s.Status,
		})
	}
	return rows
}
