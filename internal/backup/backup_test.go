package backup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

func newLedgers() (Ledgers, *ledger.Repository[core.Expense]) {
	store := storage.NewMemoryStore()
	exp := ledger.NewExpenseRepository(store)
	return Ledgers{
		Expenses: exp,
		Income:   ledger.NewIncomeRepository(store),
		Budgets:  ledger.NewBudgetRepository(store),
		History:  currency.NewHistory(store),
	}, exp
}

func seed(t *testing.T, l Ledgers) {
	t.Helper()
	ctx := context.Background()
	jan, _ := core.ParseMonth("2024-01")
	if err := l.Expenses.Replace(ctx, []core.Expense{
		{ID: 1, Title: "Coffee", Category: "Food", Amount: core.Money{Cents: 350}, Date: "2024-01-02"},
		{ID: 2, Title: "Rent", Category: "Home", Amount: core.Money{Cents: 120000}, Date: "2024-01-01"},
	}); err != nil {
		t.Fatalf("seed expenses: %v", err)
	}
	if err := l.Income.Replace(ctx, []core.Income{
		{ID: 3, Title: "Salary", Source: "Acme", Amount: core.Money{Cents: 300000}, Date: "2024-01-25"},
	}); err != nil {
		t.Fatalf("seed income: %v", err)
	}
	if err := l.Budgets.Replace(ctx, []core.Budget{{Month: jan, Amount: core.Money{Cents: 150000}}}); err != nil {
		t.Fatalf("seed budgets: %v", err)
	}
	if err := l.History.Replace(ctx, []core.ConversionEntry{{
		ID: 4, From: "USD", To: "INR",
		Amount:    decimal.NewFromInt(100),
		Converted: decimal.RequireFromString("8312"),
		Rate:      decimal.RequireFromString("83.12"),
		When:      time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
	}}); err != nil {
		t.Fatalf("seed history: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			ctx := context.Background()
			src, _ := newLedgers()
			seed(t, src)

			data, err := Export(ctx, src, f)
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if !strings.Contains(string(data), "1200.00") {
				t.Fatalf("amounts should be fixed two-decimal strings:\n%s", data)
			}

			dst, _ := newLedgers()
			sum, err := Import(ctx, dst, f, data)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			if sum != (Summary{Expenses: 2, Income: 1, Budgets: 1, History: 1}) {
				t.Fatalf("summary = %+v", sum)
			}

			exp, _ := dst.Expenses.List(ctx)
			if len(exp) != 2 || exp[1].Amount.Cents != 120000 || exp[0].Title != "Coffee" {
				t.Fatalf("expenses = %+v", exp)
			}
			hist, _ := dst.History.List(ctx)
			if len(hist) != 1 || !hist[0].Rate.Equal(decimal.RequireFromString("83.12")) || hist[0].From != "USD" {
				t.Fatalf("history = %+v", hist)
			}
			bud, _ := dst.Budgets.List(ctx)
			if len(bud) != 1 || bud[0].Month.String() != "2024-01" {
				t.Fatalf("budgets = %+v", bud)
			}
		})
	}
}

func TestImportRejectsInvalidDocumentWithoutChanges(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		doc        string
		validation bool
		malformed  bool
	}{
		{
			name:       "negative amount",
			doc:        `{"version":1,"expenses":[{"id":9,"title":"X","category":"Y","amount":"-5","date":"2024-01-01"}]}`,
			validation: true,
		},
		{
			name:       "missing title",
			doc:        `{"version":1,"income":[{"id":9,"title":" ","source":"Y","amount":"5","date":"2024-01-01"}]}`,
			validation: true,
		},
		{
			name:       "bad month",
			doc:        `{"version":1,"budgets":[{"month":"2024-13","amount":"5"}]}`,
			validation: true,
		},
		{
			name:       "duplicate id",
			doc:        `{"version":1,"expenses":[{"id":9,"title":"A","category":"Y","amount":"5","date":"2024-01-01"},{"id":9,"title":"B","category":"Y","amount":"5","date":"2024-01-01"}]}`,
			validation: true,
		},
		{
			name:       "unknown version",
			doc:        `{"version":7}`,
			validation: true,
		},
		{
			name:      "not json",
			doc:       `{"version":`,
			malformed: true,
		},
		{
			name:      "unknown field",
			doc:       `{"version":1,"wallets":[]}`,
			malformed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, exp := newLedgers()
			seed(t, l)
			_, err := Import(ctx, l, FormatJSON, []byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if core.IsValidation(err) != tt.validation {
				t.Fatalf("IsValidation = %v for %v", core.IsValidation(err), err)
			}
			if errors.Is(err, ErrMalformed) != tt.malformed {
				t.Fatalf("malformed = %v for %v", errors.Is(err, ErrMalformed), err)
			}
			list, _ := exp.List(ctx)
			if len(list) != 2 {
				t.Fatalf("ledger changed after rejected import: %+v", list)
			}
		})
	}
}

func TestImportNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	l, exp := newLedgers()
	var changes []ledger.Change
	exp.Subscribe(ledger.ObserverFunc(func(_ context.Context, c ledger.Change) { changes = append(changes, c) }))

	doc := "version: 1\nexpenses:\n  - id: 1\n    title: Bus\n    category: Travel\n    amount: \"2.40\"\n    date: \"2024-02-01\"\n"
	if _, err := Import(ctx, l, FormatYAML, []byte(doc)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(changes) != 1 || changes[0].Op != ledger.OpReplace {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("csv should be rejected")
	}
}
