// Package backup exports every ledger and the conversion history into one
// document and restores them from it.
package backup

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const documentVersion = 1

// Amounts travel as fixed two-decimal strings so both formats round-trip
// them exactly.
type (
	Document struct {
		Version    int             `json:"version" yaml:"version"`
		ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
		Expenses   []expenseRow    `json:"expenses" yaml:"expenses"`
		Income     []incomeRow     `json:"income" yaml:"income"`
		Budgets    []budgetRow     `json:"budgets" yaml:"budgets"`
		History    []conversionRow `json:"history" yaml:"history"`
	}

	expenseRow struct {
		ID       int64  `json:"id" yaml:"id"`
		Title    string `json:"title" yaml:"title"`
		Category string `json:"category" yaml:"category"`
		Amount   string `json:"amount" yaml:"amount"`
		Date     string `json:"date" yaml:"date"`
	}

	incomeRow struct {
		ID     int64  `json:"id" yaml:"id"`
		Title  string `json:"title" yaml:"title"`
		Source string `json:"source" yaml:"source"`
		Amount string `json:"amount" yaml:"amount"`
		Date   string `json:"date" yaml:"date"`
	}

	budgetRow struct {
		Month  string `json:"month" yaml:"month"`
		Amount string `json:"amount" yaml:"amount"`
	}

	conversionRow struct {
		ID        int64     `json:"id" yaml:"id"`
		From      string    `json:"from" yaml:"from"`
		To        string    `json:"to" yaml:"to"`
		Amount    string    `json:"amount" yaml:"amount"`
		Converted string    `json:"converted" yaml:"converted"`
		Rate      string    `json:"rate" yaml:"rate"`
		When      time.Time `json:"when" yaml:"when"`
	}
)

// Snapshot is the decoded, validated content of a Document.
type Snapshot struct {
	Expenses []core.Expense
	Income   []core.Income
	Budgets  []core.Budget
	History  []core.ConversionEntry
}

var (
	errDuplicateKey       = errors.New("duplicate record")
	errUnsupportedVersion = errors.New("unsupported backup version")
)

func newDocument(s Snapshot, now time.Time) Document {
	doc := Document{
		Version:    documentVersion,
		ExportedAt: now.UTC(),
		Expenses:   make([]expenseRow, 0, len(s.Expenses)),
		Income:     make([]incomeRow, 0, len(s.Income)),
		Budgets:    make([]budgetRow, 0, len(s.Budgets)),
		History:    make([]conversionRow, 0, len(s.History)),
	}
	for _, e := range s.Expenses {
		doc.Expenses = append(doc.Expenses, expenseRow{int64(e.ID), e.Title, e.Category, e.Amount.String(), e.Date})
	}
	for _, i := range s.Income {
		doc.Income = append(doc.Income, incomeRow{int64(i.ID), i.Title, i.Source, i.Amount.String(), i.Date})
	}
	for _, b := range s.Budgets {
		doc.Budgets = append(doc.Budgets, budgetRow{b.Month.String(), b.Amount.String()})
	}
	for _, c := range s.History {
		doc.History = append(doc.History, conversionRow{
			ID:        int64(c.ID),
			From:      c.From,
			To:        c.To,
			Amount:    c.Amount.String(),
			Converted: c.Converted.StringFixed(2),
			Rate:      c.Rate.String(),
			When:      c.When.UTC(),
		})
	}
	return doc
}

// snapshot validates every row. Nothing is returned unless all rows pass.
func (d Document) snapshot() (Snapshot, error) {
	if d.Version != documentVersion {
		return Snapshot{}, &core.ValidationError{Field: "version", Err: fmt.Errorf("%w %d", errUnsupportedVersion, d.Version)}
	}
	var s Snapshot
	seen := map[string]bool{}

	for n, r := range d.Expenses {
		amount, err := parseMoney(r.Amount)
		if err != nil {
			return Snapshot{}, fmt.Errorf("expense %d: %w", n, err)
		}
		e := core.Expense{ID: core.RecordID(r.ID), Title: r.Title, Category: r.Category, Amount: amount, Date: r.Date}
		if err := e.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("expense %d: %w", n, err)
		}
		if err := unique(seen, "expense:"+e.RecordKey()); err != nil {
			return Snapshot{}, fmt.Errorf("expense %d: %w", n, err)
		}
		s.Expenses = append(s.Expenses, e)
	}

	for n, r := range d.Income {
		amount, err := parseMoney(r.Amount)
		if err != nil {
			return Snapshot{}, fmt.Errorf("income %d: %w", n, err)
		}
		i := core.Income{ID: core.RecordID(r.ID), Title: r.Title, Source: r.Source, Amount: amount, Date: r.Date}
		if err := i.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("income %d: %w", n, err)
		}
		if err := unique(seen, "income:"+i.RecordKey()); err != nil {
			return Snapshot{}, fmt.Errorf("income %d: %w", n, err)
		}
		s.Income = append(s.Income, i)
	}

	for n, r := range d.Budgets {
		month, err := core.ParseMonth(r.Month)
		if err != nil {
			return Snapshot{}, fmt.Errorf("budget %d: %w", n, &core.ValidationError{Field: "month", Err: err})
		}
		amount, err := parseMoney(r.Amount)
		if err != nil {
			return Snapshot{}, fmt.Errorf("budget %d: %w", n, err)
		}
		b := core.Budget{Month: month, Amount: amount}
		if err := b.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("budget %d: %w", n, err)
		}
		if err := unique(seen, "budget:"+b.RecordKey()); err != nil {
			return Snapshot{}, fmt.Errorf("budget %d: %w", n, err)
		}
		s.Budgets = append(s.Budgets, b)
	}

	for n, r := range d.History {
		c, err := r.entry()
		if err != nil {
			return Snapshot{}, fmt.Errorf("history %d: %w", n, err)
		}
		s.History = append(s.History, c)
	}
	return s, nil
}

func (r conversionRow) entry() (core.ConversionEntry, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return core.ConversionEntry{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	from, to, err := core.ValidateConversion(amount, r.From, r.To)
	if err != nil {
		return core.ConversionEntry{}, err
	}
	converted, err := decimal.NewFromString(strings.TrimSpace(r.Converted))
	if err != nil {
		return core.ConversionEntry{}, &core.ValidationError{Field: "converted", Err: core.ErrInvalidAmount}
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(r.Rate))
	if err != nil || !rate.IsPositive() {
		return core.ConversionEntry{}, &core.ValidationError{Field: "rate", Err: core.ErrInvalidAmount}
	}
	return core.ConversionEntry{
		ID:        core.RecordID(r.ID),
		From:      from,
		To:        to,
		Amount:    amount,
		Converted: converted,
		Rate:      rate,
		When:      r.When,
	}, nil
}

func parseMoney(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, &core.ValidationError{Field: "amount", Err: err}
	}
	return core.Money{Cents: cents}, nil
}

func unique(seen map[string]bool, key string) error {
	if seen[key] {
		return &core.ValidationError{Field: "id", Err: fmt.Errorf("%w %s", errDuplicateKey, key)}
	}
	seen[key] = true
	return nil
}
