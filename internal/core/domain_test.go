package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-02", "2024-01-02", true},
		{"2024-01-02T18:30:00.000Z", "2024-01-02", true},
		{"2024-01-02 08:00", "2024-01-02", true},
		{"2024-13-02", "", false},
		{"02/01/2024", "", false},
		{"2024-01-02x", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDay(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got.Format("2006-01-02") != tc.want {
			t.Fatalf("%q: got %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
	}
}

func TestMonthRoundTripAndContains(t *testing.T) {
	m, err := ParseMonth("2024-03")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.String() != "2024-03" {
		t.Fatalf("unexpected string %q", m.String())
	}
	if !m.Contains("2024-03-31") || m.Contains("2023-03-01") || m.Contains("garbage") {
		t.Fatalf("Contains misbehaves")
	}
	if _, err := ParseMonth("2024-3-1"); err == nil {
		t.Fatalf("expected error for malformed month")
	}

	var b Budget
	if err := json.Unmarshal([]byte(`{"month":"2024-03","amount":5000}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Month != m || b.Amount.Cents != 500000 {
		t.Fatalf("unexpected budget %+v", b)
	}
}

func TestRecordIDAcceptsStrings(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":"1700000000000","title":"t","amount":"5"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != 1700000000000 || e.Amount.Cents != 500 {
		t.Fatalf("unexpected expense %+v", e)
	}
}

func TestNewRecordIDSkipsTaken(t *testing.T) {
	now := time.UnixMilli(1000)
	taken := map[RecordID]bool{1000: true, 1001: true}
	id := NewRecordID(now, func(id RecordID) bool { return taken[id] })
	if id != 1002 {
		t.Fatalf("expected 1002, got %d", id)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Title: "Lunch", Category: "Food", Amount: Money{Cents: 100}, Date: "2025-01-01"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Title: "", Category: "c", Amount: Money{Cents: 1}, Date: "2025-01-01"}, ErrEmptyTitle},
		{Expense{Title: "a", Category: " ", Amount: Money{Cents: 1}, Date: "2025-01-01"}, ErrEmptyCategory},
		{Expense{Title: "a", Category: "c", Amount: Money{Cents: 0}, Date: "2025-01-01"}, ErrInvalidAmount},
		{Expense{Title: "a", Category: "c", Amount: Money{Cents: 1}, Date: "nope"}, ErrInvalidDate},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if !IsValidation(err) || !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected validation error %v, got %v", i, tc.want, err)
		}
	}
}

func TestIncomeAndBudgetValidate(t *testing.T) {
	if err := (Income{Title: "Salary", Source: "", Amount: Money{Cents: 1}, Date: "2025-01-01"}).Validate(); !errors.Is(err, ErrEmptySource) {
		t.Fatalf("expected ErrEmptySource, got %v", err)
	}
	if err := (Budget{Amount: Money{Cents: 100}}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := (Budget{Month: Month{Year: 2025, Month: time.May}, Amount: Money{Cents: 100}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestValidateConversion(t *testing.T) {
	if _, _, err := ValidateConversion(decimal.Zero, "USD", "INR"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := ValidateConversion(decimal.NewFromInt(1), "usd", "USD"); !errors.Is(err, ErrSameCurrency) {
		t.Fatalf("expected ErrSameCurrency, got %v", err)
	}
	from, to, err := ValidateConversion(decimal.NewFromInt(1), " usd", "inr")
	if err != nil || from != "USD" || to != "INR" {
		t.Fatalf("unexpected %s %s %v", from, to, err)
	}
}

func TestConversionErrorIsUniform(t *testing.T) {
	err := error(&ConversionError{Cause: errors.New("dial tcp: timeout")})
	if err.Error() != "conversion failed" || !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("unexpected conversion error %v", err)
	}
}
