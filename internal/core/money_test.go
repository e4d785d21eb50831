package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyJSONLenientDecode(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{`120`, 12000},
		{`120.5`, 12050},
		{`"99.99"`, 9999},
		{`null`, 0},
		{`""`, 0},
		{`"abc"`, 0},
		{`-3.5`, -350},
	}
	for _, tc := range cases {
		var m Money
		if err := json.Unmarshal([]byte(tc.in), &m); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if m.Cents != tc.want {
			t.Fatalf("%s: expected %d cents, got %d", tc.in, tc.want, m.Cents)
		}
	}
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 12050}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":120.5}` {
		t.Fatalf("unexpected json %s", b)
	}
}

func TestMoneyFromMajorRounds(t *testing.T) {
	if got := MoneyFromMajor(decimal.RequireFromString("8312.004")); got.Cents != 831200 {
		t.Fatalf("expected 831200, got %d", got.Cents)
	}
	if got := (Money{Cents: 831200}).String(); got != "8312.00" {
		t.Fatalf("expected 8312.00, got %s", got)
	}
}
