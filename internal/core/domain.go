package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Money struct {
		Cents int64
	}

	// RecordID is a timestamp-derived identifier, unique within one ledger.
	RecordID int64

	Expense struct {
		ID       RecordID `json:"id"`
		Title    string   `json:"title"`
		Category string   `json:"category"`
		Amount   Money    `json:"amount"`
		Date     string   `json:"date"`
	}

	Income struct {
		ID     RecordID `json:"id"`
		Title  string   `json:"title"`
		Source string   `json:"source"`
		Amount Money    `json:"amount"`
		Date   string   `json:"date"`
	}

	// Budget is the spending ceiling for one month. Month is the ledger key.
	Budget struct {
		Month  Month `json:"month"`
		Amount Money `json:"amount"`
	}

	ConversionEntry struct {
		ID        RecordID        `json:"id"`
		From      string          `json:"from"`
		To        string          `json:"to"`
		Amount    decimal.Decimal `json:"amount"`
		Converted decimal.Decimal `json:"converted"`
		Rate      decimal.Decimal `json:"rate"`
		When      time.Time       `json:"when"`
	}

	// LabeledAmount is one slot of a group-by (category, source, weekday...).
	LabeledAmount struct {
		Label  string `json:"label"`
		Amount Money  `json:"amount"`
	}
)

func (id RecordID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseRecordID parses the decimal form produced by String.
func ParseRecordID(s string) (RecordID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return RecordID(v), nil
}

// UnmarshalJSON accepts numbers and numeric strings; edited records were
// historically written back with the id as a string.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*id = RecordID(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*id = 0
		return nil
	}
	*id = RecordID(int64(f))
	return nil
}

// NewRecordID derives an id from now (Unix milliseconds) and bumps it until
// taken reports it free.
func NewRecordID(now time.Time, taken func(RecordID) bool) RecordID {
	id := RecordID(now.UnixMilli())
	for taken != nil && taken(id) {
		id++
	}
	return id
}

func (e Expense) RecordKey() string   { return e.ID.String() }
func (e Expense) RecordAmount() Money { return e.Amount }

func (i Income) RecordKey() string   { return i.ID.String() }
func (i Income) RecordAmount() Money { return i.Amount }

func (b Budget) RecordKey() string   { return b.Month.String() }
func (b Budget) RecordAmount() Money { return b.Amount }

func (c ConversionEntry) RecordKey() string { return c.ID.String() }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateTitle(title string) error {
	if len(strings.TrimSpace(title)) == 0 {
		return invalid("title", ErrEmptyTitle)
	}
	if len(title) > 200 {
		return invalid("title", ErrTitleTooLong)
	}
	return nil
}

func validateDate(date string) error {
	if _, ok := ParseDay(date); !ok {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

func (e Expense) Validate() error {
	if err := validateTitle(e.Title); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return invalid("category", ErrEmptyCategory)
	}
	if err := e.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	return validateDate(e.Date)
}

func (i Income) Validate() error {
	if err := validateTitle(i.Title); err != nil {
		return err
	}
	if strings.TrimSpace(i.Source) == "" {
		return invalid("source", ErrEmptySource)
	}
	if err := i.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	return validateDate(i.Date)
}

func (b Budget) Validate() error {
	if err := b.Month.Validate(); err != nil {
		return invalid("month", err)
	}
	if err := b.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	return nil
}

// NormalizeCurrency upper-cases a currency code and checks it is three letters.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

// ValidateConversion checks a conversion request before any rate lookup.
func ValidateConversion(amount decimal.Decimal, from, to string) (string, string, error) {
	if !amount.IsPositive() {
		return "", "", invalid("amount", ErrInvalidAmount)
	}
	f, err := NormalizeCurrency(from)
	if err != nil {
		return "", "", invalid("from", err)
	}
	t, err := NormalizeCurrency(to)
	if err != nil {
		return "", "", invalid("to", err)
	}
	if f == t {
		return "", "", invalid("to", ErrSameCurrency)
	}
	return f, t, nil
}
