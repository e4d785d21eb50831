package currency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Request is one conversion asked for by the user.
type Request struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

// Result is a successful conversion. Stale is set when a newer request had
// already produced the latest result by the time this one finished.
type Result struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt string          `json:"updatedAt"`
	Seq       uint64          `json:"seq"`
	Stale     bool            `json:"stale"`
}

// String renders the result line, e.g. "100 USD = 8312.00 INR (Rate: 83.1200)".
func (r Result) String() string {
	return fmt.Sprintf("%s %s = %s %s (Rate: %s)",
		r.Amount.String(), r.From, r.Converted.StringFixed(2), r.To, r.Rate.StringFixed(4))
}

// Pair is a currency direction offered as a shortcut.
type Pair struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

var popularPairs = []Pair{
	{From: "INR", To: "USD", Label: "Indian Rupee → US Dollar"},
	{From: "INR", To: "EUR", Label: "Indian Rupee → Euro"},
	{From: "INR", To: "GBP", Label: "Indian Rupee → British Pound"},
	{From: "INR", To: "AED", Label: "Indian Rupee → UAE Dirham"},
	{From: "USD", To: "INR", Label: "US Dollar → Indian Rupee"},
	{From: "EUR", To: "USD", Label: "Euro → US Dollar"},
}

// PopularPairs returns a copy of the shortcut list.
func PopularPairs() []Pair {
	out := make([]Pair, len(popularPairs))
	copy(out, popularPairs)
	return out
}

// Swap reverses a pair.
func Swap(p Pair) Pair {
	return Pair{From: p.To, To: p.From}
}

// Converter performs conversions, one rate lookup each.
type Converter struct {
	provider RateProvider
	history  *History
	logger   *log.Logger
	now      func() time.Time

	seq atomic.Uint64

	mu        sync.Mutex
	latest    Result
	hasLatest bool
}

func NewConverter(provider RateProvider, history *History, logger *log.Logger) *Converter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Converter{
		provider: provider,
		history:  history,
		logger:   logger.WithComponent(log.ComponentCurrency),
		now:      time.Now,
	}
}

// Convert validates req, looks up the rate and records the conversion.
// Invalid input fails with a *core.ValidationError before any lookup; every
// lookup failure is a *core.ConversionError.
func (c *Converter) Convert(ctx context.Context, req Request) (Result, error) {
	from, to, err := core.ValidateConversion(req.Amount, req.From, req.To)
	if err != nil {
		return Result{}, err
	}
	seq := c.seq.Add(1)
	fields := log.NewFields().WithConversion(from, to, seq).WithOperation(log.OpConvert)

	table, err := c.provider.Latest(ctx, from)
	if err != nil {
		c.logger.WarnContext(ctx, "Rate lookup failed", fields.WithError(err).WithErrorType(log.ErrorTypeNetwork).ToSlice()...)
		return Result{}, &core.ConversionError{Cause: err}
	}
	rate, ok := table.Rates[to]
	if !ok || !rate.IsPositive() {
		err := fmt.Errorf("no rate from %s to %s", from, to)
		c.logger.WarnContext(ctx, "Rate missing", fields.WithError(err).ToSlice()...)
		return Result{}, &core.ConversionError{Cause: err}
	}

	res := Result{
		Amount:    req.Amount,
		From:      from,
		To:        to,
		Converted: req.Amount.Mul(rate).Round(2),
		Rate:      rate,
		UpdatedAt: table.UpdatedAt,
		Seq:       seq,
	}

	c.mu.Lock()
	if !c.hasLatest || seq > c.latest.Seq {
		c.latest = res
		c.hasLatest = true
	} else {
		res.Stale = true
	}
	c.mu.Unlock()

	if c.history != nil {
		now := c.now()
		entry := core.ConversionEntry{
			From:      from,
			To:        to,
			Amount:    res.Amount,
			Converted: res.Converted,
			Rate:      rate,
			When:      now.UTC(),
		}
		if _, err := c.history.Add(ctx, entry); err != nil {
			c.logger.ErrorContext(ctx, "Failed to record conversion", fields.WithError(err).ToSlice()...)
		}
	}

	c.logger.InfoContext(ctx, "Conversion completed", fields.ToSlice()...)
	return res, nil
}

// Latest returns the result of the newest request that succeeded.
func (c *Converter) Latest() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.hasLatest
}

// QuickConvert converts along a pair; a zero amount means 1.
func (c *Converter) QuickConvert(ctx context.Context, p Pair, amount decimal.Decimal) (Result, error) {
	if amount.IsZero() {
		amount = decimal.NewFromInt(1)
	}
	return c.Convert(ctx, Request{Amount: amount, From: p.From, To: p.To})
}

// History exposes the conversion history.
func (c *Converter) History() *History {
	return c.history
}
