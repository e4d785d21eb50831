// Package currency converts amounts with live exchange rates and keeps a
// short history of recent conversions.
package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRateAPIURL is the public exchange-rate endpoint; the base currency is appended.
const DefaultRateAPIURL = "https://open.er-api.com/v6/latest/"

// RateTable holds the rates of every quoted currency against Base.
type RateTable struct {
	Base      string
	Rates     map[string]decimal.Decimal
	UpdatedAt string
}

// RateProvider fetches the latest rates for a base currency.
type RateProvider interface {
	Latest(ctx context.Context, base string) (RateTable, error)
}

// HTTPRateProvider queries the exchange-rate API over HTTP. It never caches.
type HTTPRateProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRateProvider(baseURL string, timeout time.Duration) *HTTPRateProvider {
	if baseURL == "" {
		baseURL = DefaultRateAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRateProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type latestResponse struct {
	Result            string                     `json:"result"`
	TimeLastUpdateUTC string                     `json:"time_last_update_utc"`
	Rates             map[string]decimal.Decimal `json:"rates"`
}

func (p *HTTPRateProvider) Latest(ctx context.Context, base string) (RateTable, error) {
	url := p.baseURL + strings.ToUpper(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return RateTable{}, fmt.Errorf("fetch rates for %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return RateTable{}, fmt.Errorf("fetch rates for %s: status %d", base, resp.StatusCode)
	}

	var body latestResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return RateTable{}, fmt.Errorf("decode rates for %s: %w", base, err)
	}
	if body.Result != "success" {
		return RateTable{}, fmt.Errorf("rate api result %q for %s", body.Result, base)
	}

	return RateTable{
		Base:      strings.ToUpper(base),
		Rates:     body.Rates,
		UpdatedAt: body.TimeLastUpdateUTC,
	}, nil
}
