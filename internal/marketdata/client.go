// Package marketdata wraps the Financial Modeling Prep style REST API. The
// API key travels as a query parameter on every request.
package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stock-insight-api/internal/api"
	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/trace"
	"stock-insight-api/internal/types"
)

// ErrNoData marks an exhausted fallback chain: every alternate endpoint
// answered, but none produced a usable row.
var ErrNoData = fmt.Errorf("no data from any endpoint")

type Client struct {
	api    *api.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		api:    api.NewClient(api.WithBaseURL(baseURL), api.WithTimeout(30*time.Second)),
		apiKey: apiKey,
	}
}

func (c *Client) url(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	return path + "?" + params.Encode()
}

// Quote fetches the live quote for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*types.Quote, error) {
	var rows []quoteRow
	if err := c.api.GetJSON(ctx, c.url("/quote/"+url.PathEscape(symbol), nil), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return rows[0].toQuote(), nil
}

// IncomeStatement fetches the latest annual income statements, newest first.
func (c *Client) IncomeStatement(ctx context.Context, symbol string, limit int) ([]IncomeStatement, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	var rows []IncomeStatement
	if err := c.api.GetJSON(ctx, c.url("/income-statement/"+url.PathEscape(symbol), params), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// BalanceSheet fetches the latest balance-sheet statement.
func (c *Client) BalanceSheet(ctx context.Context, symbol string) (*BalanceSheet, error) {
	params := url.Values{}
	params.Set("limit", "1")
	var rows []BalanceSheet
	if err := c.api.GetJSON(ctx, c.url("/balance-sheet-statement/"+url.PathEscape(symbol), params), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return &rows[0], nil
}

// History fetches up to `days` daily bars, newest first (upstream order).
func (c *Client) History(ctx context.Context, symbol string, days int) ([]types.PriceBar, error) {
	params := url.Values{}
	params.Set("timeseries", fmt.Sprintf("%d", days))
	var resp historicalResponse
	if err := c.api.GetJSON(ctx, c.url("/historical-price-full/"+url.PathEscape(symbol), params), &resp); err != nil {
		return nil, err
	}
	bars := make([]types.PriceBar, 0, len(resp.Historical))
	for _, h := range resp.Historical {
		bars = append(bars, h.toBar())
	}
	return bars, nil
}

// Earnings resolves the earnings calendar through an ordered fallback chain:
// historical earnings calendar, then earnings surprises, then the income
// statement as a proxy. The first endpoint returning a non-empty parseable
// array wins; later alternates are not tried.
func (c *Client) Earnings(ctx context.Context, symbol string) ([]types.EarningsEvent, error) {
	ctx, span := trace.StartSpan(ctx, "earnings-fallback-chain")
	defer span.End()

	var lastErr error

	var calRows []earningsCalendarRow
	err := c.api.GetJSON(ctx, c.url("/historical/earning_calendar/"+url.PathEscape(symbol), nil), &calRows)
	if err == nil && len(calRows) > 0 {
		events := make([]types.EarningsEvent, 0, len(calRows))
		for _, r := range calRows {
			events = append(events, r.toEvent())
		}
		return events, nil
	}
	if err != nil {
		lastErr = err
		logger.Warn(ctx, "earnings calendar endpoint failed, trying surprises", "symbol", symbol, "error", err)
	}

	var surpriseRows []earningsSurpriseRow
	err = c.api.GetJSON(ctx, c.url("/earnings-surprises/"+url.PathEscape(symbol), nil), &surpriseRows)
	if err == nil && len(surpriseRows) > 0 {
		events := make([]types.EarningsEvent, 0, len(surpriseRows))
		for _, r := range surpriseRows {
			events = append(events, r.toEvent())
		}
		return events, nil
	}
	if err != nil {
		lastErr = err
		logger.Warn(ctx, "earnings surprises endpoint failed, trying income statement", "symbol", symbol, "error", err)
	}

	incomeRows, err := c.IncomeStatement(ctx, symbol, 4)
	if err == nil && len(incomeRows) > 0 {
		events := make([]types.EarningsEvent, 0, len(incomeRows))
		for _, r := range incomeRows {
			events = append(events, r.toEvent())
		}
		return events, nil
	}
	if err != nil {
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("earnings chain exhausted for %s: %w", symbol, lastErr)
	}
	return nil, ErrNoData
}

// AnalystEstimates fetches forward analyst estimates, newest first.
func (c *Client) AnalystEstimates(ctx context.Context, symbol string) ([]AnalystEstimate, error) {
	var rows []AnalystEstimate
	if err := c.api.GetJSON(ctx, c.url("/analyst-estimates/"+url.PathEscape(symbol), nil), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Proxy passes an allowlisted endpoint through untouched and returns the raw
// upstream JSON.
func (c *Client) Proxy(ctx context.Context, endpoint, symbol string) ([]byte, error) {
	if !AllowedEndpoints[endpoint] {
		return nil, fmt.Errorf("endpoint %q not allowed", endpoint)
	}
	resp, err := c.api.GET(ctx, c.url("/"+endpoint+"/"+url.PathEscape(symbol), nil))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// AllowedEndpoints is the passthrough allowlist for the generic proxy
// handler.
var AllowedEndpoints = map[string]bool{
	"quote":                   true,
	"profile":                 true,
	"income-statement":        true,
	"balance-sheet-statement": true,
	"historical-price-full":   true,
	"analyst-estimates":       true,
}

// NormalizeSymbol uppercases and trims a caller-supplied symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
