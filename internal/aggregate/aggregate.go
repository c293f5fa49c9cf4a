// Package aggregate assembles the full per-symbol snapshot: quote, income
// statement, balance sheet and price history fetched concurrently, with
// partial failures degraded to absent fields instead of aborting the fetch.
package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"

	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/ta"
	"stock-insight-api/internal/trace"
	"stock-insight-api/internal/types"
)

const historyDays = 252 // one trading year

type Aggregator struct {
	md  *marketdata.Client
	now func() time.Time
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(md *marketdata.Client, opts ...Option) *Aggregator {
	a := &Aggregator{md: md, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FetchSnapshot issues the four upstream requests concurrently and awaits
// them jointly. A failed sub-record leaves its field nil; only a missing
// quote AND missing history makes the whole snapshot unusable (nil, error).
func (a *Aggregator) FetchSnapshot(ctx context.Context, symbol string) (*types.Snapshot, error) {
	ctx, span := trace.StartSpan(ctx, "fetch-snapshot")
	defer span.End()

	var (
		wg      sync.WaitGroup
		quote   *types.Quote
		income  []marketdata.IncomeStatement
		balance *marketdata.BalanceSheet
		history []types.PriceBar

		quoteErr, incomeErr, balanceErr, historyErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		quote, quoteErr = a.md.Quote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		income, incomeErr = a.md.IncomeStatement(ctx, symbol, 4)
	}()
	go func() {
		defer wg.Done()
		balance, balanceErr = a.md.BalanceSheet(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		history, historyErr = a.md.History(ctx, symbol, historyDays)
	}()
	wg.Wait()

	if quoteErr != nil {
		logger.Warn(ctx, "quote fetch failed", "symbol", symbol, "error", quoteErr)
	}
	if incomeErr != nil {
		logger.Warn(ctx, "income statement fetch failed", "symbol", symbol, "error", incomeErr)
	}
	if balanceErr != nil {
		logger.Warn(ctx, "balance sheet fetch failed", "symbol", symbol, "error", balanceErr)
	}
	if historyErr != nil {
		logger.Warn(ctx, "price history fetch failed", "symbol", symbol, "error", historyErr)
	}

	if quote == nil && len(history) == 0 {
		if quoteErr != nil {
			return nil, quoteErr
		}
		if historyErr != nil {
			return nil, historyErr
		}
		return nil, marketdata.ErrNoData
	}

	// History arrives newest-first; merge against the live quote in that
	// order, then sort oldest-first and drop duplicate dates for the
	// indicator engine.
	merged := MergeHistory(history, quote, a.now().Format("2006-01-02"))
	chronological := SortChronological(merged)

	snap := &types.Snapshot{
		Symbol:     symbol,
		Quote:      quote,
		Financials: buildFinancials(symbol, income, balance),
		History:    chronological,
		FetchedAt:  a.now(),
	}
	snap.High52W, snap.Low52W = yearRange(quote, chronological)
	return snap, nil
}

// MergeHistory keeps the newest-first series current between the upstream's
// nightly refresh and its sub-minute quote. If the leading bar is not dated
// today, a new bar is synthesized from the quote; if it is today but the
// quote has moved more than a cent, the bar's close/volume are overwritten.
func MergeHistory(bars []types.PriceBar, quote *types.Quote, today string) []types.PriceBar {
	if quote == nil {
		return bars
	}
	if len(bars) == 0 || bars[0].Date != today {
		lead := types.PriceBar{Date: today, Close: quote.Price, Volume: quote.Volume}
		return append([]types.PriceBar{lead}, bars...)
	}

	diff := quote.Price - bars[0].Close
	if diff > 0.01 || diff < -0.01 {
		out := make([]types.PriceBar, len(bars))
		copy(out, bars)
		out[0].Close = quote.Price
		out[0].Volume = quote.Volume
		return out
	}
	return bars
}

// Technicals computes the full indicator set from an oldest-first history.
// Absent indicators stay nil.
func Technicals(history []types.PriceBar, quote *types.Quote, high52w, low52w *float64) *types.TechnicalAnalysis {
	closes := make([]float64, len(history))
	volumes := make([]float64, len(history))
	for i, bar := range history {
		closes[i] = bar.Close
		volumes[i] = float64(bar.Volume)
	}

	t := &types.TechnicalAnalysis{
		RSI14:        optional(ta.RSI(closes, 14)),
		SMA20:        optional(ta.SMA(closes, 20)),
		SMA50:        optional(ta.SMA(closes, 50)),
		SMA200:       optional(ta.SMA(closes, 200)),
		Change1D:     optional(ta.PercentChange(closes, 1)),
		Change1M:     optional(ta.PercentChange(closes, 21)),
		Change3M:     optional(ta.PercentChange(closes, 63)),
		VolumeChange: optional(ta.VolumeChange(volumes)),
		High52W:      high52w,
		Low52W:       low52w,
	}

	var current float64
	switch {
	case quote != nil:
		current = quote.Price
	case len(closes) > 0:
		current = closes[len(closes)-1]
	default:
		return t
	}

	if high52w != nil {
		t.DistanceFromHigh = optional(ta.DistanceFromHigh(current, *high52w))
	}
	if low52w != nil {
		t.DistanceFromLow = optional(ta.DistanceFromLow(current, *low52w))
	}
	return t
}

func buildFinancials(symbol string, income []marketdata.IncomeStatement, balance *marketdata.BalanceSheet) *types.FinancialSnapshot {
	if len(income) == 0 && balance == nil {
		return nil
	}

	fs := &types.FinancialSnapshot{Symbol: symbol}

	if len(income) > 0 {
		latest := income[0]
		fs.ReportDate = latest.Date
		fs.Revenue = latest.Revenue
		fs.NetIncome = latest.NetIncome
		fs.EPS = latest.EPS
		fs.EBITDA = latest.EBITDA
		fs.GrossMargin = latest.GrossMargin
		fs.OperatingMargin = latest.OperatingMargin
		fs.NetMargin = latest.NetMargin
	}

	if balance != nil {
		if fs.ReportDate == "" {
			fs.ReportDate = balance.Date
		}
		fs.Cash = balance.Cash
		fs.TotalAssets = balance.TotalAssets
		fs.TotalLiabilities = balance.TotalLiabilities
		fs.TotalDebt = balance.TotalDebt
		fs.DebtToAssets = ratio(balance.TotalDebt, balance.TotalAssets)
		fs.CurrentRatio = ratio(balance.CurrentAssets, balance.CurrentLiab)
	}

	return fs
}

// ratio computes num/den, absent when either side is missing or the
// denominator is zero. Never Inf, never NaN.
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den == 0 {
		return nil
	}
	r := *num / *den
	return &r
}

// yearRange prefers the quote's own year-high/low fields; only when those
// are absent does it fall back to the fetched window.
func yearRange(quote *types.Quote, chronological []types.PriceBar) (high, low *float64) {
	if quote != nil && quote.YearHigh != nil && quote.YearLow != nil {
		return quote.YearHigh, quote.YearLow
	}
	if len(chronological) == 0 {
		return nil, nil
	}
	hi, lo := chronological[0].Close, chronological[0].Close
	for _, bar := range chronological[1:] {
		if bar.Close > hi {
			hi = bar.Close
		}
		if bar.Close < lo {
			lo = bar.Close
		}
	}
	return &hi, &lo
}

// SortChronological orders bars oldest-first by date and drops duplicate
// dates, keeping the first occurrence. Indicator math requires this.
func SortChronological(bars []types.PriceBar) []types.PriceBar {
	out := make([]types.PriceBar, 0, len(bars))
	seen := make(map[string]bool, len(bars))
	for _, bar := range bars {
		if seen[bar.Date] {
			continue
		}
		seen[bar.Date] = true
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func optional(v float64) *float64 {
	if !ta.Valid(v) {
		return nil
	}
	return &v
}
