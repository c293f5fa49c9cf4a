package marketdata

import "stock-insight-api/internal/types"

// Upstream response rows, one explicit shape per endpoint. Fields the data
// model does not use are simply not declared, so they are dropped at decode
// time. Optional upstream fields are pointers; nil survives normalization
// as nil, never as zero.

type quoteRow struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Volume    int64    `json:"volume"`
	YearHigh  *float64 `json:"yearHigh"`
	YearLow   *float64 `json:"yearLow"`
	Timestamp int64    `json:"timestamp"`
}

// IncomeStatement is one reported period from the income-statement endpoint.
type IncomeStatement struct {
	Date            string   `json:"date"`
	Symbol          string   `json:"symbol"`
	Revenue         *float64 `json:"revenue"`
	NetIncome       *float64 `json:"netIncome"`
	EPS             *float64 `json:"eps"`
	EBITDA          *float64 `json:"ebitda"`
	GrossMargin     *float64 `json:"grossProfitRatio"`
	OperatingMargin *float64 `json:"operatingIncomeRatio"`
	NetMargin       *float64 `json:"netIncomeRatio"`
}

// BalanceSheet is one reported period from the balance-sheet endpoint.
type BalanceSheet struct {
	Date             string   `json:"date"`
	Symbol           string   `json:"symbol"`
	Cash             *float64 `json:"cashAndCashEquivalents"`
	TotalAssets      *float64 `json:"totalAssets"`
	TotalLiabilities *float64 `json:"totalLiabilities"`
	TotalDebt        *float64 `json:"totalDebt"`
	CurrentAssets    *float64 `json:"totalCurrentAssets"`
	CurrentLiab      *float64 `json:"totalCurrentLiabilities"`
}

// AnalystEstimate is one row from the analyst-estimates endpoint.
type AnalystEstimate struct {
	Date            string   `json:"date"`
	Symbol          string   `json:"symbol"`
	EstimatedEPSAvg *float64 `json:"estimatedEpsAvg"`
	EstimatedRevAvg *float64 `json:"estimatedRevenueAvg"`
}

type historicalBar struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type historicalResponse struct {
	Symbol     string          `json:"symbol"`
	Historical []historicalBar `json:"historical"` // newest-first upstream
}

type earningsCalendarRow struct {
	Date             string   `json:"date"`
	Symbol           string   `json:"symbol"`
	EPS              *float64 `json:"eps"`
	EPSEstimated     *float64 `json:"epsEstimated"`
	Revenue          *float64 `json:"revenue"`
	RevenueEstimated *float64 `json:"revenueEstimated"`
}

type earningsSurpriseRow struct {
	Date             string   `json:"date"`
	Symbol           string   `json:"symbol"`
	ActualEarning    *float64 `json:"actualEarningResult"`
	EstimatedEarning *float64 `json:"estimatedEarning"`
}

func (r quoteRow) toQuote() *types.Quote {
	return &types.Quote{
		Symbol:    r.Symbol,
		Price:     r.Price,
		Volume:    r.Volume,
		YearHigh:  r.YearHigh,
		YearLow:   r.YearLow,
		Timestamp: r.Timestamp,
	}
}

func (r historicalBar) toBar() types.PriceBar {
	return types.PriceBar{Date: r.Date, Close: r.Close, Volume: r.Volume}
}

func (r earningsCalendarRow) toEvent() types.EarningsEvent {
	ev := types.EarningsEvent{
		Symbol:           r.Symbol,
		Date:             r.Date,
		EPSActual:        r.EPS,
		EPSEstimated:     r.EPSEstimated,
		RevenueActual:    r.Revenue,
		RevenueEstimated: r.RevenueEstimated,
	}
	if r.EPS != nil && r.EPSEstimated != nil && *r.EPSEstimated != 0 {
		pct := (*r.EPS - *r.EPSEstimated) / *r.EPSEstimated * 100.0
		ev.SurprisePct = &pct
	}
	return ev
}

func (r earningsSurpriseRow) toEvent() types.EarningsEvent {
	ev := types.EarningsEvent{
		Symbol:       r.Symbol,
		Date:         r.Date,
		EPSActual:    r.ActualEarning,
		EPSEstimated: r.EstimatedEarning,
	}
	if r.ActualEarning != nil && r.EstimatedEarning != nil && *r.EstimatedEarning != 0 {
		pct := (*r.ActualEarning - *r.EstimatedEarning) / *r.EstimatedEarning * 100.0
		ev.SurprisePct = &pct
	}
	return ev
}

func (r IncomeStatement) toEvent() types.EarningsEvent {
	return types.EarningsEvent{
		Symbol:        r.Symbol,
		Date:          r.Date,
		EPSActual:     r.EPS,
		RevenueActual: r.Revenue,
	}
}
