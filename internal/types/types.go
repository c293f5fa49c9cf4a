package types

import "time"

// PriceBar is one day of price history. Sequences of bars carry an explicit
// ordering: upstream history arrives newest-first, indicator math requires
// oldest-first. Conversion happens once, in the aggregator.
type PriceBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Quote is the live quote for a symbol.
type Quote struct {
	Symbol    string   `json:"symbol"`
	Price     float64  `json:"price"`
	Volume    int64    `json:"volume"`
	YearHigh  *float64 `json:"yearHigh,omitempty"`
	YearLow   *float64 `json:"yearLow,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// FinancialSnapshot is a point-in-time set of fundamentals and balance-sheet
// figures for a symbol. Immutable once fetched. Absent fields stay nil; a
// nil field means "unknown", never zero.
type FinancialSnapshot struct {
	Symbol     string `json:"symbol"`
	ReportDate string `json:"reportDate,omitempty"`

	Revenue         *float64 `json:"revenue,omitempty"`
	NetIncome       *float64 `json:"netIncome,omitempty"`
	EPS             *float64 `json:"eps,omitempty"`
	EBITDA          *float64 `json:"ebitda,omitempty"`
	GrossMargin     *float64 `json:"grossMargin,omitempty"`
	OperatingMargin *float64 `json:"operatingMargin,omitempty"`
	NetMargin       *float64 `json:"netMargin,omitempty"`

	Cash             *float64 `json:"cash,omitempty"`
	TotalAssets      *float64 `json:"totalAssets,omitempty"`
	TotalLiabilities *float64 `json:"totalLiabilities,omitempty"`
	TotalDebt        *float64 `json:"totalDebt,omitempty"`
	DebtToAssets     *float64 `json:"debtToAssets,omitempty"`
	CurrentRatio     *float64 `json:"currentRatio,omitempty"`
}

// TechnicalAnalysis is derived entirely from a PriceBar sequence. A nil field
// means the underlying series was too short to compute it.
type TechnicalAnalysis struct {
	RSI14            *float64 `json:"rsi14,omitempty"`
	SMA20            *float64 `json:"sma20,omitempty"`
	SMA50            *float64 `json:"sma50,omitempty"`
	SMA200           *float64 `json:"sma200,omitempty"`
	Change1D         *float64 `json:"change1d,omitempty"`
	Change1M         *float64 `json:"change1m,omitempty"`
	Change3M         *float64 `json:"change3m,omitempty"`
	VolumeChange     *float64 `json:"volumeChange,omitempty"`
	High52W          *float64 `json:"high52w,omitempty"`
	Low52W           *float64 `json:"low52w,omitempty"`
	DistanceFromHigh *float64 `json:"distanceFromHigh,omitempty"`
	DistanceFromLow  *float64 `json:"distanceFromLow,omitempty"`
}

// Recommendation actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Recommendation producers.
const (
	ProducedByLLM      = "LLM"
	ProducedByFallback = "fallback-heuristic"
)

// Recommendation is the advisor's verdict for one cache cycle. Immutable
// after creation; a refresh produces a new one rather than mutating this.
type Recommendation struct {
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	TargetPrice float64   `json:"targetPrice"`
	Upside      float64   `json:"upside"`
	Confidence  int       `json:"confidence"`
	ProducedBy  string    `json:"producedBy"`
	Timestamp   time.Time `json:"timestamp"`
}

// EarningsEvent is one normalized row of an earnings calendar, whichever
// upstream endpoint it came from.
type EarningsEvent struct {
	Symbol           string   `json:"symbol"`
	Date             string   `json:"date"`
	EPSActual        *float64 `json:"epsActual,omitempty"`
	EPSEstimated     *float64 `json:"epsEstimated,omitempty"`
	RevenueActual    *float64 `json:"revenueActual,omitempty"`
	RevenueEstimated *float64 `json:"revenueEstimated,omitempty"`
	SurprisePct      *float64 `json:"surprisePct,omitempty"`
}

// NewsArticle is one normalized news item.
type NewsArticle struct {
	Symbol      string `json:"symbol"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Snippet     string `json:"snippet,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// Snapshot bundles everything the aggregator fetched for one symbol.
type Snapshot struct {
	Symbol     string             `json:"symbol"`
	Quote      *Quote             `json:"quote,omitempty"`
	Financials *FinancialSnapshot `json:"financials,omitempty"`
	History    []PriceBar         `json:"history,omitempty"` // oldest-first
	High52W    *float64           `json:"high52w,omitempty"`
	Low52W     *float64           `json:"low52w,omitempty"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

// Float returns a pointer to v, for optional-field literals.
func Float(v float64) *float64 { return &v }
