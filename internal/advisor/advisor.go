// Package advisor turns a snapshot plus indicators into a BUY/SELL/HOLD
// recommendation. The happy path asks the configured LLM provider; any
// transport error, non-2xx or unparseable answer drops to the deterministic
// heuristic without retrying. LLM answers are cached under a fingerprint of
// the inputs so materially unchanged data reuses the previous answer.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"stock-insight-api/internal/cache"
	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/trace"
	"stock-insight-api/internal/types"
)

type Advisor struct {
	provider llm.Provider
	cache    *cache.Tiered
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Advisor)

func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// New wires the advisor. ttl bounds how long an LLM answer is reused for a
// given fingerprint; cache may be nil to disable reuse.
func New(provider llm.Provider, c *cache.Tiered, ttl time.Duration, opts ...Option) *Advisor {
	a := &Advisor{provider: provider, cache: c, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Recommend produces a recommendation for the snapshot. The second return
// reports whether the answer came from the fingerprint cache.
func (a *Advisor) Recommend(ctx context.Context, snap *types.Snapshot, tech *types.TechnicalAnalysis) (*types.Recommendation, bool) {
	ctx, span := trace.StartSpan(ctx, "recommend")
	defer span.End()

	currentPrice := 0.0
	if snap.Quote != nil {
		currentPrice = snap.Quote.Price
	} else if n := len(snap.History); n > 0 {
		currentPrice = snap.History[n-1].Close
	}

	key := a.cacheKey(snap, tech)
	if a.cache != nil {
		if raw, ok := a.cache.Get(ctx, key); ok {
			var rec types.Recommendation
			if err := json.Unmarshal(raw, &rec); err == nil {
				logger.Debug(ctx, "recommendation served from fingerprint cache", "symbol", snap.Symbol, "key", key)
				return &rec, true
			}
		}
	}

	prompt := BuildPrompt(snap, tech, currentPrice)

	text, err := a.provider.Invoke(ctx, prompt)
	if err != nil {
		logger.Warn(ctx, "llm call failed, using fallback heuristic",
			"symbol", snap.Symbol, "provider", a.provider.Name(), "error", err)
		rec := Fallback(tech, currentPrice, a.now())
		a.finish(ctx, snap.Symbol, key, rec)
		return rec, false
	}

	rec, err := Parse(text, currentPrice, a.now())
	if err != nil {
		logger.Warn(ctx, "llm answer unparseable, using fallback heuristic",
			"symbol", snap.Symbol, "provider", a.provider.Name(), "error", err)
		rec = Fallback(tech, currentPrice, a.now())
	}

	a.finish(ctx, snap.Symbol, key, rec)
	return rec, false
}

func (a *Advisor) finish(ctx context.Context, symbol, key string, rec *types.Recommendation) {
	logger.Recommendation(ctx, symbol, rec.Action, rec.ProducedBy, rec.Confidence)
	if a.cache != nil {
		if err := a.cache.Set(ctx, key, rec, a.ttl); err != nil {
			logger.Warn(ctx, "failed to cache recommendation", "symbol", symbol, "error", err)
		}
	}
}

func (a *Advisor) cacheKey(snap *types.Snapshot, tech *types.TechnicalAnalysis) string {
	price := 0.0
	if snap.Quote != nil {
		price = snap.Quote.Price
	}
	reportDate := ""
	if snap.Financials != nil {
		reportDate = snap.Financials.ReportDate
	}
	return fmt.Sprintf("%s_%s_%s", a.provider.Name(), strings.ToUpper(snap.Symbol),
		Fingerprint(reportDate, tech.RSI14, tech.Change1M, price))
}

// Fingerprint summarizes the volatile inputs: reporting date, rounded RSI,
// rounded 1-month change and the price truncated to cents. Inputs that have
// not materially moved map to the same fingerprint.
func Fingerprint(reportDate string, rsi, change1m *float64, price float64) string {
	rsiPart := "na"
	if rsi != nil {
		rsiPart = fmt.Sprintf("%.0f", *rsi)
	}
	chgPart := "na"
	if change1m != nil {
		chgPart = fmt.Sprintf("%.0f", *change1m)
	}
	if reportDate == "" {
		reportDate = "nodate"
	}
	return fmt.Sprintf("%s_rsi%s_chg%s_p%.2f", reportDate, rsiPart, chgPart, math.Trunc(price*100)/100)
}

// BuildPrompt renders the snapshot into a compact prompt. Every field is
// guarded against absence and rendered as N/A rather than zero.
func BuildPrompt(snap *types.Snapshot, tech *types.TechnicalAnalysis, currentPrice float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze stock %s and return strictly a JSON object with keys ", strings.ToUpper(snap.Symbol))
	b.WriteString(`"action" (BUY, SELL or HOLD), "reason" (short text), "targetPrice" (number), "upside" (percent number), "confidence" (integer 0-100). No other text.`)
	b.WriteString("\n\nCurrent price: ")
	b.WriteString(money(currentPrice))

	if f := snap.Financials; f != nil {
		fmt.Fprintf(&b, "\n\nFundamentals (report date %s):\n", orNA(f.ReportDate))
		fmt.Fprintf(&b, "  revenue: %s, net income: %s, EPS: %s, EBITDA: %s\n",
			num(f.Revenue), num(f.NetIncome), num(f.EPS), num(f.EBITDA))
		fmt.Fprintf(&b, "  gross margin: %s, operating margin: %s, net margin: %s\n",
			num(f.GrossMargin), num(f.OperatingMargin), num(f.NetMargin))
		fmt.Fprintf(&b, "  cash: %s, total assets: %s, total liabilities: %s, total debt: %s\n",
			num(f.Cash), num(f.TotalAssets), num(f.TotalLiabilities), num(f.TotalDebt))
		fmt.Fprintf(&b, "  debt/assets: %s, current ratio: %s\n",
			num(f.DebtToAssets), num(f.CurrentRatio))
	} else {
		b.WriteString("\n\nFundamentals: N/A\n")
	}

	b.WriteString("\nTechnicals:\n")
	fmt.Fprintf(&b, "  RSI(14): %s, SMA20: %s, SMA50: %s, SMA200: %s\n",
		num(tech.RSI14), num(tech.SMA20), num(tech.SMA50), num(tech.SMA200))
	fmt.Fprintf(&b, "  change 1d: %s%%, 1m: %s%%, 3m: %s%%, volume change: %s%%\n",
		num(tech.Change1D), num(tech.Change1M), num(tech.Change3M), num(tech.VolumeChange))
	fmt.Fprintf(&b, "  52w high: %s (%s%% below), 52w low: %s (%s%% above)\n",
		num(tech.High52W), num(tech.DistanceFromHigh), num(tech.Low52W), num(tech.DistanceFromLow))

	return b.String()
}

// Parse extracts the JSON object from the model's text and coerces it into a
// Recommendation. The model's output is untrusted free text even when
// JSON-shaped: targetPrice defaults to the current price, confidence to 50.
func Parse(text string, currentPrice float64, now time.Time) (*types.Recommendation, error) {
	t := strings.TrimSpace(text)

	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in llm output")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(t[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode llm output: %w", err)
	}

	rec := &types.Recommendation{
		Action:      types.ActionHold,
		TargetPrice: currentPrice,
		Confidence:  50,
		ProducedBy:  types.ProducedByLLM,
		Timestamp:   now,
	}

	if s, ok := raw["action"].(string); ok {
		action := strings.ToUpper(strings.TrimSpace(s))
		if action == types.ActionBuy || action == types.ActionSell || action == types.ActionHold {
			rec.Action = action
		}
	}
	if s, ok := raw["reason"].(string); ok {
		rec.Reason = s
	}
	if v, ok := toFloat(raw["targetPrice"]); ok && v > 0 {
		rec.TargetPrice = v
	}
	if v, ok := toFloat(raw["upside"]); ok {
		rec.Upside = v
	} else if currentPrice > 0 {
		rec.Upside = (rec.TargetPrice - currentPrice) / currentPrice * 100.0
	}
	if v, ok := toFloat(raw["confidence"]); ok {
		c := int(v)
		if c < 0 {
			c = 0
		}
		if c > 100 {
			c = 100
		}
		rec.Confidence = c
	}

	return rec, nil
}

// toFloat coerces the loose JSON value shapes models actually emit: numbers,
// numeric strings, even "$123.45".
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(n, "%"), "$"))
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func num(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func money(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
