package advisor

import (
	"time"

	"stock-insight-api/internal/types"
)

// Fallback is the deterministic rule-based recommendation used whenever the
// LLM is unavailable or its answer cannot be parsed. No network calls. The
// thresholds and multipliers are the system's guaranteed degraded mode and
// must not drift.
func Fallback(tech *types.TechnicalAnalysis, currentPrice float64, now time.Time) *types.Recommendation {
	rec := &types.Recommendation{
		ProducedBy: types.ProducedByFallback,
		Timestamp:  now,
	}

	if tech == nil || (tech.RSI14 == nil && tech.Change1M == nil && tech.Change3M == nil && tech.SMA50 == nil) {
		rec.Action = types.ActionHold
		rec.Reason = "insufficient data"
		rec.TargetPrice = currentPrice
		rec.Confidence = 30
		rec.Upside = upside(rec.TargetPrice, currentPrice)
		return rec
	}

	rsi := deref(tech.RSI14, 50)
	change1m := deref(tech.Change1M, 0)
	change3m := deref(tech.Change3M, 0)

	switch {
	case rsi < 30 && change1m < -5 && change3m < 0:
		rec.Action = types.ActionBuy
		rec.Reason = "oversold"
		rec.TargetPrice = currentPrice * 1.15
		rec.Confidence = 60
	case rsi > 70 && change1m > 10:
		rec.Action = types.ActionSell
		rec.Reason = "overbought"
		rec.TargetPrice = currentPrice * 0.9
		rec.Confidence = 60
	default:
		rec.Action = types.ActionHold
		rec.Reason = "neutral signals"
		if tech.SMA50 != nil {
			rec.TargetPrice = *tech.SMA50
		} else {
			rec.TargetPrice = currentPrice * 1.05
		}
		rec.Confidence = 50
	}

	rec.Upside = upside(rec.TargetPrice, currentPrice)
	return rec
}

func upside(target, current float64) float64 {
	if current == 0 {
		return 0
	}
	return (target - current) / current * 100.0
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
