package handler

import (
	"encoding/json"
	"net/http"

	"stock-insight-api/internal/aggregate"
	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/types"
)

type ratingResponse struct {
	Symbol         string                   `json:"symbol"`
	Recommendation *types.Recommendation    `json:"recommendation"`
	Technicals     *types.TechnicalAnalysis `json:"technicals"`
	Fundamentals   *types.FinancialSnapshot `json:"fundamentals,omitempty"`
	Quote          *types.Quote             `json:"quote,omitempty"`
	Cached         bool                     `json:"cached"`
}

// Rating is the core handler: tiered cache lookup, concurrent upstream
// fetch, indicator computation, LLM recommendation with deterministic
// fallback, write-through on the way out.
func (h *Handler) Rating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := marketdata.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "missing required parameter: symbol"})
		return
	}
	if h.cfg.MarketDataAPIKey == "" {
		writeError(w, http.StatusInternalServerError, errorBody{Error: "market data API key not configured"})
		return
	}

	cacheKey := "prediction_" + symbol
	if raw, ok := h.cache.Get(ctx, cacheKey); ok {
		var cached ratingResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			cached.Cached = true
			logger.Debug(ctx, "rating served from cache", "symbol", symbol)
			writeJSON(w, cached, true)
			return
		}
		logger.Warn(ctx, "corrupt cached rating, recomputing", "symbol", symbol)
	}

	snap, err := h.agg.FetchSnapshot(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "snapshot fetch failed", err, "symbol", symbol)
		writeUpstreamError(w, err, symbol)
		return
	}

	tech := aggregate.Technicals(snap.History, snap.Quote, snap.High52W, snap.Low52W)
	rec, _ := h.adv.Recommend(ctx, snap, tech)

	resp := ratingResponse{
		Symbol:         symbol,
		Recommendation: rec,
		Technicals:     tech,
		Fundamentals:   snap.Financials,
		Quote:          snap.Quote,
	}

	if err := h.cache.Set(ctx, cacheKey, resp, h.predictionTTL()); err != nil {
		logger.Warn(ctx, "failed to cache rating", "symbol", symbol, "error", err)
	}

	writeJSON(w, resp, false)
}
