package handler

import (
	"encoding/json"
	"net/http"

	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/types"
)

type earningsResponse struct {
	Symbol    string                       `json:"symbol"`
	Earnings  []types.EarningsEvent        `json:"earnings"`
	Estimates []marketdata.AnalystEstimate `json:"estimates,omitempty"`
	Cached    bool                         `json:"cached"`
}

// Earnings serves the earnings calendar, resolved through the ordered
// endpoint fallback chain and cached per symbol, alongside forward analyst
// estimates when the upstream has them.
func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
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

	cacheKey := "earnings_" + symbol
	if raw, ok := h.cache.Get(ctx, cacheKey); ok {
		var cached earningsResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			cached.Cached = true
			writeJSON(w, cached, true)
			return
		}
	}

	events, err := h.md.Earnings(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "earnings chain failed", err, "symbol", symbol)
		writeUpstreamError(w, err, symbol)
		return
	}

	estimates, err := h.md.AnalystEstimates(ctx, symbol)
	if err != nil {
		logger.Warn(ctx, "analyst estimates fetch failed, omitting", "symbol", symbol, "error", err)
	}

	resp := earningsResponse{Symbol: symbol, Earnings: events, Estimates: estimates}
	if err := h.cache.Set(ctx, cacheKey, resp, h.earningsTTL()); err != nil {
		logger.Warn(ctx, "failed to cache earnings", "symbol", symbol, "error", err)
	}

	writeJSON(w, resp, false)
}
