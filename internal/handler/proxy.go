package handler

import (
	"encoding/json"
	"net/http"

	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
)

// Proxy passes an allowlisted market-data endpoint straight through,
// returning the upstream JSON unreshaped. Short cache, keyed on endpoint
// and symbol.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := marketdata.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "missing required parameter: symbol"})
		return
	}
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		endpoint = "quote"
	}
	if !marketdata.AllowedEndpoints[endpoint] {
		writeError(w, http.StatusBadRequest, errorBody{Error: "unknown endpoint: " + endpoint})
		return
	}
	if h.cfg.MarketDataAPIKey == "" {
		writeError(w, http.StatusInternalServerError, errorBody{Error: "market data API key not configured"})
		return
	}

	cacheKey := "proxy_" + endpoint + "_" + symbol
	if raw, ok := h.cache.Get(ctx, cacheKey); ok {
		writeRaw(w, raw, true)
		return
	}

	body, err := h.md.Proxy(ctx, endpoint, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "proxy fetch failed", err, "symbol", symbol, "endpoint", endpoint)
		writeUpstreamError(w, err, symbol)
		return
	}

	if err := h.cache.Set(ctx, cacheKey, json.RawMessage(body), h.quoteTTL()); err != nil {
		logger.Warn(ctx, "failed to cache proxy response", "symbol", symbol, "error", err)
	}

	writeRaw(w, body, false)
}
