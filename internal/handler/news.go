package handler

import (
	"encoding/json"
	"net/http"

	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/types"
)

const maxNewsArticles = 15

type newsResponse struct {
	Symbol   string              `json:"symbol"`
	Articles []types.NewsArticle `json:"articles"`
	Cached   bool                `json:"cached"`
}

// News serves recent headlines for a symbol, provider-first with the
// scraper as a fallback.
func (h *Handler) News(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := marketdata.NormalizeSymbol(r.URL.Query().Get("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "missing required parameter: symbol"})
		return
	}

	cacheKey := "news_" + symbol
	if raw, ok := h.cache.Get(ctx, cacheKey); ok {
		var cached newsResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			cached.Cached = true
			writeJSON(w, cached, true)
			return
		}
	}

	articles, err := h.news.Fetch(ctx, symbol, maxNewsArticles)
	if err != nil {
		logger.ErrorWithErr(ctx, "news fetch failed", err, "symbol", symbol)
		writeUpstreamError(w, err, symbol)
		return
	}

	resp := newsResponse{Symbol: symbol, Articles: articles}
	if err := h.cache.Set(ctx, cacheKey, resp, h.newsTTL()); err != nil {
		logger.Warn(ctx, "failed to cache news", "symbol", symbol, "error", err)
	}

	writeJSON(w, resp, false)
}
