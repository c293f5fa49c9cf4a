// Package handler exposes the HTTP surface: one self-contained handler per
// route, sharing only the injected cache and clients. Each handler follows
// the same contract: OPTIONS preflight, 400 on missing parameters, 500 on
// missing server-side credentials, upstream status mirrored on failure.
package handler

import (
	"net/http"
	"time"

	"stock-insight-api/internal/advisor"
	"stock-insight-api/internal/aggregate"
	"stock-insight-api/internal/cache"
	"stock-insight-api/internal/config"
	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/news"
)

type Handler struct {
	cfg      *config.Config
	cache    *cache.Tiered
	agg      *aggregate.Aggregator
	adv      *advisor.Advisor
	md       *marketdata.Client
	news     *news.Service
	provider llm.Provider
}

func New(cfg *config.Config, c *cache.Tiered, agg *aggregate.Aggregator, adv *advisor.Advisor,
	md *marketdata.Client, newsSvc *news.Service, provider llm.Provider) *Handler {
	return &Handler{
		cfg:      cfg,
		cache:    c,
		agg:      agg,
		adv:      adv,
		md:       md,
		news:     newsSvc,
		provider: provider,
	}
}

// Register mounts every route on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/api/rating", h.wrap(h.Rating))
	mux.Handle("/api/earnings", h.wrap(h.Earnings))
	mux.Handle("/api/news", h.wrap(h.News))
	mux.Handle("/api/quote", h.wrap(h.Proxy))
	mux.Handle("/api/completion", h.wrap(h.Completion))
}

func (h *Handler) predictionTTL() time.Duration {
	return time.Duration(h.cfg.Cache.PredictionHours) * time.Hour
}

func (h *Handler) earningsTTL() time.Duration {
	return time.Duration(h.cfg.Cache.EarningsHours) * time.Hour
}

func (h *Handler) newsTTL() time.Duration {
	return time.Duration(h.cfg.Cache.NewsMinutes) * time.Minute
}

func (h *Handler) quoteTTL() time.Duration {
	return time.Duration(h.cfg.Cache.QuoteMinutes) * time.Minute
}
