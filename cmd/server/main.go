package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-insight-api/internal/advisor"
	"stock-insight-api/internal/aggregate"
	"stock-insight-api/internal/cache"
	"stock-insight-api/internal/config"
	"stock-insight-api/internal/handler"
	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/llm/claude"
	"stock-insight-api/internal/llm/noop"
	"stock-insight-api/internal/llm/openai"
	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/marketdata"
	"stock-insight-api/internal/news"
	"stock-insight-api/internal/trace"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("config.yaml")
	must(err)

	logger.Init()
	must(trace.Init())

	ctx := context.Background()

	store := newStore(cfg)
	if store != nil {
		defer store.Close()
	}
	c := cache.New(store, cache.WithMemoryCap(time.Duration(cfg.Cache.DataMinutes)*time.Minute))

	md := marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketDataAPIKey)
	agg := aggregate.New(md)
	provider := newProvider(cfg)
	adv := advisor.New(provider, c, time.Duration(cfg.LLM.CacheTTLHours)*time.Hour)
	newsSvc := news.NewService(cfg.News.BaseURL, cfg.NewsAPIKey)

	mux := http.NewServeMux()
	handler.New(cfg, c, agg, adv, md, newsSvc, provider).Register(mux)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server started", "addr", cfg.Server.Addr, "provider", provider.Name(), "cache_backend", cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-sigc
	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(ctx, "shutdown failed", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "trace shutdown failed", "error", err)
	}
}

// newStore builds the persistent cache tier. A broken backend degrades to
// memory-only rather than refusing to start.
func newStore(cfg *config.Config) cache.Store {
	switch cfg.Cache.Backend {
	case "SQLITE":
		s, err := cache.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			log.Printf("sqlite cache unavailable, running memory-only: %v", err)
			return nil
		}
		return s
	default:
		s, err := cache.NewFileStore(cfg.Cache.Dir)
		if err != nil {
			log.Printf("file cache unavailable, running memory-only: %v", err)
			return nil
		}
		return s
	}
}

// newProvider selects the LLM backend. A configured provider with no API key
// in the environment falls back to noop, which in turn forces the
// deterministic heuristic on every rating.
func newProvider(cfg *config.Config) llm.Provider {
	switch cfg.LLM.Provider {
	case "OPENAI":
		if cfg.OpenAIAPIKey != "" {
			return openai.New(cfg.OpenAIAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
		}
		log.Println("OPENAI_API_KEY not set, falling back to noop provider")
	case "CLAUDE":
		if cfg.ClaudeAPIKey != "" {
			return claude.New(cfg.ClaudeAPIKey, cfg.LLM.Model, cfg.LLM.MaxTokens)
		}
		log.Println("CLAUDE_API_KEY not set, falling back to noop provider")
	}
	return noop.New()
}
