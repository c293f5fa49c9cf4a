// Package news fetches headlines for a symbol. The primary source is the
// news REST provider; when it is unconfigured or fails, a scraper pulls
// headlines from public finance sites instead.
package news

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stock-insight-api/internal/api"
	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/trace"
	"stock-insight-api/internal/types"
)

type Service struct {
	client  *api.Client
	apiKey  string
	scraper *Scraper
}

func NewService(baseURL, apiKey string) *Service {
	return &Service{
		client:  api.NewClient(api.WithBaseURL(baseURL), api.WithTimeout(30*time.Second)),
		apiKey:  apiKey,
		scraper: NewScraper(20 * time.Second),
	}
}

type providerArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

type providerResponse struct {
	Status   string            `json:"status"`
	Articles []providerArticle `json:"articles"`
}

// Fetch returns up to limit articles for a symbol. Provider first, scraper
// second; an empty result from both is not an error.
func (s *Service) Fetch(ctx context.Context, symbol string, limit int) ([]types.NewsArticle, error) {
	ctx, span := trace.StartSpan(ctx, "fetch-news")
	defer span.End()

	if s.apiKey != "" {
		articles, err := s.fetchFromProvider(ctx, symbol, limit)
		if err == nil {
			return articles, nil
		}
		logger.Warn(ctx, "news provider failed, falling back to scraper", "symbol", symbol, "error", err)
	} else {
		logger.Debug(ctx, "news provider unconfigured, using scraper", "symbol", symbol)
	}

	return s.scraper.Scrape(ctx, symbol, limit)
}

func (s *Service) fetchFromProvider(ctx context.Context, symbol string, limit int) ([]types.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", symbol)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", limit))
	params.Set("apiKey", s.apiKey)

	var resp providerResponse
	if err := s.client.GetJSON(ctx, "/everything?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("news provider status %q", resp.Status)
	}

	articles := make([]types.NewsArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, types.NewsArticle{
			Symbol:      symbol,
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Snippet:     a.Description,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}
