package news

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"stock-insight-api/internal/logger"
	"stock-insight-api/internal/types"
)

// Scraper pulls headlines from public finance sites when the news provider
// is unavailable.
type Scraper struct {
	sources []source
	timeout time.Duration
}

type source struct {
	Name       string
	BaseURL    string
	SearchPath string // {symbol} is replaced
	Selectors  selectors
}

type selectors struct {
	Container string
	Title     string
	Link      string
	Snippet   string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{timeout: timeout, sources: defaultSources()}
}

func defaultSources() []source {
	return []source{
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{symbol}/news",
			Selectors: selectors{
				Container: "li.js-stream-content, li.stream-item",
				Title:     "h3",
				Link:      "a",
				Snippet:   "p",
			},
		},
		{
			Name:       "MarketWatch",
			BaseURL:    "https://www.marketwatch.com",
			SearchPath: "/investing/stock/{symbol}",
			Selectors: selectors{
				Container: "div.article__content",
				Title:     "h3.article__headline",
				Link:      "a.link",
				Snippet:   "p.article__summary",
			},
		},
	}
}

// Scrape walks the configured sources in order until enough articles are
// collected.
func (s *Scraper) Scrape(ctx context.Context, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	for _, src := range s.sources {
		if len(articles) >= maxArticles {
			break
		}
		got, err := s.scrapeSource(ctx, src, symbol, maxArticles-len(articles))
		if err != nil {
			logger.Warn(ctx, "scrape source failed", "source", src.Name, "symbol", symbol, "error", err)
			continue
		}
		articles = append(articles, got...)
	}

	logger.Info(ctx, "news scraping finished", "symbol", symbol, "articles", len(articles))
	return articles, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, src source, symbol string, maxArticles int) ([]types.NewsArticle, error) {
	articles := []types.NewsArticle{}

	c := colly.NewCollector(
		colly.AllowedDomains(domainOf(src.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.UserAgent = "Mozilla/5.0 (compatible; stock-insight-api/1.0)"

	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		if len(articles) >= maxArticles {
			return
		}

		title := strings.TrimSpace(e.DOM.Find(src.Selectors.Title).First().Text())
		if title == "" {
			return
		}

		link, _ := e.DOM.Find(src.Selectors.Link).First().Attr("href")
		link = absoluteURL(src.BaseURL, link)

		snippet := firstText(e.DOM, src.Selectors.Snippet)

		articles = append(articles, types.NewsArticle{
			Symbol:  symbol,
			Title:   title,
			URL:     link,
			Source:  src.Name,
			Snippet: snippet,
		})
	})

	target := src.BaseURL + strings.ReplaceAll(src.SearchPath, "{symbol}", url.PathEscape(symbol))
	if err := c.Visit(target); err != nil {
		return nil, err
	}
	c.Wait()

	return articles, nil
}

func firstText(dom *goquery.Selection, selector string) string {
	return strings.TrimSpace(dom.Find(selector).First().Text())
}

func absoluteURL(base, href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

func domainOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
