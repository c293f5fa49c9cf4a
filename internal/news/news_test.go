package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchFromProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "AAPL" {
			t.Errorf("expected symbol query, got %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Apple hits record high","url":"https://example.com/a","description":"shares rallied","publishedAt":"2026-01-15T10:00:00Z","source":{"name":"Example"}}
		]}`))
	}))
	defer srv.Close()

	s := NewService(srv.URL, "key")
	articles, err := s.Fetch(context.Background(), "AAPL", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Apple hits record high" || a.Source != "Example" || a.Symbol != "AAPL" {
		t.Errorf("normalization mismatch: %+v", a)
	}
}

func TestFetchProviderBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","articles":[]}`))
	}))
	defer srv.Close()

	s := NewService(srv.URL, "key")
	s.scraper.sources = nil // no live scraping in tests

	// Provider answers but reports an error status; the fallback has no
	// sources here, so the call returns without error and with no articles.
	articles, err := s.Fetch(context.Background(), "ZZZZ", 5)
	if err != nil {
		t.Fatalf("fetch should not surface provider errors: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("expected no articles, got %d", len(articles))
	}
}

func TestAbsoluteURL(t *testing.T) {
	cases := []struct {
		base, href, want string
	}{
		{"https://finance.yahoo.com", "/news/article-1", "https://finance.yahoo.com/news/article-1"},
		{"https://finance.yahoo.com", "https://other.com/x", "https://other.com/x"},
		{"https://finance.yahoo.com/", "news/article-2", "https://finance.yahoo.com/news/article-2"},
		{"https://finance.yahoo.com", "", ""},
	}
	for _, tc := range cases {
		if got := absoluteURL(tc.base, tc.href); got != tc.want {
			t.Errorf("absoluteURL(%q, %q) = %q, want %q", tc.base, tc.href, got, tc.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	if d := domainOf("https://www.marketwatch.com/investing"); d != "www.marketwatch.com" {
		t.Errorf("unexpected domain %q", d)
	}
}

func TestNewScraperDefaults(t *testing.T) {
	s := NewScraper(10 * time.Second)
	if len(s.sources) == 0 {
		t.Fatal("expected default sources")
	}
	for _, src := range s.sources {
		if src.Selectors.Container == "" || src.Selectors.Title == "" {
			t.Errorf("source %s missing selectors", src.Name)
		}
	}
}
