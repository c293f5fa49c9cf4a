package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all tunables. Secrets come from the environment, everything
// else from config.yaml.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	MarketData struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"market_data"`

	News struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"news"`

	Cache struct {
		Backend    string `yaml:"backend"` // FILE or SQLITE
		Dir        string `yaml:"dir"`
		SQLitePath string `yaml:"sqlite_path"`

		// Max ages, tier by tier. Persistent entries live longer than the
		// memory copies in front of them.
		PredictionHours int `yaml:"prediction_hours"`
		DataMinutes     int `yaml:"data_minutes"`
		QuoteMinutes    int `yaml:"quote_minutes"`
		EarningsHours   int `yaml:"earnings_hours"`
		NewsMinutes     int `yaml:"news_minutes"`
	} `yaml:"cache"`

	LLM struct {
		Provider      string  `yaml:"provider"` // OPENAI, CLAUDE or NOOP
		Model         string  `yaml:"model"`
		MaxTokens     int     `yaml:"max_tokens"`
		Temperature   float32 `yaml:"temperature"`
		CacheTTLHours int     `yaml:"cache_ttl_hours"`
	} `yaml:"llm"`

	// Populated from the environment at load time.
	MarketDataAPIKey string `yaml:"-"`
	NewsAPIKey       string `yaml:"-"`
	OpenAIAPIKey     string `yaml:"-"`
	ClaudeAPIKey     string `yaml:"-"`
}

func (c *Config) Validate() error {
	if c.Cache.Backend != "FILE" && c.Cache.Backend != "SQLITE" {
		return fmt.Errorf("invalid cache.backend '%s': must be 'FILE' or 'SQLITE'", c.Cache.Backend)
	}
	switch c.LLM.Provider {
	case "OPENAI", "CLAUDE", "NOOP":
	default:
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI', 'CLAUDE' or 'NOOP'", c.LLM.Provider)
	}
	if c.LLM.CacheTTLHours < 1 || c.LLM.CacheTTLHours > 12 {
		return fmt.Errorf("llm.cache_ttl_hours must be between 1 and 12, got %d", c.LLM.CacheTTLHours)
	}
	return nil
}

// Load reads config.yaml, applies defaults, pulls secrets from the
// environment and validates the result.
func Load(path string) (*Config, error) {
	var c Config

	if b, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.MarketData.BaseURL == "" {
		c.MarketData.BaseURL = "https://financialmodelingprep.com/api/v3"
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org/v2"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "FILE"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = os.TempDir() + "/stock-insight-cache"
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "cache.db"
	}
	if c.Cache.PredictionHours == 0 {
		c.Cache.PredictionHours = 24
	}
	if c.Cache.DataMinutes == 0 {
		c.Cache.DataMinutes = 30
	}
	if c.Cache.QuoteMinutes == 0 {
		c.Cache.QuoteMinutes = 5
	}
	if c.Cache.EarningsHours == 0 {
		c.Cache.EarningsHours = 12
	}
	if c.Cache.NewsMinutes == 0 {
		c.Cache.NewsMinutes = 30
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case "CLAUDE":
			c.LLM.Model = "claude-3-haiku-20240307"
		default:
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.CacheTTLHours == 0 {
		c.LLM.CacheTTLHours = 12
	}

	c.MarketDataAPIKey = os.Getenv("FMP_API_KEY")
	c.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.ClaudeAPIKey = os.Getenv("CLAUDE_API_KEY")

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
