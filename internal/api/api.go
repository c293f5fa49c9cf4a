package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stock-insight-api/internal/logger"
)

// StatusError is returned for non-2xx upstream responses so callers can
// mirror the upstream status code instead of collapsing everything to 500.
type StatusError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, string(e.Body))
}

// Client is a thin HTTP client shared by the market-data, news and LLM
// transports.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Response is what callers get back on any 2xx answer.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

func (c *Client) do(ctx context.Context, method, url string, body any, headers map[string]string) (*Response, error) {
	fullURL := url
	if c.baseURL != "" {
		fullURL = c.baseURL + url
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	logger.Debug(ctx, "HTTP request",
		"method", method,
		"url", fullURL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"body_size", len(respBody))

	if resp.StatusCode >= 400 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody, URL: fullURL}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}

func (c *Client) GET(ctx context.Context, url string, headers ...map[string]string) (*Response, error) {
	var h map[string]string
	if len(headers) > 0 {
		h = headers[0]
	}
	return c.do(ctx, http.MethodGet, url, nil, h)
}

func (c *Client) POST(ctx context.Context, url string, body any, headers ...map[string]string) (*Response, error) {
	var h map[string]string
	if len(headers) > 0 {
		h = headers[0]
	}
	return c.do(ctx, http.MethodPost, url, body, h)
}

// GetJSON performs a GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.GET(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}
