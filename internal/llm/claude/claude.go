// Package claude implements the llm.Provider interface over the Anthropic
// messages API, which takes a top-level system string plus user messages.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"stock-insight-api/internal/api"
	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/trace"
)

const defaultEndpoint = "https://api.anthropic.com/v1"

const systemInstruction = "You are a financial analyst. Respond only with a single JSON object, no prose around it."

type Provider struct {
	client    *api.Client
	apiKey    string
	model     string
	maxTokens int
}

func New(apiKey, model string, maxTokens int) *Provider {
	endpoint := defaultEndpoint
	// Proxy/bedrock deployments can override the endpoint.
	if ep := os.Getenv("CLAUDE_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	return &Provider{
		client: api.NewClient(
			api.WithBaseURL(endpoint),
			api.WithTimeout(60*time.Second),
			api.WithHeader("x-api-key", apiKey),
			api.WithHeader("anthropic-version", "2023-06-01"),
		),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (p *Provider) Name() string { return "claude" }

func (p *Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	if p.apiKey == "" {
		return "", llm.ErrNotConfigured
	}

	body := map[string]any{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"system":     systemInstruction,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := p.client.POST(ctx, "/messages", body)
	if err != nil {
		return "", fmt.Errorf("claude: %w", err)
	}

	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return "", fmt.Errorf("claude: decode response: %w", err)
	}

	for _, block := range r.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", errors.New("claude: no text content in response")
}
