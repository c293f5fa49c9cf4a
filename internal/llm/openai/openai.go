// Package openai implements the llm.Provider interface over the OpenAI
// chat-completions API, with the JSON-object response mode enabled so the
// model is forced to emit a single JSON document.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-insight-api/internal/api"
	"stock-insight-api/internal/llm"
	"stock-insight-api/internal/trace"
)

const defaultEndpoint = "https://api.openai.com/v1"

type Provider struct {
	client      *api.Client
	apiKey      string
	model       string
	maxTokens   int
	temperature float32
}

func New(apiKey, model string, maxTokens int, temperature float32) *Provider {
	return &Provider{
		client: api.NewClient(
			api.WithBaseURL(defaultEndpoint),
			api.WithTimeout(60*time.Second),
			api.WithHeader("Authorization", "Bearer "+apiKey),
		),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	if p.apiKey == "" {
		return "", llm.ErrNotConfigured
	}

	body := map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature":     p.temperature,
		"max_tokens":      p.maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	resp, err := p.client.POST(ctx, "/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}

	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
