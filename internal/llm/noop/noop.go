// Package noop is the provider used when no LLM key is configured. It always
// fails, which routes every recommendation through the deterministic
// fallback heuristic.
package noop

import (
	"context"

	"stock-insight-api/internal/llm"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (*Provider) Name() string { return "noop" }

func (*Provider) Invoke(ctx context.Context, prompt string) (string, error) {
	return "", llm.ErrNotConfigured
}
