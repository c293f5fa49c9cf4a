// Package llm defines the completion-provider boundary. Handlers and the
// advisor never know which vendor is behind it; the provider is selected
// once, by configuration, at composition time.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a provider has no API key. Callers fall
// back to the deterministic heuristic rather than surfacing this.
var ErrNotConfigured = errors.New("llm provider not configured")

// Provider is a named text-completion backend.
type Provider interface {
	Name() string
	Invoke(ctx context.Context, prompt string) (string, error)
}
