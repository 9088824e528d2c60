// Package llm abstracts the text-generation backend used by the assistant.
package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no LLM backend is available.
var ErrNotConfigured = errors.New("llm backend not configured")

// Client generates a text completion for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
