package llm

import (
	"context"
	"errors"
)

// Completer sends a prompt to a text-generation service and returns the raw
// reply. Implementations do not retry; callers decide how to treat errors.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm prompt client not configured")

// PlaceholderClient is used when no provider is configured. Every call fails,
// so screening settles on its safe default.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

var (
	_ Completer = PlaceholderClient{}
	_ Completer = CompleterFunc(nil)
)
