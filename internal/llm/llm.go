// Package llm abstracts the completion provider behind a single interface so
// the analyzer and the marketing generator never depend on a vendor SDK.
package llm

import (
	"context"
	"fmt"
)

// Completer issues a single text completion for a system instruction and a
// user prompt. Implementations return the raw model text; callers own any
// parsing of it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// New returns the configured provider. A missing API key is a configuration
// error and fails here, before any per-item work starts.
func New(provider, apiKey, model string) (Completer, error) {
	switch provider {
	case "", "openai":
		return NewOpenAI(apiKey, model)
	case "gemini":
		return NewGemini(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
