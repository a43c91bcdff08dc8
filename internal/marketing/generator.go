// Package marketing drafts short promotional review copy and translations.
// One templated prompt, one completion, no state.
package marketing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwalser/flugblick/internal/llm"
	"github.com/mwalser/flugblick/internal/metrics"
)

const systemPrompt = `You write short, warm marketing copy for a tandem paragliding operation.
Keep it under 80 words. Return only the text itself, no quotes and no preamble.`

// Generator produces marketing drafts via the completion provider.
type Generator struct {
	completer llm.Completer
}

func New(completer llm.Completer) *Generator {
	return &Generator{completer: completer}
}

// DraftOptions steer the generated review.
type DraftOptions struct {
	Tone      string // e.g. "enthusiastic", "calm"
	Highlight string // aspect to emphasize, e.g. "the views"
	Language  string // empty means English
}

// Draft generates one short marketing review.
func (g *Generator) Draft(ctx context.Context, opts DraftOptions) (string, error) {
	var b strings.Builder
	b.WriteString("Draft a short customer-style review of a tandem paragliding flight.")
	if opts.Tone != "" {
		fmt.Fprintf(&b, " Tone: %s.", opts.Tone)
	}
	if opts.Highlight != "" {
		fmt.Fprintf(&b, " Emphasize %s.", opts.Highlight)
	}
	if opts.Language != "" {
		fmt.Fprintf(&b, " Write it in %s.", opts.Language)
	}
	return g.complete(ctx, "draft", b.String())
}

// Translate renders existing copy in another language, keeping tone and length.
func (g *Generator) Translate(ctx context.Context, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("nothing to translate")
	}
	prompt := fmt.Sprintf("Translate the following text into %s, keeping tone and length:\n\n%s", language, text)
	return g.complete(ctx, "translate", prompt)
}

func (g *Generator) complete(ctx context.Context, operation, prompt string) (string, error) {
	start := time.Now()
	out, err := g.completer.Complete(ctx, systemPrompt, prompt)
	metrics.LLMCallLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(operation, "error").Inc()
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	metrics.LLMCallsTotal.WithLabelValues(operation, "ok").Inc()
	return strings.TrimSpace(out), nil
}
