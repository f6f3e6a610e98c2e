// Package llm provides the language model client used by the
// generation and analysis pipelines, plus the structured output
// decoder for model responses that must be JSON.
package llm

import "context"

// Client defines the minimal interface the pipelines use to call a
// language model.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// CompleteJSON behaves like CompleteWithSystem but asks the model
	// for a JSON response body.
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
