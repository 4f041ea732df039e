package port

import "context"

// CompletionOptions tune a single completion call. Zero values mean
// provider defaults.
type CompletionOptions struct {
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// LLM represents a language model for text generation.
type LLM interface {
	// Complete generates text for the prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
