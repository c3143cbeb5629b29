package llm

import "context"

// Provider defines the model operations the pipeline needs. Implementations
// bind concrete model names at construction time.
type Provider interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)
	// Generate generates a completion for the given system and user prompt
	Generate(ctx context.Context, system string, prompt string) (string, error)
}
