package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for multiple text strings in a
	// single batched call. The returned slice has the same length and order
	// as the input. A failure on any item fails the whole batch; the batch
	// is the unit of retry.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a natural-language answer from a prompt pair.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate invokes the model with a system prompt and a user prompt.
	// The returned answer is validated to be non-empty before being treated
	// as success. Deterministic given identical inputs at temperature 0.
	Generate(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Generator instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
