package driven

import (
	"context"
)

// EmbeddingService generates fixed-dimension text embeddings.
type EmbeddingService interface {
	// Embed generates an embedding for a single text (e.g. a user query).
	// Fails on empty/whitespace-only input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one provider
	// call. Order-preserving, result length always equals input length;
	// a provider returning a different count is a hard failure
	// (domain.ErrEmbeddingCountMismatch), never silently truncated.
	// Callers processing many segments must prefer this over N Embed calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension size, fixed per deployment
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
