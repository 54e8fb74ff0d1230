package driven

import "context"

// EmbeddingProvider generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
//
// Failures map onto domain.ErrRateLimited, domain.ErrUnavailable or
// domain.ErrProviderTimeout so the retry layer can classify them.
type EmbeddingProvider interface {
	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result is index-aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This is fixed by the model and must match the vector store's
	// collection configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
