package port

import "context"

// Embedder generates vector embeddings for text. An implementation wraps
// one provider/model pair; that pair names the cache namespace its vectors
// are stored under, so it must stay stable for the embedder's lifetime.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Provider returns the provider identifier (e.g. "openai").
	Provider() string
}
