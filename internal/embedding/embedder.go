package embedding

import "context"

// Embedder is the interface for embedding providers. Implementations treat a
// failed batch as retryable a fixed number of times, then fatal: the caller
// fails the whole operation rather than storing content without vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error)
	ModelID() string
}
