// Package embed wraps the text-embedding model behind a lazily-initialized,
// process-wide handle. All vectors it produces are L2-normalized and exactly
// domain.EmbeddingDim long; blank text maps to an empty vector.
package embed

import "context"

// Embedder is the minimal surface the enricher and search consumers need.
type Embedder interface {
	// Embed returns the vector for text, or an empty vector for blank text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is a concrete embedding backend (a loaded model).
type Provider interface {
	Embedder

	// ModelName identifies the underlying model.
	ModelName() string

	// Dimensions is the vector length the backend produces.
	Dimensions() int
}
