// Package embedder converts free text into fixed-dimension embedding vectors.
//
// Implementations must be deterministic for a fixed model version: identical
// text always yields an identical vector. The model behind an Embedder is a
// process-wide resource, constructed once at startup and passed by handle to
// every component that needs it.
package embedder

import "context"

// Embedder converts a single text into an embedding vector of fixed length.
type Embedder interface {
	// Embed converts text to an embedding vector. The caller is responsible
	// for rejecting empty input before reaching the model.
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName identifies the underlying model version.
	ModelName() string
}
