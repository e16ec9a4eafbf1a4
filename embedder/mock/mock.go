// Package mock provides a deterministic embedder for tests and local
// development without real model files.
package mock

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hubenschmidt/go-recall/vector"
)

// Embedder generates deterministic pseudo-random embeddings from a text hash.
// Identical text always yields an identical vector; distinct texts yield
// distinct vectors with overwhelming probability. It carries no semantic
// signal, so it exercises plumbing rather than ranking quality.
type Embedder struct {
	dims int
}

// New creates a mock embedder with the given output dimension.
func New(dims int) *Embedder {
	return &Embedder{dims: dims}
}

// Embed creates a unit-length embedding seeded by the FNV hash of the text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float64, m.dims)
	for i := 0; i < m.dims; i++ {
		// Linear congruential step, mapped into [-1, 1].
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float64(int64(seed)) / float64(math.MaxInt64)
	}

	return vector.Normalize(embedding), nil
}

// Dimensions returns the embedding vector size.
func (m *Embedder) Dimensions() int {
	return m.dims
}

// ModelName identifies the mock model.
func (m *Embedder) ModelName() string {
	return "mock-hash-embedder"
}
