package domain

import (
	"context"
	"strconv"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// EmbeddingScheme is the versioned embedding configuration injected once at
// startup. Stored vectors are tagged with its ID so a model or dimension
// change invalidates them instead of silently mixing geometries.
type EmbeddingScheme struct {
	Model      string
	Dimensions int
}

// ID returns the scheme tag persisted alongside each vector.
func (s EmbeddingScheme) ID() string {
	return s.Model + "/" + strconv.Itoa(s.Dimensions)
}
