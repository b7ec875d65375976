package reconcile

import (
	"context"

	"github.com/kinolab/genrecast/internal/domain"
)

// Repository defines the storage contract for the reconciliation job.
type Repository interface {
	// MissingEmbeddings selects up to limit movies with a plot and no
	// current-scheme embedding.
	MissingEmbeddings(ctx context.Context, scheme string, limit int) ([]domain.Movie, error)
	// SetEmbedding persists a vector onto one movie. ifAbsent makes the write
	// conditional on the vector field still being empty.
	SetEmbedding(ctx context.Context, id string, vec []float32, scheme string, ifAbsent bool) (bool, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
