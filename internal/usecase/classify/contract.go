package classify

import (
	"context"

	"github.com/kinolab/genrecast/internal/domain"
)

// Repository defines the vector index contract for classification.
type Repository interface {
	Nearest(ctx context.Context, vector []float32, limit, poolSize int) ([]domain.SearchCandidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
