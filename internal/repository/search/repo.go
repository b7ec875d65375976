package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kinolab/genrecast/internal/db"
	"github.com/kinolab/genrecast/internal/domain"
)

// store is the consumer interface for search operations.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo adapts the store's KNN capability to the classifier's candidate model.
// It neither reorders nor filters results; ranking belongs to the index.
type Repo struct {
	store       store
	indexName   string
	vectorField string
}

// New creates a vector search repository against the named external index.
func New(s store, indexName, vectorField string) *Repo {
	return &Repo{store: s, indexName: indexName, vectorField: vectorField}
}

// Nearest returns up to limit candidates ranked by descending similarity.
// poolSize is the approximate-search breadth (candidate pool); fewer than
// limit hits, including zero, is a valid result.
func (r *Repo) Nearest(
	ctx context.Context, vector []float32, limit, poolSize int,
) ([]domain.SearchCandidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  r.vectorField,
		Vector:       vector,
		K:            limit,
		PoolSize:     poolSize,
		ReturnFields: []string{"title", "genres"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %q: %w", r.indexName, domain.ErrIndexNotConfigured)
		}
		return nil, fmt.Errorf("knn query %q: %w", r.indexName, domain.ErrIndexUnavailable)
	}

	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	candidates := make([]domain.SearchCandidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		candidates = append(candidates, domain.SearchCandidate{
			Title:  entry.Fields["title"],
			Genres: splitGenres(entry.Fields["genres"]),
			Score:  entry.Score,
		})
	}

	return candidates, nil
}

// Configured reports whether the named vector index exists.
func (r *Repo) Configured(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return false, fmt.Errorf("index info %q: %w", r.indexName, err)
	}
	return ok, nil
}

// splitGenres parses the comma-separated genres tag field, preserving order.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
