package movie

import (
	"context"
	"fmt"
	"strings"

	"github.com/kinolab/genrecast/internal/domain"
)

// KeyPrefix namespaces movie document keys; the vector index is created over it.
const KeyPrefix = "genrecast:movie:"

// scanChunkSize bounds the number of hashes fetched per DoMulti round-trip.
const scanChunkSize = 100

// store is the consumer interface for movie documents.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements movie document storage over flat hashes.
type Repo struct {
	store       store
	vectorField string
}

// New creates a movie repository. vectorField is the hash field the external
// vector index was created over.
func New(s store, vectorField string) *Repo {
	return &Repo{store: s, vectorField: vectorField}
}

// MissingEmbeddings returns up to limit movies that have a plot but no
// embedding for the given scheme. A vector tagged with a retired scheme counts
// as missing, per the staleness invariant.
func (r *Repo) MissingEmbeddings(ctx context.Context, scheme string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		return nil, nil
	}

	keys, err := r.store.Scan(ctx, KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan movies: %w", err)
	}

	out := make([]domain.Movie, 0, limit)
	for start := 0; start < len(keys) && len(out) < limit; start += scanChunkSize {
		end := min(start+scanChunkSize, len(keys))
		chunk := keys[start:end]

		hashes, err := r.store.HGetAllMulti(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("fetch movies: %w", err)
		}

		for i, m := range hashes {
			doc := parseHashFields(docID(chunk[i]), m, r.vectorField)
			if doc.FullPlot == "" || doc.HasEmbedding(scheme) {
				continue
			}
			out = append(out, doc)
			if len(out) == limit {
				break
			}
		}
	}

	return out, nil
}

// SetEmbedding persists a vector onto one movie as a point update.
// With ifAbsent set the vector is written only when the field is still empty
// (overlapping reconcile runs then skip instead of overwriting); a stale-scheme
// rewrite passes ifAbsent=false and overwrites unconditionally.
// Returns false when an if-absent write found the vector already present.
func (r *Repo) SetEmbedding(
	ctx context.Context, id string, vec []float32, scheme string, ifAbsent bool,
) (bool, error) {
	key := KeyPrefix + id
	blob := vectorToBytes(vec)

	if ifAbsent {
		set, err := r.store.HSetNX(ctx, key, r.vectorField, blob)
		if err != nil {
			return false, fmt.Errorf("set embedding %s: %w", id, err)
		}
		if !set {
			return false, nil
		}
		if err := r.store.HSet(ctx, key, map[string]string{FieldScheme: scheme}); err != nil {
			return false, fmt.Errorf("tag scheme %s: %w", id, err)
		}
		return true, nil
	}

	fields := map[string]string{
		r.vectorField: blob,
		FieldScheme:   scheme,
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, fmt.Errorf("set embedding %s: %w", id, err)
	}
	return true, nil
}

func docID(key string) string {
	return strings.TrimPrefix(key, KeyPrefix)
}
