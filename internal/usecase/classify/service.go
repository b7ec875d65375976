package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kinolab/genrecast/internal/domain"
	"github.com/kinolab/genrecast/internal/logger"
	"github.com/kinolab/genrecast/internal/metrics"
)

// Defaults for neighbor count and stage timeouts.
const (
	DefaultLimit        = 5
	DefaultEmbedTimeout = 10 * time.Second
	DefaultQueryTimeout = 5 * time.Second
)

// NoMatchesMessage explains an empty (but successful) classification.
const NoMatchesMessage = "no similar movies found"

// Service orchestrates a classify request: embed the description, query the
// vector index, majority-vote over the neighbors' genres. The service is
// stateless and read-only; concurrent requests share nothing but the injected
// collaborators.
type Service struct {
	repo         Repository
	embed        Embedder
	limit        int
	poolSize     int
	embedTimeout time.Duration
	queryTimeout time.Duration
}

// New creates a classification service with default tuning.
func New(repo Repository, embed Embedder) *Service {
	return &Service{
		repo:         repo,
		embed:        embed,
		limit:        DefaultLimit,
		embedTimeout: DefaultEmbedTimeout,
		queryTimeout: DefaultQueryTimeout,
	}
}

// WithLimit sets the neighbor count used for the vote.
func (s *Service) WithLimit(limit int) *Service {
	if limit > 0 {
		s.limit = limit
	}
	return s
}

// WithPoolSize sets the ANN candidate pool breadth. 0 keeps the derived default.
func (s *Service) WithPoolSize(size int) *Service {
	if size > 0 {
		s.poolSize = size
	}
	return s
}

// WithTimeouts overrides the per-stage timeouts.
func (s *Service) WithTimeouts(embed, query time.Duration) *Service {
	if embed > 0 {
		s.embedTimeout = embed
	}
	if query > 0 {
		s.queryTimeout = query
	}
	return s
}

// Classify predicts a genre for a free-text movie description.
// Empty or whitespace-only text fails with ErrInvalidInput before any
// collaborator is called. Zero search hits is a success with the Unknown
// label, not an error. One embedding attempt per call; retries belong to the
// caller.
func (s *Service) Classify(ctx context.Context, text string) (domain.Classification, error) {
	log := logger.FromContext(ctx)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		metrics.ClassificationsTotal.WithLabelValues("invalid_input").Inc()
		return domain.Classification{}, fmt.Errorf("empty description: %w", domain.ErrInvalidInput)
	}

	embCtx, cancelEmbed := context.WithTimeout(ctx, s.embedTimeout)
	defer cancelEmbed()

	embResult, err := s.embed.Embed(embCtx, trimmed)
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues("embedding_error").Inc()
		log.Error("classify stage failed", zap.String("stage", "embedding"), zap.Error(err))
		return domain.Classification{}, fmt.Errorf("embed description: %w", err)
	}

	// Once issued, the index query runs to completion even if the caller
	// drops the connection; the timeout still bounds it. Abandoning a query
	// mid-flight risks index-side resource leaks.
	queryCtx, cancelQuery := context.WithTimeout(context.WithoutCancel(ctx), s.queryTimeout)
	defer cancelQuery()

	candidates, err := s.repo.Nearest(queryCtx, embResult.Embedding, s.limit, s.pool())
	if err != nil {
		metrics.ClassificationsTotal.WithLabelValues("index_error").Inc()
		log.Error("classify stage failed", zap.String("stage", "search"), zap.Error(err))
		return domain.Classification{}, fmt.Errorf("search neighbors: %w", err)
	}

	result := domain.Classification{
		Input:   trimmed,
		Genre:   PredictGenre(candidates),
		Matches: candidates,
	}

	if len(candidates) == 0 {
		result.Message = NoMatchesMessage
		metrics.ClassificationsTotal.WithLabelValues("unknown").Inc()
		return result, nil
	}

	confidence := candidates[0].Score
	result.Confidence = &confidence

	if result.Genre == domain.UnknownGenre {
		metrics.ClassificationsTotal.WithLabelValues("unknown").Inc()
	} else {
		metrics.ClassificationsTotal.WithLabelValues("ok").Inc()
	}

	return result, nil
}

// pool returns the configured candidate pool size, deriving max(100, 20*limit)
// when unset. The pool must always cover the requested limit.
func (s *Service) pool() int {
	if s.poolSize >= s.limit && s.poolSize > 0 {
		return s.poolSize
	}
	return max(100, 20*s.limit)
}
