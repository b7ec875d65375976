package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinolab/genrecast/internal/domain"
	"github.com/kinolab/genrecast/internal/metrics"
)

// Defaults for batch size and worker pool width.
const (
	DefaultBatchSize = 50
	DefaultWorkers   = 4
)

// Summary reports the outcome of one reconciliation run.
type Summary struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// State is the lifecycle of an asynchronous run.
type State string

const (
	// StateIdle means no run has been triggered yet.
	StateIdle State = "idle"
	// StateRunning means a run is in flight.
	StateRunning State = "running"
	// StateCompleted means the last run finished.
	StateCompleted State = "completed"
	// StateFailed means the last run aborted before processing its batch.
	StateFailed State = "failed"
)

// Status is a pollable snapshot of the most recent run.
type Status struct {
	JobID      string    `json:"job_id,omitempty"`
	State      State     `json:"state"`
	BatchSize  int       `json:"batch_size,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
}

// Service backfills missing embeddings in bounded, resumable batches.
// Selection is always "no current-scheme embedding", so repeated runs
// converge and never revisit a document that already has a vector.
type Service struct {
	repo      Repository
	embed     Embedder
	scheme    domain.EmbeddingScheme
	batchSize int
	workers   int
	logger    *zap.Logger

	mu     sync.Mutex
	status Status
}

// New creates a reconciliation service.
func New(repo Repository, embed Embedder, scheme domain.EmbeddingScheme, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		embed:     embed,
		scheme:    scheme,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		logger:    logger,
		status:    Status{State: StateIdle},
	}
}

// WithBatchSize configures the per-invocation document cap.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// WithWorkers configures the embedding worker pool width.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Run processes at most batchSize documents and returns; draining the whole
// backlog is the scheduler's business, which bounds per-invocation latency and
// provider load. One document's failure never aborts the batch. batchSize <= 0
// uses the configured default.
func (s *Service) Run(ctx context.Context, batchSize int) (Summary, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	docs, err := s.repo.MissingEmbeddings(ctx, s.scheme.ID(), batchSize)
	if err != nil {
		return Summary{}, fmt.Errorf("select documents: %w", err)
	}

	summary := Summary{Scanned: len(docs)}
	if len(docs) == 0 {
		return summary, nil
	}

	workers := min(s.workers, len(docs))
	jobs := make(chan domain.Movie)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				updated := s.process(ctx, &doc)
				mu.Lock()
				if updated {
					summary.Updated++
				} else {
					summary.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	// Cancellation is checked between documents, never mid-document: an
	// in-flight update is always carried to its per-document atomic end.
feed:
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- doc:
		}
	}
	close(jobs)
	wg.Wait()

	// Documents never handed to a worker were not processed at all.
	summary.Scanned = summary.Updated + summary.Failed

	return summary, nil
}

// process embeds one document's plot and persists the vector. Returns false
// on failure, leaving the document unmodified for a later run.
func (s *Service) process(ctx context.Context, doc *domain.Movie) bool {
	embResult, err := s.embed.Embed(ctx, doc.FullPlot)
	if err != nil {
		metrics.ReconcileDocumentsTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("embedding backfill failed",
			zap.String("movie_id", doc.ID),
			zap.Error(err),
		)
		return false
	}

	// A stale-scheme vector is overwritten; an absent one is written only if
	// still absent, so overlapping runs skip instead of redoing the update.
	ifAbsent := len(doc.Embedding) == 0
	wrote, err := s.repo.SetEmbedding(ctx, doc.ID, embResult.Embedding, s.scheme.ID(), ifAbsent)
	if err != nil {
		metrics.ReconcileDocumentsTotal.WithLabelValues("failed").Inc()
		s.logger.Warn("embedding persist failed",
			zap.String("movie_id", doc.ID),
			zap.Error(err),
		)
		return false
	}
	if !wrote {
		metrics.ReconcileDocumentsTotal.WithLabelValues("skipped").Inc()
		return true
	}

	metrics.ReconcileDocumentsTotal.WithLabelValues("updated").Inc()
	return true
}

// Trigger starts an asynchronous run and returns immediately with its status.
// A second trigger while a run is in flight fails with ErrSyncInProgress.
// The run detaches from the caller's context: an HTTP trigger returning must
// not kill the batch.
func (s *Service) Trigger(batchSize int) (Status, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	s.mu.Lock()
	if s.status.State == StateRunning {
		st := s.status
		s.mu.Unlock()
		return st, domain.ErrSyncInProgress
	}
	st := Status{
		JobID:     uuid.NewString(),
		State:     StateRunning,
		BatchSize: batchSize,
		StartedAt: time.Now().UTC(),
	}
	s.status = st
	s.mu.Unlock()

	go func() {
		summary, err := s.Run(context.Background(), batchSize)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.status.FinishedAt = time.Now().UTC()
		s.status.Summary = summary
		if err != nil {
			s.status.State = StateFailed
			s.status.Error = err.Error()
			s.logger.Error("embedding sync failed", zap.String("job_id", st.JobID), zap.Error(err))
			return
		}
		s.status.State = StateCompleted
		s.logger.Info("embedding sync finished",
			zap.String("job_id", st.JobID),
			zap.Int("scanned", summary.Scanned),
			zap.Int("updated", summary.Updated),
			zap.Int("failed", summary.Failed),
		)
	}()

	return st, nil
}

// Status returns a snapshot of the most recent run.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
