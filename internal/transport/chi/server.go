package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kinolab/genrecast/internal/domain"
	classifyuc "github.com/kinolab/genrecast/internal/usecase/classify"
	healthuc "github.com/kinolab/genrecast/internal/usecase/health"
	reconcileuc "github.com/kinolab/genrecast/internal/usecase/reconcile"
	"github.com/kinolab/genrecast/internal/version"
)

// Server exposes the classification API over chi.
type Server struct {
	classify *classifyuc.Service
	sync     *reconcileuc.Service
	health   *healthuc.Service
	scheme   domain.EmbeddingScheme
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	classify *classifyuc.Service,
	sync *reconcileuc.Service,
	health *healthuc.Service,
	scheme domain.EmbeddingScheme,
	logger *zap.Logger,
) *Server {
	return &Server{
		classify: classify,
		sync:     sync,
		health:   health,
		scheme:   scheme,
		logger:   logger,
	}
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/classify", s.handleClassify)
	r.Post("/admin/sync-embeddings", s.handleSyncTrigger)
	r.Get("/admin/sync-embeddings", s.handleSyncStatus)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// classifyRequest is the POST /classify body.
type classifyRequest struct {
	Description string `json:"description"`
}

// matchResponse is one ranked neighbor in the classify response.
type matchResponse struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
	Score  float64  `json:"score"`
}

// classifyResponse is the POST /classify success body.
type classifyResponse struct {
	InputDescription string          `json:"input_description"`
	PredictedGenre   string          `json:"predicted_genre"`
	Confidence       *float64        `json:"confidence"`
	Matches          []matchResponse `json:"matches"`
	Message          string          `json:"message,omitempty"`
}

// errorResponse carries a diagnostic detail string, FastAPI-style.
type errorResponse struct {
	Detail string `json:"detail"`
}

// syncTriggerRequest is the optional POST /admin/sync-embeddings body.
type syncTriggerRequest struct {
	BatchSize int `json:"batch_size"`
}

// syncTriggerResponse acknowledges an asynchronous reconciliation run.
type syncTriggerResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// healthResponse is the GET /health body. Always returned with 200; readiness
// degrades field by field instead of failing the endpoint.
type healthResponse struct {
	Status     string                          `json:"status"`
	Checks     map[string]healthuc.CheckResult `json:"checks"`
	Model      string                          `json:"model"`
	Dimensions int                             `json:"dimensions"`
	Version    string                          `json:"version"`
}

// handleClassify handles POST /classify.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.classify.Classify(r.Context(), req.Description)
	if err != nil {
		s.handleClassifyError(w, err)
		return
	}

	matches := make([]matchResponse, len(result.Matches))
	for i, m := range result.Matches {
		matches[i] = matchResponse{Title: m.Title, Genres: m.Genres, Score: m.Score}
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		InputDescription: result.Input,
		PredictedGenre:   result.Genre,
		Confidence:       result.Confidence,
		Matches:          matches,
		Message:          result.Message,
	})
}

// handleClassifyError maps stage failures to the wire contract: invalid input
// is a client error; embedding and index failures are server errors whose
// detail names the failing stage without leaking provider internals.
func (s *Server) handleClassifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "description must not be empty")
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		s.logger.Error("classify failed", zap.String("stage", "embedding"), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "embedding unavailable")
	case errors.Is(err, domain.ErrIndexNotConfigured):
		s.logger.Error("classify failed", zap.String("stage", "search"), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "vector index not configured")
	case errors.Is(err, domain.ErrIndexUnavailable):
		s.logger.Error("classify failed", zap.String("stage", "search"), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "vector search unavailable")
	default:
		s.logger.Error("classify failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handleSyncTrigger handles POST /admin/sync-embeddings. The reconciliation
// run is started asynchronously; the response never waits for it.
func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	var req syncTriggerRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	status, err := s.sync.Trigger(req.BatchSize)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, "embedding sync already in progress")
			return
		}
		s.logger.Error("sync trigger failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, syncTriggerResponse{
		Message: "embedding sync started",
		JobID:   status.JobID,
	})
}

// handleSyncStatus handles GET /admin/sync-embeddings.
func (s *Server) handleSyncStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sync.Status())
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, healthResponse{
		Status:     string(report.Status),
		Checks:     report.Checks,
		Model:      s.scheme.Model,
		Dimensions: s.scheme.Dimensions,
		Version:    version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
