package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kinolab/genrecast/internal/config"
	"github.com/kinolab/genrecast/internal/db"
	dbRedis "github.com/kinolab/genrecast/internal/db/redis"
	"github.com/kinolab/genrecast/internal/domain"
	logpkg "github.com/kinolab/genrecast/internal/logger"
	"github.com/kinolab/genrecast/internal/metrics"
	"github.com/kinolab/genrecast/internal/repository/embcache"
	movierepo "github.com/kinolab/genrecast/internal/repository/movie"
	searchrepo "github.com/kinolab/genrecast/internal/repository/search"
	chiTransport "github.com/kinolab/genrecast/internal/transport/chi"
	openaiEmb "github.com/kinolab/genrecast/internal/transport/openai"
	classifyuc "github.com/kinolab/genrecast/internal/usecase/classify"
	healthuc "github.com/kinolab/genrecast/internal/usecase/health"
	reconcileuc "github.com/kinolab/genrecast/internal/usecase/reconcile"
	"github.com/kinolab/genrecast/internal/version"
)

func main() {
	// Load .env before reading ENV and expanding config variables
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	scheme := domain.EmbeddingScheme{
		Model:      cfg.Embedding.Vectorizer.Model,
		Dimensions: cfg.Embedding.Vectorizer.Dimensions,
	}

	logger.Info("Starting genrecast API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_scheme", scheme.ID()),
		zap.String("vector_index", cfg.Index.Name),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.Register()

	embedder, embHealth := buildEmbedder(cfg, scheme, store, logger)

	movieRepo := movierepo.New(store, cfg.Index.VectorField)
	searchRepo := searchrepo.New(store, cfg.Index.Name, cfg.Index.VectorField)

	classifySvc := classifyuc.New(searchRepo, embedder).
		WithLimit(cfg.Classify.Limit).
		WithPoolSize(cfg.Classify.PoolSize).
		WithTimeouts(
			time.Duration(cfg.Classify.EmbedTimeoutSec)*time.Second,
			time.Duration(cfg.Classify.QueryTimeoutSec)*time.Second,
		)

	syncSvc := reconcileuc.New(movieRepo, embedder, scheme, logger).
		WithBatchSize(cfg.Reconcile.BatchSize).
		WithWorkers(cfg.Reconcile.Workers)

	healthSvc := healthuc.New(store, searchRepo, embHealth)

	server := chiTransport.NewServer(classifySvc, syncSvc, healthSvc, scheme, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI -> Cached (optional).
// A missing credential degrades the service instead of crashing it: every
// classify call reports the provider unavailable and /health shows it not ready.
func buildEmbedder(
	cfg config.Config,
	scheme domain.EmbeddingScheme,
	store db.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	if cfg.Embedding.Provider.APIKey == "" {
		logger.Warn("Embedding credential missing; classify will be unavailable")
		return openaiEmb.Disabled{}, openaiEmb.Disabled{}
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.Provider.APIKey,
		BaseURL:    cfg.Embedding.Provider.BaseURL,
		Model:      scheme.Model,
		Dimensions: scheme.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Embedding.CacheEnabled {
		embedder = embcache.New(base, store, scheme, metrics.EmbeddingCacheTotal, logger)
	}

	logger.Info("Embedder created",
		zap.String("model", scheme.Model),
		zap.Int("dimensions", scheme.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheEnabled),
	)

	return embedder, base
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"detail": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
