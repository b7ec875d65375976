package health

import "context"

// DBPinger checks document store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker verifies that the vector index exists.
type IndexChecker interface {
	Configured(ctx context.Context) (bool, error)
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
