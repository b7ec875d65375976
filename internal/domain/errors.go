package domain

import "errors"

var (
	// ErrInvalidInput signals a malformed or empty request; never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbeddingUnavailable signals an embedding provider failure
	// (outage, quota, malformed or wrong-shaped response).
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexUnavailable signals a transient vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrIndexNotConfigured signals a missing vector index or field path.
	// It is an operator misconfiguration, distinct from "no results".
	ErrIndexNotConfigured = errors.New("vector index not configured")
	// ErrSyncInProgress signals that a reconciliation run is already in flight.
	ErrSyncInProgress = errors.New("embedding sync already in progress")
)
