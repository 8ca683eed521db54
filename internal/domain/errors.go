package domain

import "errors"

var (
	// ErrEmbeddingProvider signals an embedding provider failure
	// (unreachable API, malformed or miscounted response).
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a vector whose length differs from the configured dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrStoreWrite signals a record store write failure.
	ErrStoreWrite = errors.New("store write failed")
	// ErrStoreQuery signals a record store query failure.
	ErrStoreQuery = errors.New("store query failed")
	// ErrIndexNotFound signals a missing index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrInputFormat signals a malformed source record. Skipped with a warning, never fatal.
	ErrInputFormat = errors.New("malformed input record")
	// ErrInvalidQuery signals an invalid query request.
	ErrInvalidQuery = errors.New("invalid query")
)
