package domain

import "errors"

var (
	// ErrValidation signals a malformed product (caller's fault, never retried).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFilter signals a malformed search filter.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrNotFound signals a missing product.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists signals a duplicate product id.
	ErrAlreadyExists = errors.New("product already exists")

	// ErrEmbedding signals an encoder failure or a degenerate zero vector.
	ErrEmbedding = errors.New("embedding failed")
	// ErrImageFetch signals a per-image download failure (non-fatal, image skipped).
	ErrImageFetch = errors.New("image fetch failed")

	// ErrIndexWrite signals that the vector or text backend rejected a write batch.
	ErrIndexWrite = errors.New("index write failed")
	// ErrIndexRead signals that the vector or text backend is unavailable for reads.
	ErrIndexRead = errors.New("index read failed")
	// ErrIndexing signals an aggregate ingestion failure; the product stays
	// not-fully-indexed and re-running the flow is safe.
	ErrIndexing = errors.New("indexing failed")
)
