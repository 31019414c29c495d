package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or malformed query, rejected before any external call.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrNotFound signals an unknown resource (e.g. collection key).
	ErrNotFound = errors.New("not found")
	// ErrEmbeddingUnavailable signals that the query vector could not be produced.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCollectionUnavailable signals a collection whose index is not attached or unreachable.
	ErrCollectionUnavailable = errors.New("collection unavailable")
	// ErrIndexQueryFailed signals a failed nearest-neighbour query against one collection.
	ErrIndexQueryFailed = errors.New("index query failed")
)
