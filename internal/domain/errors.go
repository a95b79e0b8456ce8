package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals unusable recommendation input (empty text, unknown tone or category).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrMalformedRecord signals an indexed description whose leading token is not an ISBN.
	ErrMalformedRecord = errors.New("malformed description record")
	// ErrCatalogInvalid signals a catalog file that cannot be loaded.
	ErrCatalogInvalid = errors.New("invalid catalog")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals vectors of inconsistent dimensions.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
