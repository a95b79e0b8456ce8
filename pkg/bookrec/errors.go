package bookrec

import "github.com/kailas-cloud/bookrec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrMalformedRecord        = domain.ErrMalformedRecord
	ErrCatalogInvalid         = domain.ErrCatalogInvalid
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
)
