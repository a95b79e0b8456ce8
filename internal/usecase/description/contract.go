package description

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// Repository is the similarity index over description records.
type Repository interface {
	Reset(ctx context.Context, dim int) error
	Upsert(ctx context.Context, records []domain.DescriptionRecord) error
	SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.Hit, error)
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
