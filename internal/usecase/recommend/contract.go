package recommend

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// Searcher returns description hits ordered by descending similarity.
type Searcher interface {
	Search(ctx context.Context, text string, k int) ([]domain.Hit, error)
}
