// Package description builds and queries the description similarity index.
package description

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

const defaultBatchSize = 256

// Service embeds description records into the index and answers similarity queries.
type Service struct {
	repo          Repository
	docEmbedder   Embedder
	queryEmbedder Embedder
	batchSize     int
	logger        *zap.Logger
}

// New creates a description service.
func New(repo Repository, docEmbedder, queryEmbedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:          repo,
		docEmbedder:   docEmbedder,
		queryEmbedder: queryEmbedder,
		batchSize:     defaultBatchSize,
		logger:        logger,
	}
}

// WithBatchSize sets how many records are embedded and written per round.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Build replaces the index contents with lines, one record per line in order.
// Any embedding or storage failure aborts the whole build.
func (s *Service) Build(ctx context.Context, lines []string) error {
	start := time.Now()

	if len(lines) == 0 {
		return errors.New("build index: no description records")
	}

	dim := 0
	for offset := 0; offset < len(lines); offset += s.batchSize {
		end := min(offset+s.batchSize, len(lines))
		chunk := lines[offset:end]

		res, err := domain.EmbedAll(ctx, s.docEmbedder, chunk)
		if err != nil {
			return fmt.Errorf("embed records %d-%d: %w", offset, end-1, err)
		}
		if len(res.Embeddings) != len(chunk) {
			return fmt.Errorf("embed records %d-%d: got %d vectors: %w",
				offset, end-1, len(res.Embeddings), domain.ErrEmbeddingProviderError)
		}

		if dim == 0 {
			dim = len(res.Embeddings[0])
			if dim == 0 {
				return fmt.Errorf("embed records: empty vector: %w", domain.ErrEmbeddingProviderError)
			}
			if err := s.repo.Reset(ctx, dim); err != nil {
				return fmt.Errorf("reset index: %w", err)
			}
		}

		records := make([]domain.DescriptionRecord, len(chunk))
		for i, text := range chunk {
			vec := res.Embeddings[i]
			if len(vec) != dim {
				return fmt.Errorf("record %d: got %d dims, want %d: %w",
					offset+i, len(vec), dim, domain.ErrVectorDimMismatch)
			}
			records[i] = domain.DescriptionRecord{Line: offset + i, Content: text, Vector: vec}
		}

		if err := s.repo.Upsert(ctx, records); err != nil {
			return fmt.Errorf("store records %d-%d: %w", offset, end-1, err)
		}

		s.logger.Debug("Indexed description batch",
			zap.Int("offset", offset),
			zap.Int("size", len(chunk)),
			zap.Int("total_tokens", res.TotalTokens),
		)
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}

	elapsed := time.Since(start)
	metrics.IndexRecords.Set(float64(count))
	metrics.IndexBuildDuration.Set(elapsed.Seconds())

	s.logger.Info("Description index built",
		zap.Int("records", count),
		zap.Int("dimensions", dim),
		zap.Duration("duration", elapsed),
	)
	return nil
}

// Search embeds text and returns the k most similar records.
func (s *Service) Search(ctx context.Context, text string, k int) ([]domain.Hit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty query text: %w", domain.ErrInvalidQuery)
	}

	res, err := s.queryEmbedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	hits, err := s.repo.SearchKNN(ctx, res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return hits, nil
}
