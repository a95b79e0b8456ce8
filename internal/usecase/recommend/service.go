// Package recommend turns a free-text query into an ordered list of catalog books.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// Default result sizes.
const (
	DefaultInitialTopK = 50
	DefaultFinalTopK   = 16
)

// Request is one recommendation query. Empty Category and Tone mean "All".
type Request struct {
	Query       string
	Category    string
	Tone        string
	InitialTopK int
	FinalTopK   int
}

// Service answers recommendation queries against a fixed catalog.
type Service struct {
	catalog     *domain.Catalog
	searcher    Searcher
	initialTopK int
	finalTopK   int
}

// New creates a recommendation service.
func New(catalog *domain.Catalog, searcher Searcher) *Service {
	return &Service{
		catalog:     catalog,
		searcher:    searcher,
		initialTopK: DefaultInitialTopK,
		finalTopK:   DefaultFinalTopK,
	}
}

// WithDefaults overrides the top-k values used when a request leaves them unset.
func (s *Service) WithDefaults(initialTopK, finalTopK int) *Service {
	if initialTopK > 0 {
		s.initialTopK = initialTopK
	}
	if finalTopK > 0 {
		s.finalTopK = finalTopK
	}
	return s
}

// Categories returns the category choices: All followed by the catalog's sorted categories.
func (s *Service) Categories() []string {
	return append([]string{domain.AllCategories}, s.catalog.Categories()...)
}

// Recommend runs similarity search, joins hits to the catalog, filters by category
// and sorts by tone. An empty result is not an error.
func (s *Service) Recommend(ctx context.Context, req Request) ([]domain.Book, error) {
	books, tone, err := s.recommend(ctx, req)
	observe(tone, req.Category, len(books), err)
	return books, err
}

func observe(tone domain.Tone, category string, size int, err error) {
	status := "ok"
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		status = "invalid"
	case err != nil:
		status = "error"
	default:
		metrics.RecommendationResultSize.Observe(float64(size))
	}
	filtered := category != "" && category != domain.AllCategories
	metrics.RecommendationsTotal.WithLabelValues(string(tone), strconv.FormatBool(filtered), status).Inc()
}

func (s *Service) recommend(ctx context.Context, req Request) ([]domain.Book, domain.Tone, error) {
	tone, err := domain.ParseTone(req.Tone)
	if err != nil {
		return nil, domain.ToneAll, err
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, tone, fmt.Errorf("empty query: %w", domain.ErrInvalidQuery)
	}

	category := req.Category
	if category == "" {
		category = domain.AllCategories
	}
	if category != domain.AllCategories && !s.catalog.HasCategory(category) {
		return nil, tone, fmt.Errorf("unknown category %q: %w", category, domain.ErrInvalidQuery)
	}

	initialTopK, finalTopK := s.limits(req)

	hits, err := s.searcher.Search(ctx, query, initialTopK)
	if err != nil {
		return nil, tone, fmt.Errorf("search descriptions: %w", err)
	}

	ids, err := parseISBNs(hits)
	if err != nil {
		return nil, tone, err
	}

	books := s.join(ids, initialTopK)

	if category != domain.AllCategories {
		books = slices.DeleteFunc(books, func(b domain.Book) bool { return b.Category != category })
	}
	if len(books) > finalTopK {
		books = books[:finalTopK]
	}

	if tone.Sorts() {
		// Descending; cmp.Compare orders NaN (missing score) below every number.
		slices.SortStableFunc(books, func(a, b domain.Book) int {
			return cmp.Compare(tone.Score(b.Emotions), tone.Score(a.Emotions))
		})
	}

	return books, tone, nil
}

func (s *Service) limits(req Request) (initialTopK, finalTopK int) {
	initialTopK, finalTopK = req.InitialTopK, req.FinalTopK
	if initialTopK <= 0 {
		initialTopK = s.initialTopK
	}
	if finalTopK <= 0 {
		finalTopK = s.finalTopK
	}
	return initialTopK, min(finalTopK, initialTopK)
}

// join maps ids to catalog rows in similarity order, skipping unknown ids and repeats.
func (s *Service) join(ids []int64, limit int) []domain.Book {
	books := make([]domain.Book, 0, min(len(ids), limit))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if len(books) == limit {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if b, ok := s.catalog.Get(id); ok {
			books = append(books, b)
		}
	}
	return books
}

func parseISBNs(hits []domain.Hit) ([]int64, error) {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		id, err := LeadingISBN(h.Content)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// LeadingISBN parses the identifier token that prefixes a tagged description.
// Surrounding double quotes are ignored.
func LeadingISBN(content string) (int64, error) {
	fields := strings.Fields(strings.Trim(strings.TrimSpace(content), `"`))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty record: %w", domain.ErrMalformedRecord)
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("leading token %q: %w", fields[0], domain.ErrMalformedRecord)
	}
	return id, nil
}
