package chi

import (
	"context"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/metrics"
	"github.com/kailas-cloud/bookrec/internal/repository/chromem"
	descriptionuc "github.com/kailas-cloud/bookrec/internal/usecase/description"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// keywordEmbedder maps texts mentioning "forgiveness" and everything else to orthogonal vectors.
type keywordEmbedder struct {
	failOn string
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	vec := []float32{0, 1}
	if strings.Contains(text, "forgiveness") {
		vec = []float32{1, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 3}, nil
}

// stubSearcher returns fixed hits or an error.
type stubSearcher struct {
	hits []domain.Hit
	err  error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]domain.Hit, error) {
	return s.hits, s.err
}

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog([]domain.Book{
		{
			ISBN13: 1, Title: "Gilead", Authors: "Marilynne Robinson", Category: "Fiction",
			Description: "A story of forgiveness.", LargeThumbnail: "/assets/cover-not-found.svg",
			Emotions: domain.Emotions{Joy: 0.2},
		},
		{
			ISBN13: 2, Title: "War", Authors: "A;B;C", Category: "Nonfiction",
			Description: "Battles.", LargeThumbnail: "http://img/2&fife=w800",
			Emotions: domain.Emotions{Joy: 0.8},
		},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

// newTestServer wires the real index stack over chromem with a fake embedder.
func newTestServer(t *testing.T, apiKeys ...string) *Server {
	t.Helper()

	repo := chromem.New(1)
	emb := &keywordEmbedder{failOn: "explode"}
	desc := descriptionuc.New(repo, emb, emb, zap.NewNop())
	err := desc.Build(context.Background(), []string{
		"1 a tale of forgiveness",
		"2 a war story",
	})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	rec := recommenduc.New(testCatalog(t), desc)
	health := healthuc.New(nil, nil).WithIndex(repo)
	return NewServer(rec, health, apiKeys, zap.NewNop())
}

func newStubServer(t *testing.T, s recommenduc.Searcher) *Server {
	t.Helper()
	rec := recommenduc.New(testCatalog(t), s)
	return NewServer(rec, healthuc.New(nil, nil), nil, zap.NewNop())
}
