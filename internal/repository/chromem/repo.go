// Package chromem keeps the description index in process memory using chromem-go.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

const (
	collectionName = "descriptions"
	metaLine       = "line"
)

// errNoEmbedFunc is returned if chromem ever tries to embed on its own.
// Vectors are always computed upstream and passed in.
var errNoEmbedFunc = errors.New("chromem: documents must carry precomputed embeddings")

func rejectEmbed(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedFunc
}

// Repo implements usecase/description.Repository on an in-memory chromem DB.
type Repo struct {
	db          *chromem.DB
	concurrency int

	mu   sync.RWMutex
	coll *chromem.Collection
}

// New creates an empty in-memory repository. concurrency bounds AddDocuments workers.
func New(concurrency int) *Repo {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Repo{db: chromem.NewDB(), concurrency: concurrency}
}

// Reset discards every record and starts a fresh collection. dim is enforced by chromem per document.
func (r *Repo) Reset(_ context.Context, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	coll, err := r.db.CreateCollection(collectionName, nil, rejectEmbed)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	r.coll = coll
	return nil
}

// Upsert adds records keyed by their line number.
func (r *Repo) Upsert(ctx context.Context, records []domain.DescriptionRecord) error {
	coll, err := r.collection()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		line := strconv.Itoa(rec.Line)
		docs[i] = chromem.Document{
			ID:        line,
			Metadata:  map[string]string{metaLine: line},
			Content:   rec.Content,
			Embedding: rec.Vector,
		}
	}
	if err := coll.AddDocuments(ctx, docs, r.concurrency); err != nil {
		return fmt.Errorf("add %d documents: %w", len(docs), err)
	}
	return nil
}

// SearchKNN returns up to k hits ordered by descending cosine similarity.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	coll, err := r.collection()
	if err != nil {
		return nil, err
	}

	// chromem refuses nResults above the collection size.
	n := min(k, coll.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := coll.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	hits := make([]domain.Hit, len(results))
	for i, res := range results {
		hits[i] = domain.Hit{Content: res.Content, Score: float64(res.Similarity)}
	}
	return hits, nil
}

// Count returns the number of stored records.
func (r *Repo) Count(_ context.Context) (int, error) {
	coll, err := r.collection()
	if err != nil {
		return 0, err
	}
	return coll.Count(), nil
}

func (r *Repo) collection() (*chromem.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.coll == nil {
		return nil, errors.New("chromem: collection not initialized, call Reset first")
	}
	return r.coll, nil
}
