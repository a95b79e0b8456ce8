// Package description stores the description index in Valkey or Redis as HASH keys behind an FT vector index.
package description

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/bookrec/internal/db"
	"github.com/kailas-cloud/bookrec/internal/domain"
)

// Hash field names.
const (
	FieldContent = "__content"
	FieldVector  = "__vector"
	FieldLine    = "line"
)

// store is the consumer interface for the description index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options select the vector algorithm. Flat is brute force; anything else builds an HNSW graph.
type Options struct {
	Flat        bool
	M           int
	EFConstruct int
	BlockSize   int // FLAT only
}

// Repo implements usecase/description.Repository.
type Repo struct {
	store     store
	keyPrefix string
	indexName string
	opts      Options
}

// New creates a description repository. keyPrefix namespaces every key, e.g. "bookrec:".
func New(s store, keyPrefix string, opts Options) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix + "desc:",
		indexName: keyPrefix + "desc:idx",
		opts:      opts,
	}
}

// Reset drops the index and every stored record, then creates an empty index for dim-sized vectors.
func (r *Repo) Reset(ctx context.Context, dim int) error {
	exists, err := r.store.IndexExists(ctx, r.indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", r.indexName, err)
	}
	if exists {
		// Another instance may drop it between the check and here.
		if err := r.store.DropIndex(ctx, r.indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", r.indexName, err)
		}
	}

	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("scan stale records: %w", err)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete %d stale records: %w", len(keys), err)
	}

	b := db.NewIndex(r.indexName).
		Prefix(r.keyPrefix).
		Numeric(FieldLine)
	if r.opts.Flat {
		b.VectorFlat(FieldVector, dim, db.DistanceCosine, r.opts.BlockSize)
	} else {
		b.VectorHNSW(FieldVector, dim, db.DistanceCosine, r.opts.M, r.opts.EFConstruct)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", r.indexName, err)
	}
	return nil
}

// Upsert writes records in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, records []domain.DescriptionRecord) error {
	items := make([]db.HashSetItem, len(records))
	for i, rec := range records {
		items[i] = db.HashSetItem{
			Key: r.key(rec.Line),
			Fields: map[string]string{
				FieldContent: rec.Content,
				FieldVector:  string(db.EncodeVector(rec.Vector)),
				FieldLine:    strconv.Itoa(rec.Line),
			},
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store %d records: %w", len(records), err)
	}
	return nil
}

// SearchKNN returns up to k hits ordered by descending similarity.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  FieldVector,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{FieldContent},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	hits := make([]domain.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domain.Hit{Content: e.Fields[FieldContent], Score: e.Score})
	}
	return hits, nil
}

// Count returns the number of stored records. valkey-search rejects bare "*" queries, so this scans keys.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return len(keys), nil
}

func (r *Repo) key(line int) string {
	return r.keyPrefix + strconv.Itoa(line)
}
