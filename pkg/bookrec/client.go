package bookrec

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/db"
	dbRedis "github.com/kailas-cloud/bookrec/internal/db/redis"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/gallery"
	"github.com/kailas-cloud/bookrec/internal/repository/catalog"
	chromemrepo "github.com/kailas-cloud/bookrec/internal/repository/chromem"
	"github.com/kailas-cloud/bookrec/internal/repository/corpus"
	descriptionrepo "github.com/kailas-cloud/bookrec/internal/repository/description"
	descriptionuc "github.com/kailas-cloud/bookrec/internal/usecase/description"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "bookrec:"
	defaultPlaceholder      = "/assets/cover-not-found.svg"
	defaultThumbnailSuffix  = "&fife=w800"
)

// recommendUseCase is the internal interface for recommendation queries.
type recommendUseCase interface {
	Recommend(ctx context.Context, req recommenduc.Request) ([]domain.Book, error)
	Categories() []string
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the bookrec SDK entry point. It is safe for concurrent use once Open returns.
type Client struct {
	store     db.Store
	recSvc    recommendUseCase
	healthSvc healthUseCase
	obs       *observer
}

// OpenFiles is Open over files on disk.
func OpenFiles(ctx context.Context, catalogPath, descriptionsPath string, opts ...Option) (*Client, error) {
	cf, err := os.Open(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("bookrec: open catalog: %w", err)
	}
	defer cf.Close()

	df, err := os.Open(descriptionsPath)
	if err != nil {
		return nil, fmt.Errorf("bookrec: open descriptions: %w", err)
	}
	defer df.Close()

	return Open(ctx, cf, df, opts...)
}

// Open loads the catalog CSV and the tagged descriptions, embeds every description
// and returns a ready client. Any embedding failure aborts Open.
func Open(ctx context.Context, catalogCSV, descriptions io.Reader, opts ...Option) (c *Client, err error) {
	cfg := &clientConfig{
		prefix:          defaultKeyPrefix,
		placeholder:     defaultPlaceholder,
		thumbnailSuffix: defaultThumbnailSuffix,
		hnswM:           16,
		hnswEFConstruct: 200,
		concurrency:     runtime.NumCPU(),
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.embedder == nil {
		return nil, errNoEmbedder
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { obs.observe("open", start, err) }()

	books, err := catalog.NewLoader(cfg.placeholder, cfg.thumbnailSuffix).Load(catalogCSV)
	if err != nil {
		return nil, fmt.Errorf("bookrec: load catalog: %w", err)
	}
	lines, err := corpus.Read(descriptions)
	if err != nil {
		return nil, fmt.Errorf("bookrec: read descriptions: %w", err)
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo descriptionuc.Repository
	if store != nil {
		repo = descriptionrepo.New(store, cfg.prefix, descriptionrepo.Options{
			Flat:        cfg.flat,
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
			BlockSize:   cfg.flatBlockSize,
		})
	} else {
		repo = chromemrepo.New(cfg.concurrency)
	}

	emb := adaptEmbedder(cfg.embedder)
	desc := descriptionuc.New(repo, emb, emb, zap.NewNop()).WithBatchSize(cfg.batchSize)
	if err := desc.Build(ctx, lines); err != nil {
		if store != nil {
			store.Close()
		}
		return nil, fmt.Errorf("bookrec: build index: %w", err)
	}

	return &Client{
		store:     store,
		recSvc:    recommenduc.New(books, desc).WithDefaults(cfg.initialTopK, cfg.finalTopK),
		healthSvc: healthuc.New(store, nil).WithIndex(repo),
		obs:       obs,
	}, nil
}

// createStore returns nil for the in-memory index.
func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "":
		return nil, nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("bookrec: create %s store: %w", cfg.driver, err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("bookrec: %s not ready: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("bookrec: unknown driver %q", cfg.driver)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Recommend returns catalog books whose descriptions are most similar to query.
// An empty result is not an error.
func (c *Client) Recommend(ctx context.Context, query string, opts ...RecommendOption) (books []Book, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err, "results", len(books)) }()

	var o recommendOptions
	for _, opt := range opts {
		opt(&o)
	}

	rows, err := c.recSvc.Recommend(ctx, recommenduc.Request{
		Query:       query,
		Category:    o.category,
		Tone:        string(o.tone),
		InitialTopK: o.initialTopK,
		FinalTopK:   o.finalTopK,
	})
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	books = make([]Book, len(rows))
	for i := range rows {
		books[i] = bookFromDomain(&rows[i])
	}
	c.obs.observeResults(len(books))
	return books, nil
}

// Categories lists the selectable categories, "All" first.
func (c *Client) Categories() []string {
	return c.recSvc.Categories()
}

// Tones lists the selectable tones, "All" first.
func Tones() []Tone {
	return domain.Tones()
}

// Gallery renders books as an HTML fragment: a thumbnail grid with a detail modal per book.
func Gallery(books []Book) string {
	rows := make([]domain.Book, len(books))
	for i := range books {
		rows[i] = bookToDomain(&books[i])
	}
	return gallery.Render(rows)
}
