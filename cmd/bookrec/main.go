package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/config"
	"github.com/kailas-cloud/bookrec/internal/db"
	dbRedis "github.com/kailas-cloud/bookrec/internal/db/redis"
	"github.com/kailas-cloud/bookrec/internal/domain"
	logpkg "github.com/kailas-cloud/bookrec/internal/logger"
	"github.com/kailas-cloud/bookrec/internal/metrics"
	"github.com/kailas-cloud/bookrec/internal/repository/catalog"
	chromemrepo "github.com/kailas-cloud/bookrec/internal/repository/chromem"
	"github.com/kailas-cloud/bookrec/internal/repository/corpus"
	descriptionrepo "github.com/kailas-cloud/bookrec/internal/repository/description"
	"github.com/kailas-cloud/bookrec/internal/repository/embcache"
	chiTransport "github.com/kailas-cloud/bookrec/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/bookrec/internal/transport/openai"
	descriptionuc "github.com/kailas-cloud/bookrec/internal/usecase/description"
	embeddinguc "github.com/kailas-cloud/bookrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
	"github.com/kailas-cloud/bookrec/internal/version"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bookrec",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()

	// Catalog
	books, err := catalog.NewLoader(cfg.Data.PlaceholderThumbnail, cfg.Data.ThumbnailSuffix).
		LoadFile(cfg.Data.CatalogPath)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("path", cfg.Data.CatalogPath), zap.Error(err))
	}
	logger.Info("Catalog loaded",
		zap.Int("books", books.Len()),
		zap.Int("categories", len(books.Categories())),
	)

	lines, err := corpus.ReadFile(cfg.Data.DescriptionsPath)
	if err != nil {
		logger.Fatal("Failed to read descriptions", zap.String("path", cfg.Data.DescriptionsPath), zap.Error(err))
	}

	// Index store: nil for the in-memory driver
	var store db.Store
	if cfg.Index.Driver != config.DriverMemory {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Index.Addrs,
			Password: cfg.Index.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create index store", zap.Error(err))
		}
		defer s.Close()

		timeout := time.Duration(cfg.Index.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Index store not ready", zap.Error(err))
		}
		logger.Info("Connected to index store", zap.Strings("addrs", cfg.Index.Addrs))
		store = s
	}

	docEmbedder, queryEmbedder, base := buildEmbedders(cfg, store, logger)

	var repo descriptionuc.Repository
	if store != nil {
		repo = descriptionrepo.New(store, cfg.Index.KeyPrefix, descriptionrepo.Options{
			Flat:        cfg.Index.Algorithm == config.AlgorithmFlat,
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
			BlockSize:   cfg.Index.FlatBlockSize,
		})
	} else {
		repo = chromemrepo.New(cfg.Index.Concurrency)
	}

	descSvc := descriptionuc.New(repo, docEmbedder, queryEmbedder, logger).
		WithBatchSize(cfg.Index.BuildBatchSize)
	if err := descSvc.Build(ctx, lines); err != nil {
		logger.Fatal("Failed to build description index", zap.Error(err))
	}

	recSvc := recommenduc.New(books, descSvc).
		WithDefaults(cfg.Recommend.InitialTopK, cfg.Recommend.FinalTopK)

	healthSvc := healthuc.New(store, base).WithIndex(repo)

	server := chiTransport.NewServer(recSvc, healthSvc, cfg.HTTP.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedders assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// The base provider is returned too, for health checks.
func buildEmbedders(
	cfg config.Config, store db.Store, logger *zap.Logger,
) (doc, query domain.Embedder, base *openaiEmb.Embedder) {
	base = openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil && cfg.Embedding.Cache {
		embedder = embcache.New(base, store, cfg.Index.KeyPrefix, cfg.Embedding.Model,
			cfg.Embedding.Dimensions, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger)

	// Instruction prefix is outermost so the cache key includes it.
	doc, query = embedder, embedder
	if cfg.Embedding.DocumentInstruction != "" {
		doc = domain.NewInstructionEmbedder(embedder, cfg.Embedding.DocumentInstruction)
	}
	if cfg.Embedding.QueryInstruction != "" {
		query = domain.NewInstructionEmbedder(embedder, cfg.Embedding.QueryInstruction)
	}

	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", store != nil && cfg.Embedding.Cache),
	)
	return doc, query, base
}
