package bookrec

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "", "valkey" or "redis"
	addrs    []string
	password string
	prefix   string

	embedder Embedder

	placeholder     string
	thumbnailSuffix string

	flat            bool
	flatBlockSize   int
	hnswM           int
	hnswEFConstruct int
	batchSize       int
	concurrency     int

	initialTopK int
	finalTopK   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey keeps the description index in a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis keeps the description index in a Redis instance with RediSearch.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces store keys. Default: "bookrec:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.prefix = prefix
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithPlaceholderThumbnail sets the image used for books without a thumbnail.
// Default: "/assets/cover-not-found.svg".
func WithPlaceholderThumbnail(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.placeholder = path
	})
}

// WithHNSW configures HNSW index parameters for store-backed indexes.
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithFlatIndex makes store-backed indexes brute-force FLAT instead of HNSW.
// blockSize 0 keeps the engine default.
func WithFlatIndex(blockSize int) Option {
	return optionFunc(func(c *clientConfig) {
		c.flat = true
		c.flatBlockSize = blockSize
	})
}

// WithBatchSize sets how many descriptions are embedded per round during Open.
// Default: 256.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = size
	})
}

// WithTopK sets the default similarity candidates and final result size.
// Defaults: 50 and 16.
func WithTopK(initial, final int) Option {
	return optionFunc(func(c *clientConfig) {
		c.initialTopK = initial
		c.finalTopK = final
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// RecommendOption tunes a single Recommend call.
type RecommendOption func(*recommendOptions)

type recommendOptions struct {
	category    string
	tone        Tone
	initialTopK int
	finalTopK   int
}

// InCategory keeps only books of the given category. "All" disables the filter.
func InCategory(category string) RecommendOption {
	return func(o *recommendOptions) { o.category = category }
}

// WithTone sorts results by the tone's emotion score, highest first.
func WithTone(t Tone) RecommendOption {
	return func(o *recommendOptions) { o.tone = t }
}

// Limit overrides the final result size for one call.
func Limit(n int) RecommendOption {
	return func(o *recommendOptions) { o.finalTopK = n }
}

// Candidates overrides how many similar descriptions are considered for one call.
func Candidates(n int) RecommendOption {
	return func(o *recommendOptions) { o.initialTopK = n }
}
