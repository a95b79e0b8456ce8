package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Index drivers.
const (
	DriverMemory = "memory"
	DriverValkey = "valkey"
	DriverRedis  = "redis"
)

// Vector index algorithms for store-backed drivers.
const (
	AlgorithmHNSW = "hnsw"
	AlgorithmFlat = "flat"
)

// Config holds the bookrec service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Data      DataConfig      `yaml:"data"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	// APIKeys guard /api/* with Bearer auth. Empty disables auth.
	APIKeys []string `yaml:"api_keys"`
}

// DataConfig points at the static input files.
type DataConfig struct {
	CatalogPath          string `yaml:"catalog_path"`
	DescriptionsPath     string `yaml:"descriptions_path"`
	PlaceholderThumbnail string `yaml:"placeholder_thumbnail"`
	ThumbnailSuffix      string `yaml:"thumbnail_suffix"`
}

// IndexConfig selects and tunes the description index backend.
type IndexConfig struct {
	Driver           string   `yaml:"driver"` // memory, valkey, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Algorithm        string   `yaml:"algorithm"` // hnsw, flat (default: hnsw)
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	FlatBlockSize    int      `yaml:"flat_block_size"` // 0 keeps the engine default
	BuildBatchSize   int      `yaml:"build_batch_size"`
	Concurrency      int      `yaml:"concurrency"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Cache               bool   `yaml:"cache"` // only honoured by store-backed drivers
}

// RecommendConfig holds the retrieval cut-offs.
type RecommendConfig struct {
	InitialTopK int `yaml:"initial_top_k"`
	FinalTopK   int `yaml:"final_top_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML with ${VAR} expansion, then applies defaults and validation.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 7860
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Data.CatalogPath == "" {
		c.Data.CatalogPath = "data/books_with_emotions.csv"
	}
	if c.Data.DescriptionsPath == "" {
		c.Data.DescriptionsPath = "data/tagged_description.txt"
	}
	if c.Data.PlaceholderThumbnail == "" {
		c.Data.PlaceholderThumbnail = "/assets/cover-not-found.svg"
	}
	if c.Data.ThumbnailSuffix == "" {
		c.Data.ThumbnailSuffix = "&fife=w800"
	}
	if c.Index.Driver == "" {
		c.Index.Driver = DriverMemory
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "bookrec:"
	}
	if c.Index.Algorithm == "" {
		c.Index.Algorithm = AlgorithmHNSW
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.BuildBatchSize <= 0 {
		c.Index.BuildBatchSize = 256
	}
	if c.Index.Concurrency <= 0 {
		c.Index.Concurrency = runtime.NumCPU()
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-ada-002"
	}
	if c.Recommend.InitialTopK <= 0 {
		c.Recommend.InitialTopK = 50
	}
	if c.Recommend.FinalTopK <= 0 {
		c.Recommend.FinalTopK = 16
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Index.Driver {
	case DriverMemory:
	case DriverValkey, DriverRedis:
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs is required for driver %q", c.Index.Driver)
		}
	default:
		return fmt.Errorf("index.driver must be one of memory, valkey, redis, got %q", c.Index.Driver)
	}
	switch c.Index.Algorithm {
	case "", AlgorithmHNSW, AlgorithmFlat:
	default:
		return fmt.Errorf("index.algorithm must be one of hnsw, flat, got %q", c.Index.Algorithm)
	}
	if c.Index.FlatBlockSize < 0 {
		return fmt.Errorf("index.flat_block_size must not be negative, got %d", c.Index.FlatBlockSize)
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required")
	}
	if c.Recommend.FinalTopK > c.Recommend.InitialTopK {
		return fmt.Errorf(
			"recommend.final_top_k (%d) must not exceed recommend.initial_top_k (%d)",
			c.Recommend.FinalTopK, c.Recommend.InitialTopK,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for `go test` and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
