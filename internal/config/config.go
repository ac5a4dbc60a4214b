// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.raglet/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider selection, generation model, embedder model and dimension
//   - Storage: PostgreSQL connection for the pgvector chunk index
//   - Pipeline: chunk size/overlap, retrieval top-k, manifest path, timeouts
//   - Serve: listen address, API token, rate limiting, preload document
//
// Error Handling:
//   - Sentinel errors for Go-idiomatic checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbedderDimension indicates the embedder dimension does not
	// match the vector schema.
	ErrInvalidEmbedderDimension = errors.New("invalid embedder dimension")

	// ErrInvalidChunking indicates chunk_size/chunk_overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrMissingAPIToken indicates serve mode has no API token configured.
	ErrMissingAPIToken = errors.New("missing api_token")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// VectorDimension is the dimensionality the chunk index schema is created
// with. Embedders must be configured to produce vectors of this length; a
// mismatch is a fatal configuration error surfaced by Validate.
const VectorDimension = 768

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider   string `mapstructure:"provider"`    // "ollama" (default) or "googleai"
	ModelName  string `mapstructure:"model_name"`  // Generation model (e.g. "gemma3", "gemini-2.5-flash")
	OllamaHost string `mapstructure:"ollama_host"` // Only used when provider is "ollama"

	// Embedding configuration
	EmbedderModel     string `mapstructure:"embedder_model"`
	EmbedderDimension int    `mapstructure:"embedder_dimension"`

	// Pipeline configuration
	ChunkSize    int    `mapstructure:"chunk_size"`    // Max characters per chunk
	ChunkOverlap int    `mapstructure:"chunk_overlap"` // Shared span between adjacent chunks
	TopK         int    `mapstructure:"top_k"`         // Matches retrieved per namespace
	ManifestPath string `mapstructure:"manifest_path"` // Chunk manifest JSON ("" disables)

	// Timeouts in seconds
	DownloadTimeoutSeconds int `mapstructure:"download_timeout_seconds"`
	QueryTimeoutSeconds    int `mapstructure:"query_timeout_seconds"`
	GenerateTimeoutSeconds int `mapstructure:"generate_timeout_seconds"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Serve mode configuration
	Addr               string  `mapstructure:"addr"`
	APIToken           string  `mapstructure:"api_token"` // SENSITIVE: never logged
	RateLimit          float64 `mapstructure:"rate_limit"`
	RateBurst          int     `mapstructure:"rate_burst"`
	DefaultDocumentURL string  `mapstructure:"default_document_url"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".raglet")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL takes priority over individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderOllama)
	v.SetDefault("model_name", "gemma3")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("embedder_model", "nomic-embed-text")
	v.SetDefault("embedder_dimension", VectorDimension)

	// Pipeline defaults
	v.SetDefault("chunk_size", 500)
	v.SetDefault("chunk_overlap", 50)
	v.SetDefault("top_k", 3)
	v.SetDefault("manifest_path", "document_chunks.json")
	v.SetDefault("download_timeout_seconds", 30)
	v.SetDefault("query_timeout_seconds", 10)
	v.SetDefault("generate_timeout_seconds", 60)

	// PostgreSQL defaults for a local development database
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "raglet")
	v.SetDefault("postgres_password", "raglet_dev_password")
	v.SetDefault("postgres_db_name", "raglet")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Serve defaults
	v.SetDefault("addr", "127.0.0.1:8000")
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("rate_burst", 10)
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "RAGLET_PROVIDER")
	mustBind("model_name", "RAGLET_MODEL_NAME")
	mustBind("ollama_host", "RAGLET_OLLAMA_HOST")
	mustBind("embedder_model", "RAGLET_EMBEDDER_MODEL")
	mustBind("api_token", "RAGLET_API_TOKEN")
	mustBind("addr", "RAGLET_ADDR")
	mustBind("default_document_url", "RAGLET_DEFAULT_DOCUMENT_URL")

	// NOTE: GEMINI_API_KEY is read directly by the Genkit googlegenai plugin,
	// not via Viper. DATABASE_URL is handled in parseDatabaseURL.
}
