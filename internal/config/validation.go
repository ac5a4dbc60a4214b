package config

import (
	"fmt"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Provider and model configuration
	if c.Provider != ProviderOllama && c.Provider != ProviderGoogleAI {
		return fmt.Errorf("%w: %q, must be %q or %q",
			ErrInvalidProvider, c.Provider, ProviderOllama, ProviderGoogleAI)
	}

	if c.Provider == ProviderGoogleAI && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required for the googleai provider",
			ErrInvalidProvider)
	}

	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama_host cannot be empty for the ollama provider", ErrInvalidProvider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Embedding configuration
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// The chunk index schema is created with a fixed column width; an
	// embedder producing a different dimensionality can never be indexed.
	if c.EmbedderDimension != VectorDimension {
		return fmt.Errorf("%w: index schema uses %d dimensions, got %d",
			ErrInvalidEmbedderDimension, VectorDimension, c.EmbedderDimension)
	}

	// Pipeline configuration
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got overlap=%d size=%d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}

	for name, secs := range map[string]int{
		"download_timeout_seconds": c.DownloadTimeoutSeconds,
		"query_timeout_seconds":    c.QueryTimeoutSeconds,
		"generate_timeout_seconds": c.GenerateTimeoutSeconds,
	} {
		if secs < 1 || secs > 600 {
			return fmt.Errorf("%w: %s must be between 1 and 600, got %d", ErrInvalidTimeout, name, secs)
		}
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// ValidateServe validates the additional settings required by serve mode.
// The API token gates every pipeline endpoint and must be set explicitly.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIToken == "" {
		return fmt.Errorf("%w: set api_token in config.yaml or RAGLET_API_TOKEN", ErrMissingAPIToken)
	}
	return nil
}
