package config

import "fmt"

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. API key validation (required for all AI operations)
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 2. Model configuration validation
	if c.Provider != ProviderGoogleAI {
		return fmt.Errorf("%w: %q (only %q is supported)", ErrInvalidProvider, c.Provider, ProviderGoogleAI)
	}
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. Corpus and chunking validation
	if c.CorpusPath == "" {
		return fmt.Errorf("%w: corpus_path cannot be empty", ErrInvalidCorpusPath)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	// Overlap must leave room for new content, or chunking never advances.
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: must be between 0 and chunk_size-1 (%d), got %d",
			ErrInvalidChunkOverlap, c.ChunkSize-1, c.ChunkOverlap)
	}

	// 4. Retrieval validation
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidTopK, MaxTopK, c.TopK)
	}

	// 5. Timeout validation
	if c.EmbedTimeoutSec < 1 {
		return fmt.Errorf("%w: embed_timeout_sec must be at least 1, got %d",
			ErrInvalidTimeout, c.EmbedTimeoutSec)
	}
	if c.CompleteTimeoutSec < 1 {
		return fmt.Errorf("%w: complete_timeout_sec must be at least 1, got %d",
			ErrInvalidTimeout, c.CompleteTimeoutSec)
	}

	return nil
}
