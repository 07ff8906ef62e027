// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.my-chatbot/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, completion model, embedder model
//   - Corpus: knowledge-base file path, chunking parameters
//   - Retrieval: number of segments fed into the prompt
//   - Server: listen address, rate limiting, external-call timeouts
//
// Security: the API key is never logged; MarshalJSON masks it.
// Validation: range checks in validation.go with clear sentinel errors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidCorpusPath indicates the corpus file path is empty.
	ErrInvalidCorpusPath = errors.New("invalid corpus path")

	// ErrInvalidChunkSize indicates the chunk size is out of range.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates the chunk overlap is out of range.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidTimeout indicates an external-call timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

const (
	// DefaultCorpusPath is the knowledge-base file read at initialization.
	// One logical statement per line; see the chunker in internal/corpus.
	DefaultCorpusPath = "data/terms.txt"

	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the character overlap between adjacent chunks.
	DefaultChunkOverlap = 200

	// DefaultTopK is the number of segments retrieved per question.
	DefaultTopK = 4

	// MaxTopK bounds top_k; retrieval beyond this adds noise, not recall.
	MaxTopK = 10

	// DefaultGeminiEmbedderModel is the default Gemini embedder model.
	DefaultGeminiEmbedderModel = "text-embedding-004"
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	Language      string `mapstructure:"language" json:"language"`

	// GeminiAPIKey authenticates both the embedding and completion calls.
	// Read from GEMINI_API_KEY; required. SENSITIVE: masked in MarshalJSON.
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"gemini_api_key"`

	// Corpus and chunking configuration
	CorpusPath   string `mapstructure:"corpus_path" json:"corpus_path"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	TopK int `mapstructure:"top_k" json:"top_k"`

	// External-call timeouts in seconds
	EmbedTimeoutSec    int `mapstructure:"embed_timeout_sec" json:"embed_timeout_sec"`
	CompleteTimeoutSec int `mapstructure:"complete_timeout_sec" json:"complete_timeout_sec"`

	// Server configuration
	Addr      string  `mapstructure:"addr" json:"addr"`
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" json:"rate_burst"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	v := viper.New()

	// Configuration directory: ~/.my-chatbot/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}
	configDir := filepath.Join(home, ".my-chatbot")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(configDir)

	setDefaults(v)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{".", configDir})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail-fast: a missing key would otherwise surface later as an opaque
	// downstream auth failure on the first embedding call.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("provider", ProviderGoogleAI)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	v.SetDefault("language", "한국어")

	// Corpus defaults
	v.SetDefault("corpus_path", DefaultCorpusPath)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)

	// Retrieval defaults
	v.SetDefault("top_k", DefaultTopK)

	// Timeout defaults
	v.SetDefault("embed_timeout_sec", 10)
	v.SetDefault("complete_timeout_sec", 60)

	// Server defaults
	v.SetDefault("addr", "127.0.0.1:3000")
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("rate_burst", 10)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded strings can't fail to bind; a panic here is a bug, not a
	// runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// GEMINI_API_KEY is also read directly by the Genkit plugin; binding it
	// here lets Validate() report a clear configuration error up front.
	mustBind("gemini_api_key", "GEMINI_API_KEY")

	mustBind("provider", "CHATBOT_PROVIDER")
	mustBind("model_name", "CHATBOT_MODEL_NAME")
	mustBind("embedder_model", "CHATBOT_EMBEDDER_MODEL")
	mustBind("corpus_path", "CHATBOT_CORPUS_PATH")
	mustBind("addr", "CHATBOT_ADDR")
	mustBind("top_k", "CHATBOT_TOP_K")
	mustBind("log_level", "CHATBOT_LOG_LEVEL")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets show the
// first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GeminiAPIKey = maskSecret(a.GeminiAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return c.Provider + "/" + c.ModelName
}

// EmbedTimeout returns the per-call timeout for embedding requests.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSec) * time.Second
}

// CompleteTimeout returns the per-call timeout for completion requests.
func (c *Config) CompleteTimeout() time.Duration {
	return time.Duration(c.CompleteTimeoutSec) * time.Second
}

// SlogLevel maps the configured log level string to a slog.Level.
// Unknown values fall back to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
