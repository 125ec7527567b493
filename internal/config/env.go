package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., ENRICHMENT_ENDPOINT_API_KEY).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.tafsir
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/tafsir.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CorpusDir is the root of the ingested tafsir files.
	// Env: CORPUS_DIR
	// Default: {data_dir}/output
	CorpusDir string `envconfig:"CORPUS_DIR"`

	// StorageBackend selects file or database storage for snapshots and
	// derived content.
	// Env: STORAGE_BACKEND (default: file)
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS (default: *)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EmbeddingModelDir is a local ONNX sentence-embedding model directory.
	// Env: EMBEDDING_MODEL_DIR
	EmbeddingModelDir string `envconfig:"EMBEDDING_MODEL_DIR"`

	// Search configures topic search limits.
	Search SearchEnv `envconfig:"SEARCH"`

	// EmbeddingEndpoint configures the remote embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// EnrichmentEndpoint configures the translation and reflection service.
	EnrichmentEndpoint EndpointEnv `envconfig:"ENRICHMENT_ENDPOINT"`
}

// SearchEnv holds environment configuration for topic search.
type SearchEnv struct {
	// DefaultTopK is used when a request names no result count.
	// Env: SEARCH_DEFAULT_TOP_K (default: 3)
	DefaultTopK int `envconfig:"DEFAULT_TOP_K" default:"3"`

	// MaxTopK is the largest accepted result count.
	// Env: SEARCH_MAX_TOP_K (default: 10)
	MaxTopK int `envconfig:"MAX_TOP_K" default:"10"`

	// Oversample multiplies k when author or surah filters apply.
	// Env: SEARCH_OVERSAMPLE (default: 4)
	Oversample int `envconfig:"OVERSAMPLE" default:"4"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// NumParallelTasks bounds concurrent calls.
	// Env: *_NUM_PARALLEL_TASKS (default: 4)
	NumParallelTasks int `envconfig:"NUM_PARALLEL_TASKS" default:"4"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 3)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 1.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"1.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxBatchSize is the maximum number of texts per embedding request.
	// Env: *_MAX_BATCH_SIZE (default: 32)
	MaxBatchSize int `envconfig:"MAX_BATCH_SIZE" default:"32"`

	// RequestsPerSecond is a client-side rate limit; 0 disables it.
	// Env: *_REQUESTS_PER_SECOND (default: 0)
	RequestsPerSecond float64 `envconfig:"REQUESTS_PER_SECOND" default:"0"`

	// Temperature is the chat sampling temperature.
	// Env: *_TEMPERATURE (default: 0.6)
	Temperature float64 `envconfig:"TEMPERATURE" default:"0.6"`

	// MaxTokens is the completion token limit.
	// Env: *_MAX_TOKENS (default: 4000)
	MaxTokens int `envconfig:"MAX_TOKENS" default:"4000"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "TAFSIR" would require TAFSIR_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.CorpusDir != "" {
		cfg = applyOption(cfg, WithCorpusDir(e.CorpusDir))
	}
	cfg = applyOption(cfg, WithStorageBackend(parseStorageBackend(e.StorageBackend)))

	if e.CORSAllowedOrigins != "" {
		cfg = applyOption(cfg, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	}
	if e.EmbeddingModelDir != "" {
		cfg = applyOption(cfg, WithEmbeddingModelDir(e.EmbeddingModelDir))
	}

	cfg = applyOption(cfg, WithSearchConfig(e.Search.ToSearchConfig()))

	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint(DefaultEmbeddingModel)))
	}
	if e.EnrichmentEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEnrichmentEndpoint(e.EnrichmentEndpoint.ToEndpoint(DefaultEnrichmentModel)))
	}

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToSearchConfig converts SearchEnv to SearchConfig.
func (s SearchEnv) ToSearchConfig() SearchConfig {
	return NewSearchConfig().
		WithDefaultTopK(s.DefaultTopK).
		WithMaxTopK(s.MaxTopK).
		WithOversample(s.Oversample)
}

// IsConfigured returns true if any of model, API key or base URL is set.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != "" || e.APIKey != "" || e.BaseURL != ""
}

// ToEndpoint converts EndpointEnv to Endpoint, using defaultModel when no
// model is named.
func (e EndpointEnv) ToEndpoint(defaultModel string) Endpoint {
	model := e.Model
	if model == "" {
		model = defaultModel
	}
	opts := []EndpointOption{
		WithModel(model),
		WithNumParallelTasks(e.NumParallelTasks),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxTokens(e.MaxTokens),
		WithMaxBatchSize(e.MaxBatchSize),
		WithRequestsPerSecond(e.RequestsPerSecond),
		WithTemperature(e.Temperature),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// parseStorageBackend parses a storage backend string.
func parseStorageBackend(s string) StorageBackend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "database", "db":
		return StorageDatabase
	default:
		return StorageFile
	}
}
