// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultCorpusSubdir          = "output"
	DefaultCacheSubdir           = "cache"
	DefaultIndexSubdir           = "index"
	DefaultSnapshotFile          = "snapshot.gob"
	DefaultDBFile                = "tafsir.db"
	DefaultSearchTopK            = 3
	DefaultSearchMaxTopK         = 10
	DefaultSearchOversample      = 4
	DefaultEndpointParallelTasks = 4
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 3
	DefaultEndpointInitialDelay  = 1 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxTokens     = 4000
	DefaultEndpointMaxBatchSize  = 32
	DefaultEnrichmentModel       = "gpt-4o"
	DefaultEmbeddingModel        = "text-embedding-3-small"
	DefaultReflectionTemperature = 0.6
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// StorageBackend selects where snapshots and derived content live.
type StorageBackend string

// StorageBackend values.
const (
	StorageFile     StorageBackend = "file"
	StorageDatabase StorageBackend = "database"
)

// Endpoint configures an AI service endpoint.
type Endpoint struct {
	baseURL           string
	model             string
	apiKey            string
	numParallelTasks  int
	timeout           time.Duration
	maxRetries        int
	initialDelay      time.Duration
	backoffFactor     float64
	maxTokens         int
	maxBatchSize      int
	requestsPerSecond float64
	temperature       float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		numParallelTasks: DefaultEndpointParallelTasks,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointMaxRetries,
		initialDelay:     DefaultEndpointInitialDelay,
		backoffFactor:    DefaultEndpointBackoffFactor,
		maxTokens:        DefaultEndpointMaxTokens,
		maxBatchSize:     DefaultEndpointMaxBatchSize,
		temperature:      DefaultReflectionTemperature,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// NumParallelTasks returns the number of concurrent calls allowed.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// Timeout returns the per-call timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxTokens returns the completion token limit.
func (e Endpoint) MaxTokens() int { return e.maxTokens }

// MaxBatchSize returns the maximum number of texts per embedding request.
func (e Endpoint) MaxBatchSize() int { return e.maxBatchSize }

// RequestsPerSecond returns the client-side rate limit (0 means unlimited).
func (e Endpoint) RequestsPerSecond() float64 { return e.requestsPerSecond }

// Temperature returns the sampling temperature for chat completions.
func (e Endpoint) Temperature() float64 { return e.temperature }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithNumParallelTasks sets the concurrency bound.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.numParallelTasks = n
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) EndpointOption {
	return func(e *Endpoint) { e.maxTokens = n }
}

// WithMaxBatchSize sets the maximum texts per embedding request.
func WithMaxBatchSize(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.maxBatchSize = n
		}
	}
}

// WithRequestsPerSecond sets the client-side rate limit.
func WithRequestsPerSecond(rps float64) EndpointOption {
	return func(e *Endpoint) { e.requestsPerSecond = rps }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) EndpointOption {
	return func(e *Endpoint) { e.temperature = t }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// SearchConfig configures topic search limits.
type SearchConfig struct {
	defaultTopK int
	maxTopK     int
	oversample  int
}

// NewSearchConfig creates a SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		defaultTopK: DefaultSearchTopK,
		maxTopK:     DefaultSearchMaxTopK,
		oversample:  DefaultSearchOversample,
	}
}

// DefaultTopK returns the result count used when a request names none.
func (s SearchConfig) DefaultTopK() int { return s.defaultTopK }

// MaxTopK returns the largest accepted result count.
func (s SearchConfig) MaxTopK() int { return s.maxTopK }

// Oversample returns the filtered-search over-fetch factor.
func (s SearchConfig) Oversample() int { return s.oversample }

// WithDefaultTopK returns a copy with the default result count set.
func (s SearchConfig) WithDefaultTopK(k int) SearchConfig {
	if k > 0 {
		s.defaultTopK = k
	}
	return s
}

// WithMaxTopK returns a copy with the maximum result count set.
func (s SearchConfig) WithMaxTopK(k int) SearchConfig {
	if k > 0 {
		s.maxTopK = k
	}
	return s
}

// WithOversample returns a copy with the over-fetch factor set. Values
// below 2 are ignored.
func (s SearchConfig) WithOversample(c int) SearchConfig {
	if c >= 2 {
		s.oversample = c
	}
	return s
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	logLevel           string
	logFormat          LogFormat
	corpusDir          string
	storageBackend     StorageBackend
	search             SearchConfig
	corsAllowedOrigins []string
	embeddingModelDir  string
	embeddingEndpoint  *Endpoint
	enrichmentEndpoint *Endpoint
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tafsir"
	}
	return filepath.Join(home, ".tafsir")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              "sqlite:///" + filepath.Join(dataDir, DefaultDBFile),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		storageBackend:     StorageFile,
		search:             NewSearchConfig(),
		corsAllowedOrigins: []string{"*"},
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// CorpusDir returns the corpus root, defaulting to <data_dir>/output.
func (c AppConfig) CorpusDir() string {
	if c.corpusDir != "" {
		return c.corpusDir
	}
	return filepath.Join(c.dataDir, DefaultCorpusSubdir)
}

// StorageBackend returns where snapshots and derived content are stored.
func (c AppConfig) StorageBackend() StorageBackend { return c.storageBackend }

// Search returns the search limits.
func (c AppConfig) Search() SearchConfig { return c.search }

// CORSAllowedOrigins returns the allowed CORS origins.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsAllowedOrigins))
	copy(origins, c.corsAllowedOrigins)
	return origins
}

// EmbeddingModelDir returns the local embedding model directory, if any.
func (c AppConfig) EmbeddingModelDir() string { return c.embeddingModelDir }

// EmbeddingEndpoint returns the remote embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// EnrichmentEndpoint returns the translation and reflection endpoint config.
func (c AppConfig) EnrichmentEndpoint() *Endpoint { return c.enrichmentEndpoint }

// CacheDir returns the derived-content cache directory.
func (c AppConfig) CacheDir() string {
	return filepath.Join(c.dataDir, DefaultCacheSubdir)
}

// SnapshotPath returns the index snapshot file.
func (c AppConfig) SnapshotPath() string {
	return filepath.Join(c.dataDir, DefaultIndexSubdir, DefaultSnapshotFile)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Update default DB URL when data dir changes
		if c.dbURL == "" || strings.HasSuffix(c.dbURL, DefaultDBFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDBFile)
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithCorpusDir sets the corpus root.
func WithCorpusDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.corpusDir = dir }
}

// WithStorageBackend sets the storage backend.
func WithStorageBackend(b StorageBackend) AppConfigOption {
	return func(c *AppConfig) { c.storageBackend = b }
}

// WithSearchConfig sets the search limits.
func WithSearchConfig(s SearchConfig) AppConfigOption {
	return func(c *AppConfig) { c.search = s }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithEmbeddingModelDir sets the local embedding model directory.
func WithEmbeddingModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingModelDir = dir }
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithEnrichmentEndpoint sets the translation and reflection endpoint.
func WithEnrichmentEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.enrichmentEndpoint = &e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("corpus_dir", c.CorpusDir()),
		slog.String("storage_backend", string(c.storageBackend)),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_model_dir", c.embeddingModelDir),
		slog.String("embedding_base_url", endpointBaseURL(c.embeddingEndpoint)),
		slog.String("embedding_model", endpointModel(c.embeddingEndpoint)),
		slog.String("enrichment_base_url", endpointBaseURL(c.enrichmentEndpoint)),
		slog.String("enrichment_model", endpointModel(c.enrichmentEndpoint)),
		slog.Int("search_default_top_k", c.search.DefaultTopK()),
		slog.Int("search_max_top_k", c.search.MaxTopK()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func endpointBaseURL(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.BaseURL()
}

func endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// ParseList parses a comma-separated list, dropping blanks.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
