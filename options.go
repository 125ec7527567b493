package tafsir

import (
	"io"
	"log/slog"

	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
	"github.com/helixml/tafsir/infrastructure/provider"
	"github.com/helixml/tafsir/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	app            config.AppConfig
	appOpts        []config.AppConfigOption
	logger         *slog.Logger
	passages       []passage.Passage
	hasPassages    bool
	embedder       search.Embedder
	embeddingModel string
	textProvider   provider.TextGenerator
	translator     derived.Translator
	reflector      derived.Reflector
	cache          derived.Store
	snapshots      search.SnapshotStore
	closers        []io.Closer
}

func newClientConfig() *clientConfig {
	return &clientConfig{app: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithConfig replaces the application configuration, typically the result
// of config.LoadConfig. Later options still apply on top of it.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.app = cfg
	}
}

// WithDataDir sets the data directory holding the corpus, cache and index.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts, config.WithDataDir(dir))
	}
}

// WithCorpusDir sets the directory the corpus is loaded from.
func WithCorpusDir(dir string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts, config.WithCorpusDir(dir))
	}
}

// WithCorpus serves the given passages instead of loading them from disk.
func WithCorpus(passages []passage.Passage) Option {
	return func(c *clientConfig) {
		c.passages = passages
		c.hasPassages = true
	}
}

// WithSQLite stores the cache and index snapshot in a SQLite database.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts,
			config.WithDBURL("sqlite:///"+path),
			config.WithStorageBackend(config.StorageDatabase),
		)
	}
}

// WithPostgres stores the cache and index snapshot in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts,
			config.WithDBURL(dsn),
			config.WithStorageBackend(config.StorageDatabase),
		)
	}
}

// WithOpenAI configures OpenAI for both embeddings and enrichment using the
// default models.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts,
			config.WithEmbeddingEndpoint(config.NewEndpointWithOptions(
				config.WithAPIKey(apiKey),
				config.WithModel(config.DefaultEmbeddingModel),
			)),
			config.WithEnrichmentEndpoint(config.NewEndpointWithOptions(
				config.WithAPIKey(apiKey),
				config.WithModel(config.DefaultEnrichmentModel),
			)),
		)
	}
}

// WithEmbedder uses e for passage and query embeddings. model identifies it
// in index snapshots, so a different model forces a rebuild.
func WithEmbedder(e search.Embedder, model string) Option {
	return func(c *clientConfig) {
		c.embedder = e
		c.embeddingModel = model
	}
}

// WithEmbeddingProvider uses a provider-level embedder, batching texts to its
// capacity.
func WithEmbeddingProvider(p provider.Embedder, model string) Option {
	return func(c *clientConfig) {
		c.embedder = provider.NewTextEmbedder(p, model)
		c.embeddingModel = model
	}
}

// WithTextProvider uses p for translation and reflection.
func WithTextProvider(p provider.TextGenerator) Option {
	return func(c *clientConfig) {
		c.textProvider = p
	}
}

// WithTranslator overrides the translator.
func WithTranslator(t derived.Translator) Option {
	return func(c *clientConfig) {
		c.translator = t
	}
}

// WithReflector overrides the reflector.
func WithReflector(r derived.Reflector) Option {
	return func(c *clientConfig) {
		c.reflector = r
	}
}

// WithCache overrides the derived-content cache.
func WithCache(s derived.Store) Option {
	return func(c *clientConfig) {
		c.cache = s
	}
}

// WithSnapshotStore overrides where the index snapshot is persisted.
func WithSnapshotStore(s search.SnapshotStore) Option {
	return func(c *clientConfig) {
		c.snapshots = s
	}
}

// WithModelDir sets the local embedding model directory.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.appOpts = append(c.appOpts, config.WithEmbeddingModelDir(dir))
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource closed with the client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
