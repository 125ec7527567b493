// Package tafsir provides a retrieval service over tafsir commentary:
// exact lookup by author, surah and ayah, semantic topic search, and cached
// translations and reflections.
//
// A Client wires the corpus, the vector index, the derived-content cache and
// the model providers together:
//
//	client, err := tafsir.New(tafsir.WithConfig(cfg))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	client.StartWarmup(ctx)
//	res, err := client.Tafsir.GetPassage(ctx, service.PassageRequest{...})
package tafsir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/domain/derived"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
	domainservice "github.com/helixml/tafsir/domain/service"
	"github.com/helixml/tafsir/infrastructure/corpus"
	"github.com/helixml/tafsir/infrastructure/enricher"
	"github.com/helixml/tafsir/infrastructure/persistence"
	"github.com/helixml/tafsir/infrastructure/provider"
	"github.com/helixml/tafsir/internal/config"
	"github.com/helixml/tafsir/internal/database"
	tafsirlog "github.com/helixml/tafsir/internal/log"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = service.ErrClientClosed

// Client is the entry point to the service.
type Client struct {
	Tafsir *service.Tafsir

	corpus  passage.Collection
	holder  *service.IndexHolder
	warmup  *service.Warmup
	db      *database.Database
	closers []io.Closer
	config  config.AppConfig
	logger  *slog.Logger
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a Client. The corpus is loaded eagerly; the search index is
// built by StartWarmup or BuildIndex.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	app := cfg.app.Apply(cfg.appOpts...)

	logger := cfg.logger
	if logger == nil {
		logger = tafsirlog.FromConfig(app)
	}

	if err := app.EnsureDataDir(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	client := &Client{
		closers: cfg.closers,
		config:  app,
		logger:  logger,
	}

	if cfg.hasPassages {
		client.corpus = passage.NewCollection(cfg.passages)
	} else {
		loaded, err := corpus.NewLoader(app.CorpusDir(), logger).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		client.corpus = loaded
	}

	cache, snapshots, err := client.buildStores(ctx, cfg, app)
	if err != nil {
		return nil, errors.Join(err, client.closeResources())
	}

	embedder, model := buildEmbedder(cfg, app, logger)
	translator, reflector := buildEnricher(cfg, app, logger)
	client.closers = cfg.closers

	client.holder = service.NewIndexHolder(model)
	if embedder != nil {
		indexer, err := domainservice.NewIndexer(snapshots, embedder, model, logger,
			domainservice.WithIndexOptions(
				search.WithOversample(app.Search().Oversample()),
				search.WithBatchSize(embeddingBatchSize(app)),
			),
		)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("create indexer: %w", err), client.closeResources())
		}
		client.warmup = service.NewWarmup(indexer, client.corpus, client.holder, logger)
	} else {
		client.holder.Fail(fmt.Errorf("%w: set EMBEDDING_MODEL_DIR or EMBEDDING_ENDPOINT_MODEL", service.ErrNotConfigured))
		logger.Warn("no embedding model configured, topic search disabled")
	}

	tafsirOpts := []service.TafsirOption{
		service.WithSearchConfig(app.Search()),
		service.WithClosed(&client.closed),
		service.WithLogger(logger),
	}
	if embedder != nil {
		tafsirOpts = append(tafsirOpts, service.WithEmbedder(embedder))
	}
	if translator != nil {
		tafsirOpts = append(tafsirOpts, service.WithTranslator(translator))
	}
	if reflector != nil {
		tafsirOpts = append(tafsirOpts, service.WithReflector(reflector))
	}
	if ep := app.EnrichmentEndpoint(); ep != nil {
		tafsirOpts = append(tafsirOpts,
			service.WithCallTimeout(ep.Timeout()),
			service.WithParallelism(ep.NumParallelTasks()),
		)
	}

	svc, err := service.NewTafsir(client.corpus, client.holder, cache, tafsirOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create service: %w", err), client.closeResources())
	}
	client.Tafsir = svc

	logger.Info("tafsir client ready",
		slog.Int("passages", client.corpus.Len()),
		slog.String("storage", string(app.StorageBackend())),
		slog.String("embedding_model", model),
		slog.Bool("translation", translator != nil),
		slog.Bool("reflection", reflector != nil),
	)
	return client, nil
}

func (c *Client) buildStores(ctx context.Context, cfg *clientConfig, app config.AppConfig) (derived.Store, search.SnapshotStore, error) {
	cache, snapshots := cfg.cache, cfg.snapshots
	if cache != nil && snapshots != nil {
		return cache, snapshots, nil
	}

	switch app.StorageBackend() {
	case config.StorageDatabase:
		db, err := database.NewDatabaseWithLogger(ctx, app.DBURL(), c.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		c.db = &db
		if err := persistence.AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
		if err := persistence.ValidateSchema(db); err != nil {
			return nil, nil, fmt.Errorf("validate schema: %w", err)
		}
		if cache == nil {
			cache = persistence.NewDBCache(db)
		}
		if snapshots == nil {
			snapshots = persistence.NewDBSnapshotStore(db)
		}
	default:
		if cache == nil {
			cache = persistence.NewFileCache(app.CacheDir())
		}
		if snapshots == nil {
			snapshots = persistence.NewFileSnapshotStore(app.SnapshotPath())
		}
	}
	return cache, snapshots, nil
}

// buildEmbedder picks, in order: an injected embedder, a configured
// embedding endpoint, then a local model.
func buildEmbedder(cfg *clientConfig, app config.AppConfig, logger *slog.Logger) (search.Embedder, string) {
	if cfg.embedder != nil {
		return cfg.embedder, cfg.embeddingModel
	}
	if ep := app.EmbeddingEndpoint(); ep != nil {
		p := provider.NewOpenAIProvider(openAIConfig(*ep, logger))
		cfg.closers = append(cfg.closers, p)
		return provider.NewTextEmbedder(p, p.EmbeddingModel()), p.EmbeddingModel()
	}
	if dir := app.EmbeddingModelDir(); dir != "" {
		h := provider.NewHugotEmbedding(dir)
		if h.Available() {
			cfg.closers = append(cfg.closers, h)
			logger.Info("local embedding model enabled", slog.String("model_dir", dir))
			return provider.NewTextEmbedder(h, h.Model()), h.Model()
		}
		logger.Warn("no embedding model found", slog.String("model_dir", dir))
	}
	return nil, ""
}

func buildEnricher(cfg *clientConfig, app config.AppConfig, logger *slog.Logger) (derived.Translator, derived.Reflector) {
	generator := cfg.textProvider
	var pe *enricher.ProviderEnricher
	if generator == nil {
		if ep := app.EnrichmentEndpoint(); ep != nil {
			p := provider.NewOpenAIProvider(openAIConfig(*ep, logger))
			cfg.closers = append(cfg.closers, p)
			pe = enricher.NewProviderEnricher(p, logger).
				WithMaxTokens(ep.MaxTokens()).
				WithReflectionTemperature(ep.Temperature())
		}
	} else {
		pe = enricher.NewProviderEnricher(generator, logger)
	}

	var translator derived.Translator
	var reflector derived.Reflector
	if pe != nil {
		translator, reflector = pe, pe
	}
	if cfg.translator != nil {
		translator = cfg.translator
	}
	if cfg.reflector != nil {
		reflector = cfg.reflector
	}
	return translator, reflector
}

func openAIConfig(ep config.Endpoint, logger *slog.Logger) provider.OpenAIConfig {
	return provider.OpenAIConfig{
		APIKey:            ep.APIKey(),
		BaseURL:           ep.BaseURL(),
		ChatModel:         ep.Model(),
		EmbeddingModel:    ep.Model(),
		Timeout:           ep.Timeout(),
		MaxRetries:        ep.MaxRetries(),
		InitialDelay:      ep.InitialDelay(),
		BackoffFactor:     ep.BackoffFactor(),
		MaxBatchSize:      ep.MaxBatchSize(),
		RequestsPerSecond: ep.RequestsPerSecond(),
		Logger:            logger,
	}
}

func embeddingBatchSize(app config.AppConfig) int {
	if ep := app.EmbeddingEndpoint(); ep != nil {
		return ep.MaxBatchSize()
	}
	return config.DefaultEndpointMaxBatchSize
}

// StartWarmup builds or loads the search index in the background. Point
// lookups, reflection and translation are served meanwhile; search reports
// the index as unavailable until it is ready.
func (c *Client) StartWarmup(ctx context.Context) {
	if c.warmup == nil {
		return
	}
	c.warmup.Start(ctx)
}

// BuildIndex builds or loads the search index in the foreground. force
// ignores any persisted snapshot.
func (c *Client) BuildIndex(ctx context.Context, force bool) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.warmup == nil {
		_, err := c.holder.Index()
		return err
	}
	return c.warmup.Run(ctx, force)
}

// Status reports index readiness.
func (c *Client) Status() service.Status {
	return c.Tafsir.Status()
}

// Corpus returns the loaded passages.
func (c *Client) Corpus() passage.Collection {
	return c.corpus
}

// Config returns the resolved configuration.
func (c *Client) Config() config.AppConfig {
	return c.config
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Close stops the warm-up and releases providers and the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.warmup != nil {
		c.warmup.Stop()
	}
	if err := c.closeResources(); err != nil {
		return err
	}
	c.logger.Info("tafsir client closed")
	return nil
}

func (c *Client) closeResources() error {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	c.closers = nil
	if c.db != nil {
		db := c.db
		c.db = nil
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}
