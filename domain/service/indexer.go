// Package service holds domain services that coordinate the passage corpus
// and the vector index.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
)

// Indexer produces a search index for a corpus, reusing a persisted snapshot
// when it was built from the same corpus with the same embedding model.
type Indexer struct {
	store    search.SnapshotStore
	embedder search.Embedder
	model    string
	options  []search.IndexOption
	logger   *slog.Logger
	now      func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithIndexOptions passes options through to index construction.
func WithIndexOptions(opts ...search.IndexOption) IndexerOption {
	return func(s *Indexer) {
		s.options = append(s.options, opts...)
	}
}

// WithClock overrides the build timestamp source.
func WithClock(now func() time.Time) IndexerOption {
	return func(s *Indexer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewIndexer creates an Indexer. model identifies the embedding model and is
// recorded in every snapshot.
func NewIndexer(store search.SnapshotStore, embedder search.Embedder, model string, logger *slog.Logger, opts ...IndexerOption) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("NewIndexer: nil store")
	}
	if embedder == nil {
		return nil, fmt.Errorf("NewIndexer: nil embedder")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Indexer{
		store:    store,
		embedder: embedder,
		model:    model,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Model returns the embedding model identifier.
func (s *Indexer) Model() string { return s.model }

// Ensure returns an index for the corpus: loaded from the snapshot store when
// fresh, built and persisted otherwise.
func (s *Indexer) Ensure(ctx context.Context, corpus passage.Collection) (*search.Index, error) {
	snap, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, search.ErrSnapshotNotFound):
		s.logger.Info("no index snapshot found, building")
		return s.Rebuild(ctx, corpus)
	case err != nil:
		s.logger.Warn("failed to load index snapshot, rebuilding", slog.String("error", err.Error()))
		return s.Rebuild(ctx, corpus)
	}

	if err := snap.Validate(); err != nil {
		s.logger.Warn("index snapshot is corrupt, rebuilding", slog.String("error", err.Error()))
		return s.Rebuild(ctx, corpus)
	}
	if err := snap.CheckFresh(s.model, corpus.Digest()); err != nil {
		s.logger.Info("index snapshot is stale, rebuilding",
			slog.String("snapshot_model", snap.Metadata().Model()),
			slog.String("model", s.model),
		)
		return s.Rebuild(ctx, corpus)
	}

	ix, err := search.NewIndex(snap.Passages(), snap.Vectors(), s.options...)
	if err != nil {
		s.logger.Warn("index snapshot unusable, rebuilding", slog.String("error", err.Error()))
		return s.Rebuild(ctx, corpus)
	}
	s.logger.Info("loaded index snapshot",
		slog.Int("passages", ix.Len()),
		slog.Int("dimension", ix.Dimension()),
		slog.Time("built_at", snap.Metadata().BuiltAt()),
	)
	return ix, nil
}

// Rebuild embeds the whole corpus and persists the result. A failure to
// persist is logged and the freshly built index is still returned.
func (s *Indexer) Rebuild(ctx context.Context, corpus passage.Collection) (*search.Index, error) {
	start := s.now()
	ix, err := search.Build(ctx, corpus.All(), s.embedder, s.options...)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	snap := search.SnapshotOf(ix, s.model, s.now())
	if err := s.store.Save(ctx, snap); err != nil {
		s.logger.Error("failed to persist index snapshot", slog.String("error", err.Error()))
	}

	s.logger.Info("built index",
		slog.Int("passages", ix.Len()),
		slog.Int("dimension", ix.Dimension()),
		slog.String("model", s.model),
		slog.Duration("duration", s.now().Sub(start)),
	)
	return ix, nil
}
