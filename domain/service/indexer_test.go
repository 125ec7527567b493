package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type countingEmbedder struct {
	calls int
}

func (f *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	f.calls++
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = []float64{float64(len(text)), 1}
	}
	return vectors, nil
}

type memorySnapshotStore struct {
	snap    *search.Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (m *memorySnapshotStore) Save(_ context.Context, snap search.Snapshot) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snap = &snap
	return nil
}

func (m *memorySnapshotStore) Load(_ context.Context) (search.Snapshot, error) {
	if m.loadErr != nil {
		return search.Snapshot{}, m.loadErr
	}
	if m.snap == nil {
		return search.Snapshot{}, search.ErrSnapshotNotFound
	}
	return *m.snap, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCorpus(t *testing.T) passage.Collection {
	t.Helper()
	var out []passage.Passage
	for i, text := range []string{"a", "bb", "ccc"} {
		r, err := passage.NewRange(i+1, i+1)
		require.NoError(t, err)
		p, err := passage.New("ibn-katheer", 1, r, text, passage.Metadata{})
		require.NoError(t, err)
		out = append(out, p)
	}
	return passage.NewCollection(out)
}

func TestIndexer_BuildsAndPersistsWhenNoSnapshot(t *testing.T) {
	store := &memorySnapshotStore{}
	emb := &countingEmbedder{}
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ix, err := NewIndexer(store, emb, "model-a", discardLogger(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	index, err := ix.Ensure(context.Background(), testCorpus(t))
	require.NoError(t, err)
	require.Equal(t, 3, index.Len())
	require.Equal(t, 1, emb.calls)
	require.Equal(t, 1, store.saves)
	require.Equal(t, "model-a", store.snap.Metadata().Model())
	require.Equal(t, fixed, store.snap.Metadata().BuiltAt())
}

func TestIndexer_ReusesFreshSnapshot(t *testing.T) {
	store := &memorySnapshotStore{}
	corpus := testCorpus(t)
	first, err := NewIndexer(store, &countingEmbedder{}, "model-a", discardLogger())
	require.NoError(t, err)
	_, err = first.Ensure(context.Background(), corpus)
	require.NoError(t, err)

	emb := &countingEmbedder{}
	second, err := NewIndexer(store, emb, "model-a", discardLogger())
	require.NoError(t, err)
	index, err := second.Ensure(context.Background(), corpus)
	require.NoError(t, err)
	require.Equal(t, 3, index.Len())
	require.Zero(t, emb.calls)
	require.Equal(t, 1, store.saves)
}

func TestIndexer_RebuildsOnModelMismatch(t *testing.T) {
	store := &memorySnapshotStore{}
	corpus := testCorpus(t)
	first, err := NewIndexer(store, &countingEmbedder{}, "model-a", discardLogger())
	require.NoError(t, err)
	_, err = first.Ensure(context.Background(), corpus)
	require.NoError(t, err)

	emb := &countingEmbedder{}
	second, err := NewIndexer(store, emb, "model-b", discardLogger())
	require.NoError(t, err)
	_, err = second.Ensure(context.Background(), corpus)
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)
	require.Equal(t, 2, store.saves)
	require.Equal(t, "model-b", store.snap.Metadata().Model())
}

func TestIndexer_RebuildsWhenCorpusChanges(t *testing.T) {
	store := &memorySnapshotStore{}
	first, err := NewIndexer(store, &countingEmbedder{}, "model-a", discardLogger())
	require.NoError(t, err)
	_, err = first.Ensure(context.Background(), testCorpus(t))
	require.NoError(t, err)

	r, err := passage.NewRange(1, 1)
	require.NoError(t, err)
	p, err := passage.New("tabari", 1, r, "dddd", passage.Metadata{})
	require.NoError(t, err)
	changed := passage.NewCollection(append(testCorpus(t).All(), p))

	emb := &countingEmbedder{}
	second, err := NewIndexer(store, emb, "model-a", discardLogger())
	require.NoError(t, err)
	index, err := second.Ensure(context.Background(), changed)
	require.NoError(t, err)
	require.Equal(t, 4, index.Len())
	require.Equal(t, 1, emb.calls)
}

func TestIndexer_LoadFailureRebuilds(t *testing.T) {
	store := &memorySnapshotStore{loadErr: errors.New("corrupt gob")}
	emb := &countingEmbedder{}
	ix, err := NewIndexer(store, emb, "model-a", discardLogger())
	require.NoError(t, err)

	_, err = ix.Ensure(context.Background(), testCorpus(t))
	require.NoError(t, err)
	require.Equal(t, 1, emb.calls)
}

func TestIndexer_SaveFailureStillServes(t *testing.T) {
	store := &memorySnapshotStore{saveErr: errors.New("disk full")}
	ix, err := NewIndexer(store, &countingEmbedder{}, "model-a", discardLogger())
	require.NoError(t, err)

	index, err := ix.Ensure(context.Background(), testCorpus(t))
	require.NoError(t, err)
	require.Equal(t, 3, index.Len())
	require.Equal(t, 1, store.saves)
}

func TestNewIndexer_RequiresDependencies(t *testing.T) {
	_, err := NewIndexer(nil, &countingEmbedder{}, "m", nil)
	require.Error(t, err)
	_, err = NewIndexer(&memorySnapshotStore{}, nil, "m", nil)
	require.Error(t, err)
}
