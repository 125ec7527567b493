package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixml/tafsir/domain/passage"
)

// ErrSnapshotNotFound indicates no usable snapshot exists. Stores return it
// for missing, corrupt, or misaligned data, and callers rebuild.
var ErrSnapshotNotFound = errors.New("index snapshot not found")

// ErrSnapshotStale indicates a snapshot built for a different model or corpus.
var ErrSnapshotStale = errors.New("index snapshot is stale")

// SnapshotMetadata describes how a snapshot was built.
type SnapshotMetadata struct {
	model        string
	count        int
	dimension    int
	builtAt      time.Time
	corpusDigest string
}

// NewSnapshotMetadata creates snapshot metadata.
func NewSnapshotMetadata(model string, count, dimension int, builtAt time.Time, corpusDigest string) SnapshotMetadata {
	return SnapshotMetadata{
		model:        model,
		count:        count,
		dimension:    dimension,
		builtAt:      builtAt,
		corpusDigest: corpusDigest,
	}
}

// Model returns the embedding model identifier.
func (m SnapshotMetadata) Model() string { return m.model }

// Count returns the number of passages.
func (m SnapshotMetadata) Count() int { return m.count }

// Dimension returns the vector dimension.
func (m SnapshotMetadata) Dimension() int { return m.dimension }

// BuiltAt returns the build time.
func (m SnapshotMetadata) BuiltAt() time.Time { return m.builtAt }

// CorpusDigest returns the digest of the passages the snapshot was built from.
func (m SnapshotMetadata) CorpusDigest() string { return m.corpusDigest }

// Snapshot is a persisted index: aligned passages and vectors plus metadata.
type Snapshot struct {
	metadata SnapshotMetadata
	passages []passage.Passage
	vectors  [][]float64
}

// NewSnapshot creates a Snapshot. It does not copy its inputs.
func NewSnapshot(metadata SnapshotMetadata, passages []passage.Passage, vectors [][]float64) Snapshot {
	return Snapshot{metadata: metadata, passages: passages, vectors: vectors}
}

// SnapshotOf captures an index as a snapshot.
func SnapshotOf(ix *Index, model string, builtAt time.Time) Snapshot {
	passages := ix.Passages()
	meta := NewSnapshotMetadata(model, ix.Len(), ix.Dimension(), builtAt, passage.Digest(passages))
	return NewSnapshot(meta, passages, ix.Vectors())
}

// Metadata returns the build metadata.
func (s Snapshot) Metadata() SnapshotMetadata { return s.metadata }

// Passages returns the stored passages.
func (s Snapshot) Passages() []passage.Passage { return s.passages }

// Vectors returns the stored vectors.
func (s Snapshot) Vectors() [][]float64 { return s.vectors }

// Validate checks alignment between metadata, passages, and vectors.
func (s Snapshot) Validate() error {
	if len(s.passages) != len(s.vectors) || s.metadata.count != len(s.passages) {
		return fmt.Errorf("%w: metadata count %d, %d passages, %d vectors",
			ErrMisaligned, s.metadata.count, len(s.passages), len(s.vectors))
	}
	for i, v := range s.vectors {
		if len(v) != s.metadata.dimension {
			return fmt.Errorf("%w: vector %d", ErrDimensionMismatch, i)
		}
	}
	return nil
}

// CheckFresh reports ErrSnapshotStale unless the snapshot was built with
// model over a corpus with the given digest.
func (s Snapshot) CheckFresh(model, corpusDigest string) error {
	if s.metadata.model != model {
		return fmt.Errorf("%w: built with model %q, configured %q", ErrSnapshotStale, s.metadata.model, model)
	}
	if corpusDigest != "" && s.metadata.corpusDigest != corpusDigest {
		return fmt.Errorf("%w: corpus changed since build", ErrSnapshotStale)
	}
	return nil
}

// SnapshotStore persists and reloads index snapshots. Save publishes the
// snapshot as a unit. Load returns ErrSnapshotNotFound for anything that
// is not a complete, aligned snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}
