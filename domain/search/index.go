package search

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/helixml/tafsir/domain/passage"
)

// Index defaults.
const (
	DefaultOversample = 4
	DefaultBatchSize  = 32
)

// Index errors.
var (
	ErrEmptyCorpus       = errors.New("cannot build an index over an empty corpus")
	ErrMisaligned        = errors.New("vector count does not match passage count")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidK          = errors.New("k must be at least 1")
)

// IndexOption configures index construction and search.
type IndexOption func(*indexConfig)

type indexConfig struct {
	oversample int
	batchSize  int
	progress   func(done, total int)
}

func newIndexConfig(opts []IndexOption) indexConfig {
	cfg := indexConfig{
		oversample: DefaultOversample,
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithOversample sets the candidate multiplier used when a filter is present.
// Values below 2 are ignored.
func WithOversample(c int) IndexOption {
	return func(cfg *indexConfig) {
		if c >= 2 {
			cfg.oversample = c
		}
	}
}

// WithBatchSize sets how many texts are sent to the embedder per call.
func WithBatchSize(n int) IndexOption {
	return func(cfg *indexConfig) {
		if n > 0 {
			cfg.batchSize = n
		}
	}
}

// WithProgress registers a callback invoked after each embedded batch.
func WithProgress(fn func(done, total int)) IndexOption {
	return func(cfg *indexConfig) {
		cfg.progress = fn
	}
}

// Index holds one unit vector per passage, aligned by position. It is
// read-only after construction and safe for concurrent searches.
type Index struct {
	passages   []passage.Passage
	vectors    [][]float64
	dimension  int
	oversample int
}

// Build embeds every passage text and returns the resulting index.
func Build(ctx context.Context, passages []passage.Passage, embedder Embedder, opts ...IndexOption) (*Index, error) {
	if len(passages) == 0 {
		return nil, ErrEmptyCorpus
	}
	if embedder == nil {
		return nil, fmt.Errorf("build index: nil embedder")
	}

	cfg := newIndexConfig(opts)
	vectors := make([][]float64, 0, len(passages))

	for start := 0; start < len(passages); start += cfg.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+cfg.batchSize, len(passages))
		texts := make([]string, end-start)
		for i, p := range passages[start:end] {
			texts[i] = p.Text()
		}

		embedded, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		if len(embedded) != len(texts) {
			return nil, fmt.Errorf("embed batch [%d:%d]: got %d vectors: %w", start, end, len(embedded), ErrMisaligned)
		}
		vectors = append(vectors, embedded...)

		if cfg.progress != nil {
			cfg.progress(end, len(passages))
		}
	}

	return newIndex(passages, vectors, cfg)
}

// NewIndex creates an index from precomputed vectors, such as a loaded
// snapshot. Vectors are normalised again.
func NewIndex(passages []passage.Passage, vectors [][]float64, opts ...IndexOption) (*Index, error) {
	return newIndex(passages, vectors, newIndexConfig(opts))
}

func newIndex(passages []passage.Passage, vectors [][]float64, cfg indexConfig) (*Index, error) {
	if len(passages) == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("%w: %d vectors, %d passages", ErrMisaligned, len(vectors), len(passages))
	}

	dimension := len(vectors[0])
	normalized := make([][]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dimension)
		}
		unit, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d (%s): %w", i, passages[i].ID(), err)
		}
		normalized[i] = unit
	}

	ps := make([]passage.Passage, len(passages))
	copy(ps, passages)

	return &Index{
		passages:   ps,
		vectors:    normalized,
		dimension:  dimension,
		oversample: cfg.oversample,
	}, nil
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int { return len(ix.passages) }

// Dimension returns the vector dimension.
func (ix *Index) Dimension() int { return ix.dimension }

// Passages returns the indexed passages in index order.
func (ix *Index) Passages() []passage.Passage {
	result := make([]passage.Passage, len(ix.passages))
	copy(result, ix.passages)
	return result
}

// Vectors returns a copy of the stored unit vectors in index order.
func (ix *Index) Vectors() [][]float64 {
	result := make([][]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		result[i] = make([]float64, len(v))
		copy(result[i], v)
	}
	return result
}

// Search returns up to k passages most similar to query that satisfy filters,
// ordered by descending score with ties broken by index order.
//
// With a filter present the top k*C candidates are ranked, where C is the
// oversampling constant, and the window grows by C until k matches are found
// or the whole index has been ranked. Fewer than k results means fewer than
// k passages in the index satisfy the filter.
func (ix *Index) Search(query []float64, k int, filters Filters) ([]Result, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(query), ix.dimension)
	}
	q, err := Normalize(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	scores := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = Dot(q, v)
	}

	n := len(scores)
	window := k
	if !filters.IsEmpty() {
		window = k * ix.oversample
	}

	for {
		window = min(window, n)
		results := make([]Result, 0, k)
		for _, i := range topN(scores, window) {
			if !filters.Match(ix.passages[i]) {
				continue
			}
			results = append(results, NewResult(ix.passages[i], scores[i]))
			if len(results) == k {
				break
			}
		}
		if len(results) == k || window == n {
			return results, nil
		}
		window *= ix.oversample
	}
}

type candidate struct {
	index int
	score float64
}

// worse orders candidates so the lowest score, then the latest index, is first.
func worse(a, b candidate) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.index > b.index
}

type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// topN returns the indices of the m best scores, best first.
func topN(scores []float64, m int) []int {
	h := make(candidateHeap, 0, m+1)
	for i, s := range scores {
		c := candidate{index: i, score: s}
		if h.Len() < m {
			heap.Push(&h, c)
			continue
		}
		if worse(h[0], c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	out := make([]int, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(candidate).index
	}
	return out
}
