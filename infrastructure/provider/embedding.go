package provider

import (
	"context"
	"fmt"
)

// capacityLimited is implemented by embedders that cap texts per call.
type capacityLimited interface {
	Capacity() int
}

// TextEmbedder adapts an Embedder to the plain []string contract used by
// the search index. Inputs larger than the provider's capacity are split
// into consecutive calls and the vectors are concatenated in order.
type TextEmbedder struct {
	inner Embedder
	model string
	batch int
}

// NewTextEmbedder wraps inner. model identifies the embedding model for
// snapshot freshness checks.
func NewTextEmbedder(inner Embedder, model string) TextEmbedder {
	batch := 0
	if c, ok := inner.(capacityLimited); ok {
		batch = c.Capacity()
	}
	return TextEmbedder{inner: inner, model: model, batch: batch}
}

// Model returns the embedding model identifier.
func (e TextEmbedder) Model() string { return e.model }

// Embed returns one vector per text.
func (e TextEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	size := e.batch
	if size <= 0 {
		size = len(texts)
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		resp, err := e.inner.Embed(ctx, NewEmbeddingRequest(texts[start:end]))
		if err != nil {
			return nil, err
		}
		vecs := resp.Embeddings()
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}
