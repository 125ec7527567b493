package search

import "github.com/helixml/tafsir/domain/passage"

// Result is a passage paired with its cosine similarity to the query.
type Result struct {
	passage passage.Passage
	score   float64
}

// NewResult creates a new Result.
func NewResult(p passage.Passage, score float64) Result {
	return Result{passage: p, score: score}
}

// Passage returns the matched passage.
func (r Result) Passage() passage.Passage { return r.passage }

// Score returns the cosine similarity in [-1, 1].
func (r Result) Score() float64 { return r.score }
