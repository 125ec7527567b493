// Package search provides the exact cosine-similarity vector index over
// tafsir passages and the snapshot types used to persist it.
package search

import (
	"errors"
	"math"
)

// ErrZeroVector indicates a vector with zero magnitude, which has no direction.
var ErrZeroVector = errors.New("zero-magnitude vector")

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float64) ([]float64, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, ErrZeroVector
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / n
	}
	return out, nil
}

// Dot returns the inner product of two equal-length vectors. For unit
// vectors this is their cosine similarity.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
