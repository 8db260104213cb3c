// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package vector implements the embedding math used by the catalog index:
// L2 normalization and cosine similarity over unit vectors.
//
// A Normalized value can only be produced by Normalize, so every vector that
// reaches the similarity functions is known to have unit length. Accumulation
// is done in float64 so that results are deterministic for identical inputs.
package vector

import (
	"errors"
	"fmt"
	"math"
)

// MinNorm is the smallest L2 norm accepted by Normalize.
const MinNorm = 1e-8

// UnitTolerance is the allowed deviation of a normalized vector's norm from 1.
const UnitTolerance = 1e-4

var (
	// ErrDegenerateVector is matched by every *DegenerateVectorError.
	ErrDegenerateVector = errors.New("degenerate vector")

	// ErrDimensionMismatch is returned when two vectors have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DegenerateVectorError reports a vector that cannot be normalized.
type DegenerateVectorError struct {
	Norm   float64
	Reason string
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("degenerate vector: %s (norm=%g)", e.Reason, e.Norm)
}

// Unwrap allows errors.Is(err, ErrDegenerateVector).
func (e *DegenerateVectorError) Unwrap() error {
	return ErrDegenerateVector
}

// Normalized is a unit-length embedding vector.
type Normalized struct {
	v []float32
}

// Normalize divides v by its L2 norm. The input slice is not modified.
//
// It fails with *DegenerateVectorError when v is empty, contains NaN or Inf,
// or has a norm below MinNorm.
func Normalize(v []float32) (Normalized, error) {
	if len(v) == 0 {
		return Normalized{}, &DegenerateVectorError{Reason: "empty vector"}
	}

	var sum float64
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Normalized{}, &DegenerateVectorError{Norm: math.NaN(), Reason: "non-finite component"}
		}
		sum += f * f
	}

	norm := math.Sqrt(sum)
	if norm < MinNorm {
		return Normalized{}, &DegenerateVectorError{Norm: norm, Reason: "norm below minimum"}
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return Normalized{v: out}, nil
}

// Dim returns the vector dimension.
func (n Normalized) Dim() int {
	return len(n.v)
}

// IsZero reports whether n is the zero value (never produced by Normalize).
func (n Normalized) IsZero() bool {
	return n.v == nil
}

// Values returns a copy of the components.
func (n Normalized) Values() []float32 {
	out := make([]float32, len(n.v))
	copy(out, n.v)
	return out
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the dot product of two unit vectors, clamped to [-1, 1].
// Both vectors must have the same dimension; use Similarity when that is not
// already guaranteed.
func CosineSimilarity(a, b Normalized) float64 {
	n := len(a.v)
	if len(b.v) < n {
		n = len(b.v)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a.v[i]) * float64(b.v[i])
	}

	// Rounding can push |dot| slightly past 1 for near-identical vectors.
	if dot > 1 {
		return 1
	}
	if dot < -1 {
		return -1
	}
	return dot
}

// Similarity is CosineSimilarity with a dimension check.
func Similarity(a, b Normalized) (float64, error) {
	if a.Dim() != b.Dim() {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, a.Dim(), b.Dim())
	}
	return CosineSimilarity(a, b), nil
}
