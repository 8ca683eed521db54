// Package similarity holds the scoring math every store driver must
// reproduce. Server-side drivers (redis, qdrant) map their native scores
// onto ShiftedScore; the memory driver computes it directly. The numbers
// must agree to within floating-point tolerance regardless of where the
// scoring runs.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Cosine returns the cosine similarity of a and b:
// dot(a,b) / (|a| * |b|), accumulated in float64.
// Returns 0 (not NaN) if either vector has zero magnitude, so ranking
// stays well-defined. Commutative; result in [-1, 1] up to rounding.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector lengths %d and %d: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// ShiftedScore returns cosine similarity plus 1.0, mapping [-1, 1] onto
// [0, 2]. Stores reject negative relevance scores, so this shifted value
// is what gets persisted and returned to callers.
func ShiftedScore(a, b []float32) (float64, error) {
	c, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return c + 1.0, nil
}
