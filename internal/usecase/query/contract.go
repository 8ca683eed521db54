package query

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Embedder vectorizes a single query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher returns the top-k ranked hits for a query vector.
type Searcher interface {
	TopK(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error)
}
