// Package search adapts the record store's scoring query to ranked
// domain results.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain"
)

// Reserved field names mirrored from the index schema.
const (
	fieldTitle = "__title"
	fieldBody  = "__body"
)

// store is the consumer interface for scoring queries (ISP).
type store interface {
	ScoreQuery(ctx context.Context, q *db.ScoreQuery) (*db.SearchResult, error)
}

// Repo implements usecase/query.Searcher.
type Repo struct {
	store store
	index string
}

// New creates a search repository over the named index.
func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// TopK scores every indexed question against the query vector and
// returns the top k hits by descending shifted-cosine score.
func (r *Repo) TopK(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	q := &db.ScoreQuery{
		IndexName:    r.index,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldTitle, fieldBody},
	}

	sr, err := r.store.ScoreQuery(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("index %s: %w", r.index, domain.ErrIndexNotFound)
		}
		return nil, fmt.Errorf("score query %s: %w: %w", r.index, domain.ErrStoreQuery, err)
	}

	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	results := make([]domain.QueryResult, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		results = append(results, domain.QueryResult{
			ID:    entry.ID,
			Score: entry.Score,
			Title: entry.Fields[fieldTitle],
			Body:  entry.Fields[fieldBody],
		})
	}
	return results, nil
}
