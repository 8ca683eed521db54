// Package query implements the query pipeline: embed the free-text
// query, score it against every indexed question, return the top K.
// Each call is stateless end-to-end, so concurrent queries share nothing
// but read access to the store and the embedder.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Timings reports where a query spent its time. Embedding dominates,
// especially the first call in a process while the provider warms up.
type Timings struct {
	Embed  time.Duration
	Search time.Duration
}

// Service handles semantic queries.
type Service struct {
	search Searcher
	embed  Embedder
	logger *zap.Logger
}

// New creates a query service.
func New(search Searcher, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{search: search, embed: embed, logger: logger}
}

// Query embeds text and returns up to k ranked results. Scores carry the
// shifted cosine similarity in [0, 2]. Failures surface directly; the
// caller resubmits if it wants a retry.
func (s *Service) Query(ctx context.Context, text string, k int) ([]domain.QueryResult, Timings, error) {
	var t Timings

	if strings.TrimSpace(text) == "" {
		return nil, t, fmt.Errorf("empty query text: %w", domain.ErrInvalidQuery)
	}
	if k <= 0 {
		return nil, t, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidQuery)
	}

	embedStart := time.Now()
	emb, err := s.embed.Embed(ctx, text)
	t.Embed = time.Since(embedStart)
	if err != nil {
		return nil, t, fmt.Errorf("vectorize query: %w", err)
	}

	searchStart := time.Now()
	results, err := s.search.TopK(ctx, emb.Embedding, k)
	t.Search = time.Since(searchStart)
	if err != nil {
		return nil, t, fmt.Errorf("search: %w", err)
	}

	s.logger.Debug("query served",
		zap.Int("k", k),
		zap.Int("hits", len(results)),
		zap.Duration("embed", t.Embed),
		zap.Duration("search", t.Search),
	)
	return results, t, nil
}
