package ingest

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// Source streams source items in order. Each yields only well-formed
// items; the callback returns false to stop the stream early.
// Malformed reports how many records were skipped by the reader.
type Source interface {
	Each(fn func(item domain.Item) bool) error
	Malformed() int
}

// Embedder vectorizes batches of texts, one length-D vector per text,
// in input order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// IndexWriter owns the target index lifecycle and writes.
type IndexWriter interface {
	Recreate(ctx context.Context) error
	BulkUpsert(ctx context.Context, items []domain.Item) (domain.BulkReport, error)
	Refresh(ctx context.Context) error
}
