package db

import (
	"context"
	"time"
)

// Store is the record-store facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces (ISP); the facade exists
// for wiring at the composition root.
type Store interface {
	Pinger
	IndexManager
	BulkWriter
	Refresher
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Record is a flat row for bulk upsert. Fields hold title, body, and
// passthrough metadata; the vector travels separately because drivers
// encode it differently (binary blob for FT.SEARCH, point vector for qdrant).
type Record struct {
	ID     string
	Vector []float32
	Fields map[string]string
}

// UpsertResult is the per-record outcome of a bulk write.
type UpsertResult struct {
	ID  string
	Err error
}

// BulkResult aggregates per-record outcomes of one bulk write.
type BulkResult struct {
	Succeeded int
	Failed    int
	Results   []UpsertResult
}

// BulkWriter writes batches of records with per-record reporting.
// Semantics are create-or-replace by record ID.
type BulkWriter interface {
	BulkUpsert(ctx context.Context, index string, records []Record) (*BulkResult, error)
}

// Refresher makes prior writes visible to subsequent queries. Stores that
// index synchronously implement this as a no-op; it must be issued anyway
// so visibility is explicit rather than eventual.
type Refresher interface {
	Refresh(ctx context.Context, index string) error
}

// Searcher scores every indexed record against a query vector and
// returns the top K by descending shifted-cosine score.
type Searcher interface {
	ScoreQuery(ctx context.Context, q *ScoreQuery) (*SearchResult, error)
}
