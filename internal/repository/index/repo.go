// Package index manages the question index lifecycle and bulk writes.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain"
)

// store is the consumer interface for index administration (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	BulkUpsert(ctx context.Context, index string, records []db.Record) (*db.BulkResult, error)
	Refresh(ctx context.Context, index string) error
}

// Repo implements usecase/ingest.IndexWriter over a record store.
type Repo struct {
	store store
	name  string
	dim   int
}

// New creates an index repository for the named index with vector dimension dim.
func New(s store, name string, dim int) *Repo {
	return &Repo{store: s, name: name, dim: dim}
}

// Name returns the target index name.
func (r *Repo) Name() string { return r.name }

// Recreate drops the index if present and creates it fresh from the
// declared schema, so every ingestion run starts from an empty index.
func (r *Repo) Recreate(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w: %w", r.name, domain.ErrStoreWrite, err)
	}

	if err := r.store.CreateIndex(ctx, Definition(r.name, r.dim)); err != nil {
		return fmt.Errorf("create index %s: %w: %w", r.name, domain.ErrStoreWrite, err)
	}
	return nil
}

// BulkUpsert writes a batch of items, reporting success per item.
// Every item must already carry a vector of the configured dimension.
func (r *Repo) BulkUpsert(ctx context.Context, items []domain.Item) (domain.BulkReport, error) {
	records := make([]db.Record, len(items))
	for i := range items {
		records[i] = buildRecord(&items[i])
	}

	res, err := r.store.BulkUpsert(ctx, r.name, records)
	if err != nil {
		return domain.BulkReport{}, fmt.Errorf("bulk upsert %s: %w: %w", r.name, domain.ErrStoreWrite, err)
	}

	report := domain.BulkReport{
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Outcomes:  make([]domain.UpsertOutcome, len(res.Results)),
	}
	for i, it := range res.Results {
		report.Outcomes[i] = domain.UpsertOutcome{ID: it.ID, Err: it.Err}
	}
	return report, nil
}

// Refresh makes all prior writes visible to queries.
func (r *Repo) Refresh(ctx context.Context) error {
	if err := r.store.Refresh(ctx, r.name); err != nil {
		return fmt.Errorf("refresh %s: %w: %w", r.name, domain.ErrStoreWrite, err)
	}
	return nil
}
