// Package memory implements the record store in process memory, scoring
// client-side with the shared similarity package. It is the portable
// fallback for deployments without a search backend and the fixture for
// end-to-end tests. Scoring every record per query does not scale past
// moderate corpus sizes, which is the documented trade-off of
// client-side scoring.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain/similarity"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type index struct {
	def *db.IndexDefinition
	// order preserves insertion order so equal scores rank deterministically
	// within this store (the contract leaves cross-store tie order loose).
	order   []string
	records map[string]db.Record
}

// Store implements db.Store in process memory.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*index
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{indexes: make(map[string]*index)}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// CreateIndex registers an index definition.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	s.indexes[def.Name] = &index{def: def, records: make(map[string]db.Record)}
	return nil
}

// DropIndex removes an index and its records.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	return nil
}

// IndexExists reports whether the index exists.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// BulkUpsert stores records, replacing any existing record wholesale.
// A record whose vector length differs from the index dimension fails
// individually; the rest of the batch proceeds.
func (s *Store) BulkUpsert(_ context.Context, indexName string, records []db.Record) (*db.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[indexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	dim := idx.def.VectorDim()
	res := &db.BulkResult{Results: make([]db.UpsertResult, len(records))}

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		res.Results[i].ID = records[i].ID

		if len(records[i].Vector) != dim {
			res.Results[i].Err = fmt.Errorf(
				"record %s: vector length %d, index dimension %d",
				records[i].ID, len(records[i].Vector), dim,
			)
			res.Failed++
			continue
		}

		if _, exists := idx.records[records[i].ID]; !exists {
			idx.order = append(idx.order, records[i].ID)
		}
		idx.records[records[i].ID] = records[i]
		res.Succeeded++
	}

	return res, nil
}

// Refresh is a no-op: writes are visible as soon as BulkUpsert returns.
func (s *Store) Refresh(_ context.Context, _ string) error { return nil }

// ScoreQuery scores every record client-side with the shared shifted
// cosine formula and returns the top K by descending score.
func (s *Store) ScoreQuery(_ context.Context, q *db.ScoreQuery) (*db.SearchResult, error) {
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	entries := make([]db.SearchEntry, 0, len(idx.order))
	for _, id := range idx.order {
		rec := idx.records[id]
		score, err := similarity.ShiftedScore(q.Vector, rec.Vector)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}

		fields := make(map[string]string, len(rec.Fields))
		for k, v := range rec.Fields {
			if wanted(q.ReturnFields, k) {
				fields[k] = v
			}
		}
		entries = append(entries, db.SearchEntry{ID: id, Score: score, Fields: fields})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}

	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func wanted(returnFields []string, name string) bool {
	if len(returnFields) == 0 {
		return true
	}
	for _, f := range returnFields {
		if f == name {
			return true
		}
	}
	return false
}
