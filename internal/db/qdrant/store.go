// Package qdrant implements the record store over a Qdrant collection.
// Qdrant's Query API returns raw cosine similarity, so the driver adds
// the +1.0 shift itself to keep score semantics uniform across drivers.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/askdex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds Qdrant connection parameters.
type Config struct {
	// URL is the Qdrant server address (e.g. "https://example.qdrant.io:6334").
	URL string
	// APIKey is an optional API key for authentication.
	APIKey string
}

// Store implements db.Store via the Qdrant gRPC client.
type Store struct {
	client *qdrant.Client
}

// NewStore creates a Qdrant store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}

	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Store{client: client}, nil
}

// Ping checks connectivity via the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Close shuts down the gRPC connection.
func (s *Store) Close() {
	_ = s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// CreateIndex creates a collection with a cosine-distance vector config.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	exists, err := s.client.CollectionExists(ctx, def.Name)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	if exists {
		return db.ErrIndexExists
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: def.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(def.VectorDim()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes a collection and all its points.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	if !exists {
		return db.ErrIndexNotFound
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists reports whether the collection exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return exists, nil
}

// BulkUpsert writes records as points with Wait=true, so writes are
// queryable when the call returns.
func (s *Store) BulkUpsert(ctx context.Context, index string, records []db.Record) (*db.BulkResult, error) {
	if len(records) == 0 {
		return &db.BulkResult{}, nil
	}

	res := &db.BulkResult{Results: make([]db.UpsertResult, len(records))}

	points := make([]*qdrant.PointStruct, len(records))
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		res.Results[i].ID = records[i].ID

		payload := make(map[string]any, len(records[i].Fields))
		for k, v := range records[i].Fields {
			payload[k] = v
		}

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(records[i].ID),
			Vectors: qdrant.NewVectors(records[i].Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: index,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		// Qdrant batches are all-or-nothing: the whole batch failed.
		for i := range res.Results {
			res.Results[i].Err = fmt.Errorf("upsert point %s: %w", res.Results[i].ID, err)
		}
		res.Failed = len(records)
		return res, nil
	}

	res.Succeeded = len(records)
	return res, nil
}

// Refresh is a no-op: upserts run with Wait=true, so prior writes are
// already visible to queries.
func (s *Store) Refresh(_ context.Context, _ string) error {
	return nil
}

// ScoreQuery runs a similarity query and shifts the raw cosine score by +1.0.
func (s *Store) ScoreQuery(ctx context.Context, q *db.ScoreQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	exists, err := s.client.CollectionExists(ctx, q.IndexName)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if !exists {
		return nil, db.ErrIndexNotFound
	}

	limit := uint64(q.K)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.IndexName,
		Query:          qdrant.NewQuery(q.Vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(points))
	for _, point := range points {
		entry := db.SearchEntry{
			Score:  float64(point.Score) + 1.0,
			Fields: make(map[string]string, len(point.Payload)),
		}
		if point.Id != nil {
			entry.ID = point.Id.GetUuid()
		}
		for k, v := range point.Payload {
			if wanted(q.ReturnFields, k) {
				entry.Fields[k] = v.GetStringValue()
			}
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
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
