package query

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// --- Mocks ---

type mockEmbedder struct {
	vec    []float32
	err    error
	called int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 5}, nil
}

type mockSearcher struct {
	results   []domain.QueryResult
	err       error
	gotVector []float32
	gotK      int
	called    int
}

func (m *mockSearcher) TopK(_ context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	m.called++
	m.gotVector = vector
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// --- Tests ---

func TestQuery_HappyPath(t *testing.T) {
	want := []domain.QueryResult{
		{ID: "1", Score: 1.92, Title: "closest"},
		{ID: "2", Score: 1.41, Title: "further"},
	}
	embed := &mockEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	search := &mockSearcher{results: want}
	svc := New(search, embed, nil)

	got, _, err := svc.Query(context.Background(), "how do I parse JSON", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}

	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("results = %+v, want %+v", got, want)
	}
	if search.gotK != 2 {
		t.Errorf("k forwarded as %d, want 2", search.gotK)
	}
	if len(search.gotVector) != 3 {
		t.Errorf("search got vector of length %d, want the embedded query", len(search.gotVector))
	}
}

func TestQuery_EmptyText(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1}}
	search := &mockSearcher{}
	svc := New(search, embed, nil)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, _, err := svc.Query(context.Background(), text, 5)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("Query(%q) = %v, want ErrInvalidQuery", text, err)
		}
	}
	if embed.called != 0 || search.called != 0 {
		t.Error("invalid text must be rejected before any downstream call")
	}
}

func TestQuery_InvalidK(t *testing.T) {
	svc := New(&mockSearcher{}, &mockEmbedder{vec: []float32{1}}, nil)

	for _, k := range []int{0, -1} {
		_, _, err := svc.Query(context.Background(), "valid text", k)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("Query(k=%d) = %v, want ErrInvalidQuery", k, err)
		}
	}
}

func TestQuery_EmbedFailure(t *testing.T) {
	embed := &mockEmbedder{err: fmt.Errorf("api down: %w", domain.ErrEmbeddingProvider)}
	search := &mockSearcher{}
	svc := New(search, embed, nil)

	_, _, err := svc.Query(context.Background(), "some query", 3)
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
	if search.called != 0 {
		t.Error("search must not run when embedding fails")
	}
}

func TestQuery_SearchFailure(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1, 2}}
	search := &mockSearcher{err: fmt.Errorf("timeout: %w", domain.ErrStoreQuery)}
	svc := New(search, embed, nil)

	_, _, err := svc.Query(context.Background(), "some query", 3)
	if !errors.Is(err, domain.ErrStoreQuery) {
		t.Fatalf("expected ErrStoreQuery, got %v", err)
	}
}

func TestQuery_EmptyResults(t *testing.T) {
	svc := New(&mockSearcher{}, &mockEmbedder{vec: []float32{1}}, nil)

	got, _, err := svc.Query(context.Background(), "nothing matches", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty results, got %+v", got)
	}
}
