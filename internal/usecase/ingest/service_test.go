package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/askdex/internal/domain"
)

// --- Mocks ---

type sliceSource struct {
	items     []domain.Item
	malformed int
}

func (s *sliceSource) Each(fn func(item domain.Item) bool) error {
	for _, it := range s.items {
		if !fn(it) {
			return nil
		}
	}
	return nil
}

func (s *sliceSource) Malformed() int { return s.malformed }

// mockEmbedder returns one vector per text, deterministic in the text
// length. failOnCall makes the Nth BatchEmbed call fail (1-based).
type mockEmbedder struct {
	dim        int
	calls      int
	batchSizes []int
	failOnCall int
	shortCount bool // return one vector too few
	wrongDim   bool // return vectors of dim+1
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.failOnCall == m.calls {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("provider down: %w", domain.ErrEmbeddingProvider)
	}

	dim := m.dim
	if m.wrongDim {
		dim++
	}
	count := len(texts)
	if m.shortCount {
		count--
	}

	embeddings := make([][]float32, count)
	for i := 0; i < count; i++ {
		v := make([]float32, dim)
		v[0] = float32(len(texts[i]))
		embeddings[i] = v
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts) * 3}, nil
}

type mockWriter struct {
	recreates  int
	refreshes  int
	batches    [][]domain.Item
	writeErr   error
	perItemErr int // first N items of each batch fail individually
}

func (m *mockWriter) Recreate(_ context.Context) error {
	m.recreates++
	m.batches = nil
	return nil
}

func (m *mockWriter) BulkUpsert(_ context.Context, items []domain.Item) (domain.BulkReport, error) {
	if m.writeErr != nil {
		return domain.BulkReport{}, m.writeErr
	}
	copied := make([]domain.Item, len(items))
	copy(copied, items)
	m.batches = append(m.batches, copied)

	report := domain.BulkReport{Outcomes: make([]domain.UpsertOutcome, len(items))}
	for i := range items {
		report.Outcomes[i].ID = items[i].ID
		if i < m.perItemErr {
			report.Outcomes[i].Err = errors.New("write refused")
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report, nil
}

func (m *mockWriter) Refresh(_ context.Context) error {
	m.refreshes++
	return nil
}

func (m *mockWriter) written() []domain.Item {
	var all []domain.Item
	for _, b := range m.batches {
		all = append(all, b...)
	}
	return all
}

func questions(n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			Kind:  domain.KindQuestion,
			Title: fmt.Sprintf("question number %d", i),
		}
	}
	return items
}

// --- Tests ---

func TestRun_RoundTrip(t *testing.T) {
	items := questions(5)
	items = append(items,
		domain.Item{Kind: domain.KindAnswer, Body: "an answer"},
		domain.Item{Kind: domain.KindAnswer, Body: "another answer"},
	)

	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 4}
	svc := New(writer, embed, Config{BatchSize: 100, Dimensions: 4}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: items})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Read != 7 || report.Skipped != 2 || report.Indexed != 5 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if writer.recreates != 1 {
		t.Errorf("recreates = %d, want 1", writer.recreates)
	}
	if writer.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", writer.refreshes)
	}

	written := writer.written()
	if len(written) != 5 {
		t.Fatalf("wrote %d items, want 5", len(written))
	}
	for i, it := range written {
		if it.Kind != domain.KindQuestion {
			t.Errorf("item %d: answers must never be written", i)
		}
		if len(it.Vector) != 4 {
			t.Errorf("item %d: vector length %d, want 4", i, len(it.Vector))
		}
	}
}

func TestRun_BatchBoundary(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 3, Dimensions: 2}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: questions(7)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Batches != 3 {
		t.Errorf("batches = %d, want 3", report.Batches)
	}
	want := []int{3, 3, 1}
	if len(embed.batchSizes) != len(want) {
		t.Fatalf("embed calls = %v, want %v", embed.batchSizes, want)
	}
	for i := range want {
		if embed.batchSizes[i] != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, embed.batchSizes[i], want[i])
		}
	}
	if report.Indexed != 7 {
		t.Errorf("indexed = %d, want 7", report.Indexed)
	}
}

func TestRun_ExactMultipleOfBatchSize(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 3, Dimensions: 2}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: questions(6)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Batches != 2 {
		t.Errorf("batches = %d, want 2 (no empty trailing flush)", report.Batches)
	}
}

func TestRun_EmbedFailureDropsBatch(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2, failOnCall: 1}
	svc := New(writer, embed, Config{BatchSize: 3, Dimensions: 2}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: questions(5)})
	if err != nil {
		t.Fatalf("non-strict run must continue: %v", err)
	}

	if report.Failed != 3 {
		t.Errorf("failed = %d, want the whole first batch of 3", report.Failed)
	}
	if report.Indexed != 2 {
		t.Errorf("indexed = %d, want 2 from the surviving batch", report.Indexed)
	}
	if len(writer.batches) != 1 {
		t.Errorf("store writes = %d, want 1: a failed batch must write nothing", len(writer.batches))
	}
}

func TestRun_EmbedFailureStrictAborts(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2, failOnCall: 1}
	svc := New(writer, embed, Config{BatchSize: 3, Dimensions: 2, Strict: true}, nil)

	_, err := svc.Run(context.Background(), &sliceSource{items: questions(5)})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
	if embed.calls != 1 {
		t.Errorf("embed calls = %d, strict mode must stop after the failure", embed.calls)
	}
	if len(writer.batches) != 0 {
		t.Error("no batch may be written after a strict abort")
	}
}

func TestRun_CountMismatchDropsBatch(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2, shortCount: true}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2, Strict: true}, nil)

	_, err := svc.Run(context.Background(), &sliceSource{items: questions(4)})
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider on count mismatch, got %v", err)
	}
	if len(writer.batches) != 0 {
		t.Error("a count-mismatched batch must write nothing")
	}
}

func TestRun_DimMismatchDropsBatch(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2, wrongDim: true}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: questions(4)})
	if err != nil {
		t.Fatalf("non-strict run must continue: %v", err)
	}
	if report.Failed != 4 || report.Indexed != 0 {
		t.Errorf("report = %+v, want the whole batch failed", report)
	}
	if len(writer.batches) != 0 {
		t.Error("a dim-mismatched batch must write nothing")
	}
}

func TestRun_PerItemWriteFailures(t *testing.T) {
	writer := &mockWriter{perItemErr: 1}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2}, nil)

	report, err := svc.Run(context.Background(), &sliceSource{items: questions(3)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Indexed != 2 || report.Failed != 1 {
		t.Errorf("report = %+v, want indexed=2 failed=1", report)
	}
}

func TestRun_StoreWriteFailure(t *testing.T) {
	writer := &mockWriter{writeErr: fmt.Errorf("bulk write: %w", domain.ErrStoreWrite)}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2, Strict: true}, nil)

	_, err := svc.Run(context.Background(), &sliceSource{items: questions(2)})
	if !errors.Is(err, domain.ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestRun_MalformedCountedAsRead(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2}, nil)

	src := &sliceSource{items: questions(2), malformed: 3}
	report, err := svc.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Malformed != 3 {
		t.Errorf("malformed = %d, want 3", report.Malformed)
	}
	if report.Read != 5 {
		t.Errorf("read = %d, want 5 (parsed plus malformed)", report.Read)
	}
	if report.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", report.Indexed)
	}
}

func TestRun_RerunRecreatesIndex(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 10, Dimensions: 2}, nil)

	src := questions(3)
	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), &sliceSource{items: src}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	if writer.recreates != 2 {
		t.Errorf("recreates = %d, want one per run", writer.recreates)
	}
	if got := len(writer.written()); got != 3 {
		t.Errorf("records after rerun = %d, want 3: a rerun must not accumulate", got)
	}
}

func TestRun_InvalidBatchSize(t *testing.T) {
	svc := New(&mockWriter{}, &mockEmbedder{dim: 2}, Config{BatchSize: 0, Dimensions: 2}, nil)
	if _, err := svc.Run(context.Background(), &sliceSource{}); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	writer := &mockWriter{}
	embed := &mockEmbedder{dim: 2}
	svc := New(writer, embed, Config{BatchSize: 2, Dimensions: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx, &sliceSource{items: questions(5)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
