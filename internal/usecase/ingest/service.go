// Package ingest implements the batched ingestion pipeline: recreate the
// index, stream and filter source records, embed titles batch by batch,
// attach vectors, bulk-write, refresh.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// Config holds pipeline settings. Dimensions is the embedding dimension
// D every attached vector is checked against.
type Config struct {
	BatchSize  int
	Dimensions int
	// Strict aborts the run on the first failed batch. Default keeps
	// going: a failed batch is logged and dropped, later batches proceed.
	Strict bool
}

// Report summarizes one ingestion run.
type Report struct {
	Read      int // records consumed from the source, malformed included
	Skipped   int // non-question records filtered out
	Malformed int // records the reader could not parse
	Indexed   int // records written with a vector attached
	Failed    int // records lost to failed batches or per-item write errors
	Batches   int // batches flushed
	Elapsed   time.Duration
}

// Service runs the ingestion pipeline.
type Service struct {
	writer  IndexWriter
	embed   Embedder
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.IngestMetrics
}

// New creates an ingestion service.
func New(writer IndexWriter, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{writer: writer, embed: embed, cfg: cfg, logger: logger}
}

// WithMetrics attaches pipeline metrics.
func (s *Service) WithMetrics(m *metrics.IngestMetrics) *Service {
	s.metrics = m
	return s
}

// Run executes a full ingestion pass over the source. The target index
// is recreated first, so a rerun always starts from empty. A mid-stream
// failure leaves a partially populated index; no record is ever written
// without its vector.
func (s *Service) Run(ctx context.Context, src Source) (Report, error) {
	if s.cfg.BatchSize <= 0 {
		return Report{}, fmt.Errorf("batch size must be positive, got %d", s.cfg.BatchSize)
	}

	start := time.Now()
	var report Report

	if err := s.writer.Recreate(ctx); err != nil {
		return report, fmt.Errorf("recreate index: %w", err)
	}

	batch := make([]domain.Item, 0, s.cfg.BatchSize)
	var flushErr error

	err := src.Each(func(item domain.Item) bool {
		if ctx.Err() != nil {
			return false
		}

		report.Read++
		if s.metrics != nil {
			s.metrics.RecordsRead.Inc()
		}

		if item.Kind != domain.KindQuestion {
			report.Skipped++
			if s.metrics != nil {
				s.metrics.RecordsSkipped.WithLabelValues("not_question").Inc()
			}
			return true
		}

		batch = append(batch, item)
		if len(batch) >= s.cfg.BatchSize {
			flushErr = s.flush(ctx, batch, &report)
			batch = make([]domain.Item, 0, s.cfg.BatchSize)
		}
		return flushErr == nil
	})
	if err != nil {
		return report, fmt.Errorf("read source: %w", err)
	}
	if flushErr != nil {
		return report, flushErr
	}
	if ctx.Err() != nil {
		return report, fmt.Errorf("ingestion interrupted: %w", ctx.Err())
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, batch, &report); err != nil {
			return report, err
		}
	}

	if err := s.writer.Refresh(ctx); err != nil {
		return report, fmt.Errorf("refresh index: %w", err)
	}

	report.Malformed = src.Malformed()
	report.Read += report.Malformed
	if s.metrics != nil && report.Malformed > 0 {
		s.metrics.RecordsSkipped.WithLabelValues("malformed").Add(float64(report.Malformed))
	}

	report.Elapsed = time.Since(start)
	s.logger.Info("ingestion complete",
		zap.Int("read", report.Read),
		zap.Int("skipped", report.Skipped),
		zap.Int("malformed", report.Malformed),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
		zap.Int("batches", report.Batches),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// flush embeds one batch of titles in order, attaches the vectors, and
// bulk-writes the batch. Any embedding or dimension failure drops the
// whole batch: no record from a failed batch is ever written.
func (s *Service) flush(ctx context.Context, items []domain.Item, report *Report) error {
	report.Batches++
	if s.metrics != nil {
		s.metrics.BatchesTotal.Inc()
	}

	titles := make([]string, len(items))
	for i := range items {
		titles[i] = items[i].Title
	}

	embedStart := time.Now()
	res, err := s.embed.BatchEmbed(ctx, titles)
	if s.metrics != nil {
		s.metrics.BatchDuration.WithLabelValues("embed").Observe(time.Since(embedStart).Seconds())
	}
	if err != nil {
		return s.failBatch(report, len(items), "embedding",
			fmt.Errorf("embed batch of %d: %w", len(items), err))
	}

	if len(res.Embeddings) != len(items) {
		return s.failBatch(report, len(items), "embedding",
			fmt.Errorf("embedder returned %d vectors for %d titles: %w",
				len(res.Embeddings), len(items), domain.ErrEmbeddingProvider))
	}

	for i := range items {
		if s.cfg.Dimensions > 0 && len(res.Embeddings[i]) != s.cfg.Dimensions {
			return s.failBatch(report, len(items), "dim_mismatch",
				fmt.Errorf("vector %d has length %d, expected %d: %w",
					i, len(res.Embeddings[i]), s.cfg.Dimensions, domain.ErrVectorDimMismatch))
		}
		items[i].Vector = res.Embeddings[i]
	}

	if s.metrics != nil && res.TotalTokens > 0 {
		s.metrics.EmbedBatchTokens.Add(float64(res.TotalTokens))
	}

	writeStart := time.Now()
	bulk, err := s.writer.BulkUpsert(ctx, items)
	if s.metrics != nil {
		s.metrics.BatchDuration.WithLabelValues("write").Observe(time.Since(writeStart).Seconds())
	}
	if err != nil {
		return s.failBatch(report, len(items), "store_write",
			fmt.Errorf("write batch of %d: %w", len(items), err))
	}

	report.Indexed += bulk.Succeeded
	report.Failed += bulk.Failed
	if s.metrics != nil {
		s.metrics.RecordsIndexed.Add(float64(bulk.Succeeded))
		if bulk.Failed > 0 {
			s.metrics.RecordsFailed.WithLabelValues("store_write").Add(float64(bulk.Failed))
		}
	}
	if bulk.Failed > 0 {
		s.logger.Warn("batch had per-item write failures",
			zap.Int("failed", bulk.Failed),
			zap.Error(bulk.FirstError()),
		)
	}
	return nil
}

// failBatch records a whole-batch failure. In strict mode the error
// propagates and aborts the run; otherwise it is logged and the run
// continues with the next batch.
func (s *Service) failBatch(report *Report, size int, reason string, err error) error {
	report.Failed += size
	if s.metrics != nil {
		s.metrics.RecordsFailed.WithLabelValues(reason).Add(float64(size))
	}
	if s.cfg.Strict {
		return err
	}
	s.logger.Warn("dropping failed batch", zap.Int("size", size), zap.Error(err))
	return nil
}
