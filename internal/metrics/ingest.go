package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics holds the ingestion pipeline Prometheus metrics.
// Registered against an injected registry so ingest runs can expose
// their own endpoint without colliding with the server registry.
type IngestMetrics struct {
	RecordsRead      prometheus.Counter
	RecordsSkipped   *prometheus.CounterVec
	RecordsIndexed   prometheus.Counter
	RecordsFailed    *prometheus.CounterVec
	BatchesTotal     prometheus.Counter
	BatchDuration    *prometheus.HistogramVec
	EmbedBatchTokens prometheus.Counter
}

// NewIngestMetrics creates and registers ingestion metrics.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "records_read_total",
			Help:      "Total source records read",
		}),

		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "records_skipped_total",
			Help:      "Total records skipped before batching",
		}, []string{"reason"}), // "not_question" / "malformed"

		RecordsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "records_indexed_total",
			Help:      "Total records successfully indexed",
		}),

		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "records_failed_total",
			Help:      "Total records that failed",
		}, []string{"reason"}), // "embedding" / "dim_mismatch" / "store_write"

		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "batches_total",
			Help:      "Total batches flushed",
		}),

		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "askdex_ingest",
			Name:      "batch_duration_seconds",
			Help:      "Batch stage duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}), // "embed" / "write"

		EmbedBatchTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askdex_ingest",
			Name:      "embed_tokens_total",
			Help:      "Total embedding tokens consumed during ingestion",
		}),
	}

	reg.MustRegister(
		m.RecordsRead, m.RecordsSkipped, m.RecordsIndexed,
		m.RecordsFailed, m.BatchesTotal, m.BatchDuration, m.EmbedBatchTokens,
	)
	return m
}
