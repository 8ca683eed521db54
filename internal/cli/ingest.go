package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/metrics"
	indexrepo "github.com/kailas-cloud/askdex/internal/repository/index"
	"github.com/kailas-cloud/askdex/internal/source"
	ingestuc "github.com/kailas-cloud/askdex/internal/usecase/ingest"
)

var (
	ingestIndex     string
	ingestBatchSize int
	ingestStrict    bool
)

func newIngestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Build the search index from a JSONL dump",
		Long: `Recreate the target index and load it from a JSONL dump, one record
per line. Question records get their title embedded and indexed; other
record types are skipped. Use "-" or no argument to read stdin.

Examples:
  askdex ingest posts.jsonl
  askdex ingest --batch-size 500 posts.jsonl
  zcat posts.jsonl.gz | askdex ingest -`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestIndex, "index", "", "target index name (overrides config)")
	cmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "records per embedding batch (overrides config)")
	cmd.Flags().BoolVar(&ingestStrict, "strict", false, "abort the run on the first failed batch")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestIndex != "" {
		cfg.Ingest.Index = ingestIndex
	}
	if ingestBatchSize > 0 {
		cfg.Ingest.BatchSize = ingestBatchSize
	}
	if cmd.Flag("strict").Changed {
		cfg.Ingest.Strict = ingestStrict
	}

	logger, err := newLogger(cfg, env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	input, cleanup, err := openInput(args)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics.RegisterEmbeddingMetrics()
	embedder := newEmbedder(cfg, logger)

	repo := indexrepo.New(store, cfg.Ingest.Index, cfg.Embedding.Dimensions)
	svc := ingestuc.New(repo, embedder, ingestuc.Config{
		BatchSize:  cfg.Ingest.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
		Strict:     cfg.Ingest.Strict,
	}, logger).WithMetrics(metrics.NewIngestMetrics(prometheus.DefaultRegisterer))

	logger.Info("Starting ingestion",
		zap.String("index", cfg.Ingest.Index),
		zap.Int("batch_size", cfg.Ingest.BatchSize),
		zap.Bool("strict", cfg.Ingest.Strict),
	)

	report, err := svc.Run(ctx, source.NewReader(input, logger))
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("indexed %d of %d records into %s in %s\n",
		report.Indexed, report.Read, cfg.Ingest.Index, report.Elapsed.Round(time.Millisecond))
	fmt.Printf("  skipped:   %d\n", report.Skipped)
	fmt.Printf("  malformed: %d\n", report.Malformed)
	fmt.Printf("  failed:    %d\n", report.Failed)
	fmt.Printf("  batches:   %d\n", report.Batches)
	return nil
}

// openInput returns the JSONL reader: the named file, or stdin for "-"
// or no argument.
func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
