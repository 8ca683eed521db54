package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdex/internal/domain"
	searchrepo "github.com/kailas-cloud/askdex/internal/repository/search"
	queryuc "github.com/kailas-cloud/askdex/internal/usecase/query"
)

var (
	queryK           int
	queryIndex       string
	queryInteractive bool
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Run a semantic query against the index",
		Long: `Embed the query text and print the top matches ranked by similarity.

With --interactive, read one query per line from stdin until EOF.

Examples:
  askdex query "zero-copy networking in C"
  askdex query -k 5 "how to parse JSON"
  askdex query --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runQuery,
	}

	cmd.Flags().IntVarP(&queryK, "k", "k", 10, "number of results")
	cmd.Flags().StringVar(&queryIndex, "index", "", "index name (overrides config)")
	cmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "read queries from stdin")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	if !queryInteractive && len(args) == 0 {
		return fmt.Errorf("query text required unless --interactive is set")
	}

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	if queryIndex != "" {
		cfg.Ingest.Index = queryIndex
	}

	logger, err := newLogger(cfg, env)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder := newEmbedder(cfg, logger)
	svc := queryuc.New(searchrepo.New(store, cfg.Ingest.Index), embedder, logger)

	if queryInteractive {
		return interactiveLoop(ctx, svc)
	}
	return runOne(ctx, svc, args[0])
}

func runOne(ctx context.Context, svc *queryuc.Service, text string) error {
	results, timings, err := svc.Query(ctx, text, queryK)
	if err != nil {
		return err
	}
	printResults(results)
	fmt.Printf("(embed %s, search %s)\n", timings.Embed.Round(time.Millisecond), timings.Search.Round(time.Millisecond))
	return nil
}

func interactiveLoop(ctx context.Context, svc *queryuc.Service) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("query> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			fmt.Print("query> ")
			continue
		}
		results, _, err := svc.Query(ctx, text, queryK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		} else {
			printResults(results)
		}
		fmt.Print("query> ")
	}
	return scanner.Err()
}

func printResults(results []domain.QueryResult) {
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for i, r := range results {
		fmt.Printf("%2d. %.4f  %s\n", i+1, r.Score, r.Title)
	}
}
