// Package cli wires the askdex commands: serve the search API, ingest a
// JSONL dump, run one-shot or interactive queries.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var envName string

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "askdex",
		Short: "Semantic search over question titles",
		Long: `Askdex indexes question records by embedding their titles into dense
vectors and answers free-text queries with cosine-similarity ranking.

Records are ingested from JSONL dumps; queries run through the same
embedding model, so a query and the titles it matches live in one
vector space.`,
	}

	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "",
		"config environment (local, dev, prod); defaults to $ENV or local")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			fmt.Printf("askdex %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
