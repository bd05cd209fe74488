// Package cli provides the command-line interface for the bookfts
// application.
//
// This package implements all CLI commands and their associated
// functionality using the Cobra CLI framework. It includes:
//   - Root command with global flags and configuration
//   - Search command for full-text and regex-vocabulary queries over the
//     book library, with author and word-count filters
//   - Index command for ingesting new books
//   - Graph and rank commands for rebuilding the Jaccard similarity graph
//     and recomputing PageRank authority scores
//   - Config get/set for runtime-tunable settings
//   - History for recent/frequent search queries
//   - Browse for the interactive Bubble Tea result browser
//   - Stats for process-lifetime search/database performance metrics
//
// The Execute function is the main entry point for the CLI application.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/search"
	"github.com/shelfindex/bookfts/internal/semantic"
	"github.com/shelfindex/bookfts/internal/store"
	"github.com/shelfindex/bookfts/internal/store/sqlite"
	"github.com/shelfindex/bookfts/internal/version"

	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "bookfts [query]",
	Short:   "bookfts - full-text search over a library of books",
	Version: version.Version,
	Long: `bookfts searches a library of books by content, optionally filtered by author,
using an inverted index, BM25 ranking, and a Jaccard-similarity authority graph.

Examples:
  bookfts search "whaling voyages"
  bookfts search --regex "[a-z]+ology"
  bookfts similar 42
  bookfts index add book.txt --title "Moby Dick" --author "Herman Melville"
  bookfts graph build
  bookfts rank
  bookfts config get
  bookfts browse
  bookfts stats`,
}

// Execute runs the root command and handles all CLI interactions.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(statsCmd)

	rootCmd.PersistentFlags().StringP("store", "s", "", "Path to the library's SQLite database file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("format", "list", "Output format: list|table|json")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output (or set NO_COLOR env)")
}

// loadConfig builds the base Config, applying the --store override if set.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.DefaultConfig()
	if storePath, _ := cmd.Flags().GetString("store"); storePath != "" {
		cfg.StorePath = storePath
	}
	return cfg
}

// newLogger builds the process's single zerolog.Logger instance, at Debug
// level under --verbose and Info level otherwise. It is handed explicitly to
// every component that logs (store, index builder, graph builder, PageRank
// graph, search engine) through its WithLogger method rather than used as a
// package-level global, so each
// component's log lines carry its own fields without a shared mutable state.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// openStore opens the SQLite store at cfg.GetStorePath(), creating
// cfg.ConfigDir first.
func openStore(cfg *config.Config) (*sqlite.Store, error) {
	if err := cfg.EnsureConfigDir(); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	return sqlite.Open(cfg.GetStorePath())
}

// newEngine wires a search.Engine over an already-open store and config
// holder, reading book text straight off disk for highlighting.
func newEngine(st store.Store, holder *config.Holder) *search.Engine {
	return search.New(st, holder, semantic.New(st), func(path string) (string, error) {
		b, err := os.ReadFile(path)
		return string(b), err
	})
}

// newHolder starts a Holder from cfg and replays any hot-reloadable
// settings a prior `config set` persisted to the store's app_config
// table, so changes survive across CLI invocations despite each one
// being a fresh process.
func newHolder(ctx context.Context, st store.Store, cfg *config.Config) (*config.Holder, error) {
	holder, err := config.NewHolder(cfg)
	if err != nil {
		return nil, err
	}
	overrides, err := st.GetAppConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stored config overrides: %w", err)
	}
	if len(overrides) == 0 {
		return holder, nil
	}
	if _, err := holder.Apply(overrides); err != nil {
		return nil, fmt.Errorf("apply stored config overrides: %w", err)
	}
	return holder, nil
}
