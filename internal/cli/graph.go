package cli

import (
	"fmt"
	"time"

	"github.com/shelfindex/bookfts/internal/bookgraph"
	"github.com/shelfindex/bookfts/internal/metrics"
	"github.com/shelfindex/bookfts/internal/recovery"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage the Jaccard book-similarity graph",
}

var graphBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the Jaccard similarity graph from scratch",
	Long: `Recomputes pairwise term-overlap similarity across every book in the
library and replaces the stored edge set.`,
	RunE: runGraphBuild,
}

func init() {
	graphCmd.AddCommand(graphBuildCmd)
}

func runGraphBuild(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer st.Close()
	logger := newLogger(cmd)
	st.WithLogger(logger)

	holder, err := newHolder(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}

	builder := bookgraph.New(st, holder.Load().Jaccard()).WithLogger(logger)
	guard := recovery.NewGuard(recovery.DefaultRetryConfig())

	start := time.Now()
	err = guard.Run("graph.build", func() error {
		return builder.BuildGraph(cmd.Context(), func(processed, total int) bool {
			fmt.Printf("\rbuilding graph: %d/%d", processed, total)
			return false
		})
	})
	metrics.RecordDatabaseOperation("graph.build", time.Since(start), err == nil)
	fmt.Println()
	if err != nil {
		return err
	}

	count, err := st.EdgeCount(cmd.Context())
	if err != nil {
		return err
	}
	newEngine(st, holder).WithLogger(logger).InvalidateCaches()

	fmt.Printf("Graph rebuilt: %d edges\n", count)
	return nil
}
