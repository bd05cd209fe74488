package cli

import (
	"fmt"
	"time"

	"github.com/shelfindex/bookfts/internal/metrics"
	"github.com/shelfindex/bookfts/internal/rank"
	"github.com/shelfindex/bookfts/internal/recovery"

	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Recompute PageRank authority scores over the similarity graph",
	Long: `Loads the Jaccard edge set and runs PageRank to completion (or until the
iteration cap), storing the resulting per-book authority scores.`,
	RunE: runRank,
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer st.Close()
	logger := newLogger(cmd)
	st.WithLogger(logger)

	edges, err := st.AllEdges(cmd.Context())
	if err != nil {
		return err
	}

	graph := rank.BuildGraph(edges).WithLogger(logger)

	holder, err := newHolder(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}

	var scores map[int]float64
	var solverMetrics rank.Metrics
	guard := recovery.NewGuard(recovery.DefaultRetryConfig())
	start := time.Now()
	err = guard.Run("rank.pagerank", func() error {
		var rankErr error
		scores, solverMetrics, rankErr = graph.PageRank(holder.Load().PageRank())
		return rankErr
	})
	metrics.RecordDatabaseOperation("rank.pagerank", time.Since(start), err == nil)
	if err != nil {
		return err
	}

	if err := st.ReplaceAuthorityScores(cmd.Context(), scores); err != nil {
		return err
	}
	newEngine(st, holder).WithLogger(logger).InvalidateCaches()

	fmt.Printf("PageRank converged=%v iterations=%d delta=%g (%d books)\n",
		solverMetrics.Converged, solverMetrics.Iterations, solverMetrics.FinalDelta, len(scores))
	return nil
}
