package cli

import (
	"fmt"

	"github.com/shelfindex/bookfts/internal/metrics"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show search and database performance metrics for this process",
	Long: `Reports counters, timers, and system metrics accumulated since the
process started: search latency and cache hit ratio, index/graph/rank
operation timings, and current memory/goroutine usage.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	report := metrics.GetPerformanceReport()
	fmt.Print(report.String())
	return nil
}
