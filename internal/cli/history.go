package cli

import (
	"fmt"

	"github.com/shelfindex/bookfts/internal/history"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent and frequent search queries",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 10, "Maximum number of entries to show")
	historyCmd.Flags().Bool("top", false, "Show most frequent queries instead of most recent")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	top, _ := cmd.Flags().GetBool("top")

	h := history.NewSearchHistory(history.DefaultHistoryPath(), 100)
	if err := h.Load(); err != nil {
		return fmt.Errorf("load search history: %w", err)
	}

	if top {
		freqs := h.GetTopQueries(limit)
		if len(freqs) == 0 {
			fmt.Println("No search history yet.")
			return nil
		}
		for i, f := range freqs {
			fmt.Printf("%d. %q (%d searches, last used %s)\n", i+1, f.Query, f.Count, f.LastUsed.Format("2006-01-02 15:04"))
		}
		return nil
	}

	queries := h.GetRecentQueries(limit)
	if len(queries) == 0 {
		fmt.Println("No search history yet.")
		return nil
	}
	for i, q := range queries {
		fmt.Printf("%d. %s\n", i+1, q)
	}
	return nil
}
