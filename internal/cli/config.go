package cli

import (
	"fmt"
	"strings"

	"github.com/shelfindex/bookfts/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change runtime-tunable settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current configuration",
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value [key=value...]",
	Short: "Update one or more hot-reloadable settings",
	Long: `Updates one or more settings and validates the result as a whole; default-only
settings (threshold, topK, batchSize, damping, maxIterations, tolerance)
cannot be changed here.

Example:
  bookfts config set k1=1.5 bm25Weight=0.7`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer st.Close()

	holder, err := newHolder(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}
	view := holder.Load()

	fmt.Printf("store:          %s\n", view.StorePath())
	fmt.Printf("configDir:      %s\n", view.ConfigDir())
	fmt.Printf("minWordLength:  %d\n", view.Tokenizer().MinWordLength)
	fmt.Printf("removeStopWords: %v\n", view.Tokenizer().RemoveStopWords)
	fmt.Printf("jaccard.threshold: %g\n", view.Jaccard().Threshold)
	fmt.Printf("jaccard.topK:      %d\n", view.Jaccard().TopK)
	fmt.Printf("pagerank.damping:  %g\n", view.PageRank().Damping)
	fmt.Printf("bm25.k1:           %g\n", view.BM25().K1)
	fmt.Printf("bm25.b:            %g\n", view.BM25().B)
	fmt.Printf("bm25.bm25Weight:       %g\n", view.BM25().BM25Weight)
	fmt.Printf("bm25.pagerankWeight:   %g\n", view.BM25().PageRankWeight)
	fmt.Printf("highlight.snippetCount: %d\n", view.Highlight().SnippetCount)
	fmt.Printf("fuzzy.maxDistance:      %d\n", view.Fuzzy().MaxDistance)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer st.Close()

	holder, err := newHolder(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}

	updates := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("invalid setting %q, expected key=value", arg)
		}
		updates[key] = value
	}

	if _, err := holder.Apply(updates); err != nil {
		return err
	}

	for key, value := range updates {
		kind, _ := config.KindOf(key)
		if err := st.SetAppConfig(cmd.Context(), key, value, kind); err != nil {
			return fmt.Errorf("persist setting %q: %w", key, err)
		}
	}

	fmt.Printf("Updated %d setting(s)\n", len(updates))
	return nil
}
