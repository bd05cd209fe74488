package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar book-id",
	Short: "Find books semantically similar to a given book",
	Long: `Finds the books whose TF-IDF term vectors are most cosine-similar to the
given book's, per the semantic similarity cache (distinct from the
Jaccard-overlap graph used for PageRank authority).`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntP("limit", "l", 10, "Maximum number of similar books to return")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	bookID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid book id %q: %w", args[0], err)
	}
	limit, _ := cmd.Flags().GetInt("limit")

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
	engine := newEngine(st, holder).WithLogger(logger)
	if err := engine.RecordClick(cmd.Context(), bookID); err != nil {
		return err
	}

	results, err := engine.FindSimilar(cmd.Context(), bookID, limit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No similar books found.")
		return nil
	}

	for i, r := range results {
		book, err := st.GetBook(cmd.Context(), r.BookID)
		if err != nil {
			return err
		}
		fmt.Printf("%d. %s — %s (similarity %.3f)\n", i+1, book.Title, book.Author, r.Similarity)
	}
	return nil
}
