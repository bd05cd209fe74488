package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shelfindex/bookfts/internal/history"
	"github.com/shelfindex/bookfts/internal/search"
	"github.com/shelfindex/bookfts/internal/validation"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the library by content, optionally filtered by author",
	Long: `Search the book library using a full-text query, or --regex to match a
vocabulary pattern instead.

Examples:
  bookfts search "the great whale"
  bookfts search --author melville "whale"
  bookfts search --regex "[a-z]+ology"
  bookfts search --fuzzy "qwantum physics"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Bool("regex", false, "Treat the query as a vocabulary regex instead of a full-text query")
	searchCmd.Flags().Bool("fuzzy", false, "Expand the query with fuzzy vocabulary matches")
	searchCmd.Flags().String("author", "", "Restrict results to books whose author contains this substring")
	searchCmd.Flags().Int("min-words", 0, "Minimum book word count")
	searchCmd.Flags().Int("max-words", 0, "Maximum book word count (0 = unbounded)")
	searchCmd.Flags().Float64("min-authority", 0, "Minimum PageRank authority score")
	searchCmd.Flags().IntP("limit", "l", 10, "Maximum number of results")
	searchCmd.Flags().Int("offset", 0, "Result offset for pagination")
	searchCmd.Flags().Bool("highlight", true, "Include highlighted snippets in results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	query := strings.Join(args, " ")

	cleanQuery, err := validation.ValidateQuery(query)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	limit, err = validation.ValidateLimit(limit)
	if err != nil {
		return err
	}

	useRegex, _ := cmd.Flags().GetBool("regex")
	fuzzy, _ := cmd.Flags().GetBool("fuzzy")
	author, _ := cmd.Flags().GetString("author")
	minWords, _ := cmd.Flags().GetInt("min-words")
	maxWords, _ := cmd.Flags().GetInt("max-words")
	minAuthority, _ := cmd.Flags().GetFloat64("min-authority")
	offset, _ := cmd.Flags().GetInt("offset")
	highlight, _ := cmd.Flags().GetBool("highlight")
	verbose, _ := cmd.Flags().GetBool("verbose")

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

	params := search.Params{
		Query:             cleanQuery,
		Fuzzy:             fuzzy,
		AuthorFilter:      author,
		MinWordCount:      minWords,
		MaxWordCount:      maxWords,
		MinAuthorityScore: minAuthority,
		Highlight:         highlight,
		Limit:             limit,
		Offset:            offset,
	}

	var resp search.Response
	if useRegex {
		resp, err = engine.SearchRegex(cmd.Context(), cleanQuery, params)
	} else {
		resp, err = engine.Search(cmd.Context(), params)
	}
	if err != nil {
		return err
	}

	recordHistory(cleanQuery, len(resp.Results), time.Since(startTime))

	if len(resp.Results) == 0 {
		fmt.Printf("No books found matching %q.\n", cleanQuery)
		return nil
	}

	format, _ := cmd.Flags().GetString("format")
	printResults(resp.Results, format, verbose)

	if verbose {
		fmt.Printf("\nSearch completed in %v\n", time.Since(startTime))
	}
	return nil
}

func recordHistory(query string, resultsCount int, duration time.Duration) {
	h := history.NewSearchHistory(history.DefaultHistoryPath(), 100)
	_ = h.Load()
	h.AddEntry(query, resultsCount, "", duration)
	_ = h.Save()
}

func printResults(results []search.Result, format string, verbose bool) {
	switch strings.ToLower(format) {
	case "json":
		type outItem struct {
			BookID   int      `json:"book_id"`
			Title    string   `json:"title"`
			Author   string   `json:"author"`
			Score    float64  `json:"score"`
			Snippets []string `json:"snippets,omitempty"`
		}
		out := make([]outItem, 0, len(results))
		for _, r := range results {
			out = append(out, outItem{
				BookID:   r.Book.ID,
				Title:    r.Book.Title,
				Author:   r.Book.Author,
				Score:    r.Score,
				Snippets: r.Snippets,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)

	case "table":
		fmt.Printf("%-3s %-48s %-24s %-8s\n", "#", "Title", "Author", "Score")
		fmt.Println(strings.Repeat("-", 90))
		for i, r := range results {
			title := r.Book.Title
			if len(title) > 48 {
				title = title[:45] + "..."
			}
			author := r.Book.Author
			if len(author) > 24 {
				author = author[:21] + "..."
			}
			fmt.Printf("%-3d %-48s %-24s %-8.2f\n", i+1, title, author, r.Score)
		}

	default:
		fmt.Printf("Found %d matching book(s):\n\n", len(results))
		for i, r := range results {
			fmt.Printf("%d. %s — %s (score %.2f)\n", i+1, r.Book.Title, r.Book.Author, r.Score)
			for _, snippet := range r.Snippets {
				fmt.Printf("   %s\n", snippet)
			}
			fmt.Println()
		}
	}
}
