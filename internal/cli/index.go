package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfindex/bookfts/internal/index"
	"github.com/shelfindex/bookfts/internal/metrics"
	"github.com/shelfindex/bookfts/internal/recovery"
	"github.com/shelfindex/bookfts/internal/store"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Ingest books into the library's inverted index",
}

var indexAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Index a single book file",
	Long: `Reads a book's text file, tokenizes it, and writes postings and term
statistics to the store.

Example:
  bookfts index add moby-dick.txt --title "Moby Dick" --author "Herman Melville"`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexAdd,
}

func init() {
	indexAddCmd.Flags().String("title", "", "Book title (defaults to the file name)")
	indexAddCmd.Flags().String("author", "", "Book author")
	indexAddCmd.Flags().String("cover", "", "Path to a cover image")
	indexCmd.AddCommand(indexAddCmd)
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("access %s: %w", filePath, err)
	}

	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = filepath.Base(filePath)
	}
	author, _ := cmd.Flags().GetString("author")
	cover, _ := cmd.Flags().GetString("cover")

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

	guard := recovery.NewGuard(recovery.DefaultRetryConfig())
	builder := index.New(st, holder.Load().Tokenizer()).WithLogger(logger)

	start := time.Now()
	var book store.Book
	err = guard.RunWithRetry("index.add", func() error {
		var indexErr error
		book, indexErr = builder.IndexBook(cmd.Context(), store.BookMeta{
			Title:          title,
			Author:         author,
			FilePath:       filePath,
			CoverImagePath: cover,
		})
		return indexErr
	})
	metrics.RecordDatabaseOperation("index.add", time.Since(start), err == nil)
	if err != nil {
		return err
	}

	if err := index.UpdateLibraryMetadataFromStore(cmd.Context(), st); err != nil {
		return fmt.Errorf("update library metadata: %w", err)
	}
	newEngine(st, holder).WithLogger(logger).InvalidateCaches()

	fmt.Printf("Indexed %q by %s (book id %d, %d words)\n", book.Title, book.Author, book.ID, book.WordCount)
	return nil
}
