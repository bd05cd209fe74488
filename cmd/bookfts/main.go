// bookfts is a command-line full-text search engine over a personal
// library of books. It features:
//   - An inverted index with BM25 ranking
//   - A Jaccard-similarity graph between books with PageRank authority
//   - Fuzzy and regex-vocabulary matching
//   - Search history and an interactive result browser
//
// Usage:
//
//	bookfts search "whaling voyages"
//	bookfts index add book.txt --title "Moby Dick"
//	bookfts browse
package main

import (
	"fmt"
	"os"

	"github.com/shelfindex/bookfts/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
