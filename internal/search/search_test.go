package search

import (
	"context"
	"strings"
	"testing"

	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/index"
	"github.com/shelfindex/bookfts/internal/semantic"
	"github.com/shelfindex/bookfts/internal/store"
	"github.com/shelfindex/bookfts/internal/store/memstore"
)

func seedEngine(t *testing.T, texts map[string]string) (*Engine, store.Store, map[string]store.Book) {
	t.Helper()
	st := memstore.New()
	tokCfg := config.TokenizerConfig{MinWordLength: 2, RemoveStopWords: true}
	b := index.New(st, tokCfg).WithFileReader(func(path string) (string, error) { return texts[path], nil })

	books := make(map[string]store.Book, len(texts))
	for path := range texts {
		book, err := b.IndexBook(context.Background(), store.BookMeta{Title: path, Author: "Author " + path, FilePath: path})
		if err != nil {
			t.Fatalf("IndexBook(%s) failed: %v", path, err)
		}
		books[path] = book
	}
	if err := index.UpdateLibraryMetadataFromStore(context.Background(), st); err != nil {
		t.Fatalf("UpdateLibraryMetadataFromStore failed: %v", err)
	}

	holder, err := config.NewHolder(config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewHolder failed: %v", err)
	}
	readFile := func(path string) (string, error) { return texts[path], nil }
	return New(st, holder, semantic.New(st), readFile), st, books
}

func TestSearchFindsBookByContent(t *testing.T) {
	e, _, books := seedEngine(t, map[string]string{
		"a.txt": "the great whale swam through the deep blue ocean",
		"b.txt": "quantum mechanics describes subatomic particle behavior",
	})
	resp, err := e.Search(context.Background(), Params{Query: "whale", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Book.ID != books["a.txt"].ID {
		t.Fatalf("expected a.txt to match 'whale', got %+v", resp.Results)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	e, _, _ := seedEngine(t, map[string]string{"a.txt": "whale boat"})
	if _, err := e.Search(context.Background(), Params{Query: "   ", Limit: 10}); err == nil {
		t.Error("expected empty query to fail")
	}
}

func TestSearchAppliesAuthorFilter(t *testing.T) {
	e, st, _ := seedEngine(t, map[string]string{
		"a.txt": "whale boat ocean captain",
		"b.txt": "whale shark reef diver",
	})
	// seedEngine gives each book the author "Author <path>", so the file
	// name alone distinguishes the two authors.
	_ = st
	resp, err := e.Search(context.Background(), Params{Query: "whale", AuthorFilter: "a.txt", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range resp.Results {
		if !strings.Contains(strings.ToLower(r.Book.Author), "a.txt") {
			t.Errorf("expected author filter to exclude %+v", r.Book)
		}
	}
}

func TestSearchPaginationMatchesFullSlice(t *testing.T) {
	e, _, _ := seedEngine(t, map[string]string{
		"a.txt": "whale whale whale boat",
		"b.txt": "whale boat sea",
		"c.txt": "whale mountain forest",
	})
	full, err := e.Search(context.Background(), Params{Query: "whale", Limit: 100})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	page, err := e.Search(context.Background(), Params{Query: "whale", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(page.Results) != 1 || len(full.Results) < 2 {
		t.Fatalf("expected a 1-result page from a >=2 result full set, got page=%d full=%d", len(page.Results), len(full.Results))
	}
	if page.Results[0].Book.ID != full.Results[1].Book.ID {
		t.Errorf("expected paginated result to match offset slice of full results")
	}
}

func TestSearchRegexMatchesVocabularyTerms(t *testing.T) {
	e, _, _ := seedEngine(t, map[string]string{
		"a.txt": "running jumping swimming diving",
		"b.txt": "quantum physics electron",
	})
	resp, err := e.SearchRegex(context.Background(), "[a-z]+ing", Params{Limit: 10})
	if err != nil {
		t.Fatalf("SearchRegex failed: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 book matching *ing vocabulary terms, got %+v", resp.Results)
	}
}

func TestSearchRegexNoMatchesReturnsEmpty(t *testing.T) {
	e, _, _ := seedEngine(t, map[string]string{"a.txt": "whale boat sea"})
	resp, err := e.SearchRegex(context.Background(), "zzzzz+", Params{Limit: 10})
	if err != nil {
		t.Fatalf("SearchRegex failed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %+v", resp.Results)
	}
}

func TestGetRecommendationsFromHistoryRequiresPositiveLimit(t *testing.T) {
	e, _, _ := seedEngine(t, map[string]string{"a.txt": "whale boat"})
	if _, err := e.GetRecommendationsFromHistory(context.Background(), 0); err == nil {
		t.Error("expected a non-positive limit to fail")
	}
}

func TestGetSuggestionsEmptyWithoutGraph(t *testing.T) {
	e, _, books := seedEngine(t, map[string]string{
		"a.txt": "whale boat ocean captain",
		"b.txt": "whale shark reef diver",
	})
	results := []Result{{Book: books["a.txt"]}}
	suggestions, err := e.GetSuggestions(context.Background(), results, 5)
	if err != nil {
		t.Fatalf("GetSuggestions failed: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("expected no suggestions without a Jaccard graph, got %+v", suggestions)
	}
}
