// Package memstore is an in-memory store.Store used by component tests
// that need a real store round-trip without a SQLite file — the same
// role the teacher's in-memory YAML-loaded command set played for its
// own package tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/store"
)

// Store is a mutex-guarded, map-backed store.Store.
type Store struct {
	mu sync.Mutex

	nextID int
	books  map[int]store.Book
	clicks map[int]int

	// postings[term][bookID] = positions
	postings map[string]map[int][]int
	stats    map[string]store.TermStats
	edges    []store.JaccardEdge
	scores   map[int]float64
	meta     store.LibraryMetadata
	appCfg   map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		nextID:   1,
		books:    make(map[int]store.Book),
		clicks:   make(map[int]int),
		postings: make(map[string]map[int][]int),
		stats:    make(map[string]store.TermStats),
		scores:   make(map[int]float64),
		appCfg:   make(map[string]string),
	}
}

func (s *Store) Close() error { return nil }

// --- transactions ---
//
// memstore has no real transaction log; WithTx takes the lock for the
// whole closure so a test failure mid-batch can't be observed as a torn
// write by a concurrent reader. Unlike the SQLite store, writes made
// before fn returns an error are kept, not rolled back.

type tx struct{ s *Store }

func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s})
}

func (t *tx) InsertBook(ctx context.Context, meta store.BookMeta, wordCount int) (int, error) {
	id := t.s.nextID
	t.s.nextID++
	t.s.books[id] = store.Book{
		ID:             id,
		Title:          meta.Title,
		Author:         meta.Author,
		FilePath:       meta.FilePath,
		CoverImagePath: meta.CoverImagePath,
		WordCount:      wordCount,
	}
	return id, nil
}

func (t *tx) DeleteBookPostings(ctx context.Context, bookID int) error {
	for term, byBook := range t.s.postings {
		delete(byBook, bookID)
		if len(byBook) == 0 {
			delete(t.s.postings, term)
		}
	}
	return nil
}

func (t *tx) InsertPostings(ctx context.Context, postings []store.Posting) error {
	for _, p := range postings {
		if t.s.postings[p.Term] == nil {
			t.s.postings[p.Term] = make(map[int][]int)
		}
		t.s.postings[p.Term][p.BookID] = p.Positions
	}
	return nil
}

func (t *tx) UpsertTermStats(ctx context.Context, stats []store.TermStats) error {
	for _, ts := range stats {
		t.s.stats[ts.Term] = ts
	}
	return nil
}

// --- books ---

func (s *Store) GetBook(ctx context.Context, id int) (store.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return store.Book{}, apperrors.NotFound("memstore.GetBook", "book not found")
	}
	b.ClickCount = s.clicks[id]
	return b, nil
}

func (s *Store) GetBooks(ctx context.Context, ids []int) (map[int]store.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[int]store.Book, len(ids))
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			b.ClickCount = s.clicks[id]
			result[id] = b
		}
	}
	return result, nil
}

func (s *Store) FindBooksByTitleOrAuthor(ctx context.Context, substr string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(substr)
	var ids []int
	for id, b := range s.books {
		if strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) AllBookIDs(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) IncrementClickCount(ctx context.Context, bookID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[bookID]; !ok {
		return apperrors.NotFound("memstore.IncrementClickCount", "book not found")
	}
	s.clicks[bookID]++
	return nil
}

func (s *Store) TotalBookCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books), nil
}

// --- inverted index ---

func (s *Store) FindBookIDsContainingAnyTerm(ctx context.Context, terms []string) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int]bool)
	for _, term := range terms {
		for bookID := range s.postings[term] {
			seen[bookID] = true
		}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *Store) FetchTermFrequencies(ctx context.Context, bookIDs []int, terms []string) ([]store.BookTermFrequencies, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int]bool, len(bookIDs))
	for _, id := range bookIDs {
		wanted[id] = true
	}
	byBook := make(map[int]map[string]int)
	for _, term := range terms {
		for bookID, positions := range s.postings[term] {
			if !wanted[bookID] {
				continue
			}
			if byBook[bookID] == nil {
				byBook[bookID] = make(map[string]int)
			}
			byBook[bookID][term] = len(positions)
		}
	}
	result := make([]store.BookTermFrequencies, 0, len(byBook))
	for bookID, freq := range byBook {
		result = append(result, store.BookTermFrequencies{BookID: bookID, Freq: freq})
	}
	return result, nil
}

func (s *Store) FetchPostingsForBook(ctx context.Context, bookID int, terms []string) (map[string][]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string][]int)
	for _, term := range terms {
		if positions, ok := s.postings[term][bookID]; ok {
			result[term] = positions
		}
	}
	return result, nil
}

func (s *Store) FetchPositionsForBooks(ctx context.Context, bookIDs []int, terms []string) (map[int]map[string][]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[int]bool, len(bookIDs))
	for _, id := range bookIDs {
		wanted[id] = true
	}
	result := make(map[int]map[string][]int)
	for _, term := range terms {
		for bookID, positions := range s.postings[term] {
			if !wanted[bookID] {
				continue
			}
			if result[bookID] == nil {
				result[bookID] = make(map[string][]int)
			}
			result[bookID][term] = positions
		}
	}
	return result, nil
}

func (s *Store) FetchAllPostingsForBook(ctx context.Context, bookID int) (map[string][]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string][]int)
	for term, byBook := range s.postings {
		if positions, ok := byBook[bookID]; ok {
			result[term] = positions
		}
	}
	return result, nil
}

func (s *Store) Vocabulary(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	terms := make([]string, 0, len(s.stats))
	for term := range s.stats {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms, nil
}

func (s *Store) TermStats(ctx context.Context, term string) (store.TermStats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.stats[term]
	return ts, ok, nil
}

func (s *Store) AllTermStats(ctx context.Context) (map[string]store.TermStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]store.TermStats, len(s.stats))
	for term, ts := range s.stats {
		result[term] = ts
	}
	return result, nil
}

// --- jaccard graph ---

func (s *Store) ReplaceJaccardEdges(ctx context.Context, edges []store.JaccardEdge, progress store.ProgressFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = nil
	for i, e := range edges {
		s.edges = append(s.edges, e)
		if progress != nil && progress(i+1, len(edges)) {
			return apperrors.PreconditionFailed("memstore.ReplaceJaccardEdges", "cancelled by progress callback")
		}
	}
	return nil
}

func (s *Store) EdgesForBook(ctx context.Context, bookID int) ([]store.JaccardEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []store.JaccardEdge
	for _, e := range s.edges {
		if e.BookID1 == bookID || e.BookID2 == bookID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Store) AllEdges(ctx context.Context) ([]store.JaccardEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]store.JaccardEdge, len(s.edges))
	copy(result, s.edges)
	return result, nil
}

func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges), nil
}

// --- authority scores ---

func (s *Store) ReplaceAuthorityScores(ctx context.Context, scores map[int]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores = make(map[int]float64, len(scores))
	for id, score := range scores {
		s.scores[id] = score
	}
	return nil
}

func (s *Store) AuthorityScore(ctx context.Context, bookID int) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[bookID]
	return score, ok, nil
}

func (s *Store) AllAuthorityScores(ctx context.Context) (map[int]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[int]float64, len(s.scores))
	for id, score := range s.scores {
		result[id] = score
	}
	return result, nil
}

// --- click history ---

func (s *Store) TopClickedBooks(ctx context.Context, limit int) ([]store.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	type clicked struct {
		book  store.Book
		count int
	}
	var all []clicked
	for id, count := range s.clicks {
		if count == 0 {
			continue
		}
		b := s.books[id]
		b.ClickCount = count
		all = append(all, clicked{book: b, count: count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].book.ID < all[j].book.ID
	})
	if limit > len(all) {
		limit = len(all)
	}
	result := make([]store.Book, limit)
	for i := 0; i < limit; i++ {
		result[i] = all[i].book
	}
	return result, nil
}

// --- library metadata / app config ---

func (s *Store) GetLibraryMetadata(ctx context.Context) (store.LibraryMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta, nil
}

func (s *Store) SetLibraryMetadata(ctx context.Context, meta store.LibraryMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = meta
	return nil
}

func (s *Store) GetAppConfig(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[string]string, len(s.appCfg))
	for k, v := range s.appCfg {
		result[k] = v
	}
	return result, nil
}

func (s *Store) SetAppConfig(ctx context.Context, key, value, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appCfg[key] = value
	return nil
}
