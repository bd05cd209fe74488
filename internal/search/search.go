// Package search implements C10: the orchestrator that ties tokenizing,
// candidate resolution, batch scoring, and highlighting into the public
// search/searchRegex/getSuggestions/getRecommendationsFromHistory
// operations (spec §4.10). Grounded on the teacher's internal/search
// package shape — one Engine wrapping a corpus and config, exposing a
// handful of top-level query methods — generalized from command lookup
// to book search.
package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/cache"
	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/constants"
	"github.com/shelfindex/bookfts/internal/fuzzymatch"
	"github.com/shelfindex/bookfts/internal/highlight"
	"github.com/shelfindex/bookfts/internal/metrics"
	"github.com/shelfindex/bookfts/internal/regexvocab"
	"github.com/shelfindex/bookfts/internal/scoring"
	"github.com/shelfindex/bookfts/internal/semantic"
	"github.com/shelfindex/bookfts/internal/store"
	"github.com/shelfindex/bookfts/internal/tokenizer"
)

// Params configures one search call.
type Params struct {
	Query string
	// Fields selects which parts of a book are searched: any of
	// "content", "title", "author". Empty defaults to "content" only.
	// "title" and "author" both select books whose title or author
	// contains the whole query string; neither column is matched alone.
	Fields []string
	Fuzzy  bool

	AuthorFilter      string
	MinWordCount      int
	MaxWordCount      int // 0 means unbounded
	MinAuthorityScore float64

	Highlight bool
	Limit     int
	Offset    int
}

// Result is one scored book in a search response.
type Result struct {
	Book           store.Book
	Score          float64
	BM25Sum        float64
	AuthorityScore float64
	Snippets       []string
}

// Response is the full output of a search call.
type Response struct {
	Results   []Result
	ElapsedMs int64
}

// FileReader reads a book's text content for highlighting, matching the
// index builder's abstraction over raw file access (spec §4.2, §4.9).
type FileReader func(path string) (string, error)

// Engine is the search orchestrator, bound to a store, a live config
// holder, and the long-lived caches it reuses across calls.
type Engine struct {
	st       store.Store
	cfg      *config.Holder
	semantic *semantic.Cache
	fuzzy    *fuzzymatch.Matcher
	readFile FileReader
	results  *cache.SearchCache
	logger   zerolog.Logger
}

// New returns an Engine. readFile is used only when Params.Highlight is
// set; pass nil to disable highlighting entirely (snippets come back empty).
// The Engine logs nothing until WithLogger is called.
func New(st store.Store, cfg *config.Holder, semanticCache *semantic.Cache, readFile FileReader) *Engine {
	return &Engine{
		st:       st,
		cfg:      cfg,
		semantic: semanticCache,
		fuzzy:    fuzzymatch.New(),
		readFile: readFile,
		results:  cache.NewSearchCache(constants.DefaultSearchCacheCap, constants.DefaultCacheTTL),
		logger:   zerolog.Nop(),
	}
}

// WithLogger attaches logger. Search is latency-sensitive and runs far more
// often than an admin operation, so it logs only at Debug (request
// boundaries and candidate-resolution timing) rather than Info — callers
// get per-request visibility via the returned Response and the metrics
// package's RecordSearchOperation, not the log stream.
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	e.logger = logger
	return e
}

// InvalidateCaches drops the result cache and the semantic TF-IDF vector
// cache. Callers that mutate the store (index, graph, rank) must call this
// afterwards so Search and FindSimilar stop serving stale data (spec §3's
// cache-ownership rule: caches are invalidated wholesale on any admin write).
func (e *Engine) InvalidateCaches() {
	e.results.Invalidate()
	e.semantic.Invalidate()
}

// RecordClick increments a book's click count, the signal
// GetRecommendationsFromHistory and the store's TopClickedBooks rank on
// (spec §3's Book invariant: click count is incremented by the search
// orchestrator, never by the store layer on its own).
func (e *Engine) RecordClick(ctx context.Context, bookID int) error {
	return e.st.IncrementClickCount(ctx, bookID)
}

// Search runs the full C10 pipeline (spec §4.10).
func (e *Engine) Search(ctx context.Context, p Params) (Response, error) {
	start := time.Now()
	e.logger.Debug().Str("query", p.Query).Bool("fuzzy", p.Fuzzy).Msg("search: started")
	view := e.cfg.Load()

	queryTerms := tokenizer.TokenizeQuery(p.Query)
	if len(queryTerms) == 0 {
		return Response{}, apperrors.InvalidInput("search.Search", "query has no terms after tokenization")
	}
	if p.Limit < 0 || p.Offset < 0 {
		return Response{}, apperrors.InvalidInput("search.Search", "limit and offset must be non-negative")
	}

	cacheOpts := cacheOptionsFor(p)
	if cached, hit := e.results.Get(p.Query, cacheOpts); hit {
		resp, err := e.hydrateCached(ctx, cached)
		if err != nil {
			return Response{}, err
		}
		resp.ElapsedMs = time.Since(start).Milliseconds()
		metrics.RecordSearchOperation(time.Since(start), len(resp.Results), true, len(p.Query))
		return resp, nil
	}

	if p.Fuzzy {
		vocab, err := e.st.Vocabulary(ctx)
		if err != nil {
			return Response{}, err
		}
		queryTerms = e.expandFuzzy(queryTerms, vocab, view.Fuzzy().MaxDistance)
	}

	candidateStart := time.Now()
	candidateIDs, err := e.resolveCandidates(ctx, p, queryTerms)
	if err != nil {
		return Response{}, err
	}
	e.logger.Debug().Int("candidates", len(candidateIDs)).
		Dur("elapsed", time.Since(candidateStart)).Msg("search: candidates resolved")
	if len(candidateIDs) == 0 {
		metrics.RecordSearchOperation(time.Since(start), 0, false, len(p.Query))
		return Response{Results: nil, ElapsedMs: time.Since(start).Milliseconds()}, nil
	}

	books, err := e.st.GetBooks(ctx, candidateIDs)
	if err != nil {
		return Response{}, err
	}
	authority, err := e.st.AllAuthorityScores(ctx)
	if err != nil {
		return Response{}, err
	}
	termFreqs, err := e.st.FetchTermFrequencies(ctx, candidateIDs, queryTerms)
	if err != nil {
		return Response{}, err
	}

	var positions map[int]map[string][]int
	if view.BM25().EnableProximityBonus {
		positions, err = e.st.FetchPositionsForBooks(ctx, candidateIDs, queryTerms)
		if err != nil {
			return Response{}, err
		}
	}

	meta, err := e.st.GetLibraryMetadata(ctx)
	if err != nil {
		return Response{}, err
	}
	totalBooks, err := e.st.TotalBookCount(ctx)
	if err != nil {
		return Response{}, err
	}

	termDF := make(scoring.TermDF, len(queryTerms))
	for _, term := range queryTerms {
		if ts, ok, err := e.st.TermStats(ctx, term); err == nil && ok {
			termDF[term] = ts.DocumentFrequency
		}
	}

	inputs := make([]scoring.BookInput, 0, len(termFreqs))
	for _, tf := range termFreqs {
		book, ok := books[tf.BookID]
		if !ok || !passesFilters(book, p, authority[tf.BookID]) {
			continue
		}
		inputs = append(inputs, scoring.BookInput{
			BookID:    tf.BookID,
			WordCount: book.WordCount,
			TermFreq:  tf.Freq,
			Positions: positions[tf.BookID],
		})
	}
	// Books with zero matching query terms never appear in termFreqs but
	// may still pass title/author candidate resolution; include them with
	// an empty term-frequency map so they still get a PageRank-only score.
	for _, id := range candidateIDs {
		if hasInput(inputs, id) {
			continue
		}
		book, ok := books[id]
		if !ok || !passesFilters(book, p, authority[id]) {
			continue
		}
		inputs = append(inputs, scoring.BookInput{BookID: id, WordCount: book.WordCount, TermFreq: nil})
	}

	scored := scoring.New(view.BM25()).ScoreBatch(inputs, queryTerms, termDF, totalBooks, meta.AvgDocLength, authority)

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].BookID < scored[j].BookID
	})

	page := paginate(scored, p.Offset, p.Limit)
	results := make([]Result, 0, len(page))
	for _, sc := range page {
		book := books[sc.BookID]
		r := Result{Book: book, Score: sc.Score, BM25Sum: sc.BM25Sum, AuthorityScore: authority[sc.BookID]}
		if p.Highlight && e.readFile != nil {
			r.Snippets = e.highlightBook(view, book, queryTerms, positions[sc.BookID])
		}
		results = append(results, r)
	}

	e.results.Put(p.Query, cacheOpts, toCacheResults(results))
	metrics.RecordSearchOperation(time.Since(start), len(results), false, len(p.Query))
	e.logger.Debug().Int("results", len(results)).Dur("elapsed", time.Since(start)).Msg("search: completed")
	return Response{Results: results, ElapsedMs: time.Since(start).Milliseconds()}, nil
}

// cacheOptionsFor extracts the subset of Params that affects which rows
// come back, for use as a cache key (spec §3 cache-ownership rule).
func cacheOptionsFor(p Params) cache.SearchOptions {
	return cache.SearchOptions{
		Fields:            p.Fields,
		Fuzzy:             p.Fuzzy,
		AuthorFilter:      p.AuthorFilter,
		MinWordCount:      p.MinWordCount,
		MaxWordCount:      p.MaxWordCount,
		MinAuthorityScore: p.MinAuthorityScore,
		Limit:             p.Limit,
		Offset:            p.Offset,
	}
}

func toCacheResults(results []Result) []cache.SearchResult {
	cached := make([]cache.SearchResult, len(results))
	for i, r := range results {
		cached[i] = cache.SearchResult{BookID: r.Book.ID, Score: r.Score}
	}
	return cached
}

// hydrateCached rebuilds a Response from cached (bookID, score) pairs,
// re-fetching current book rows and authority scores. Snippets are not
// reconstructed from cache (the cache stores scores only, not term
// positions), matching the cache-stored-shape tradeoff described on
// cache.SearchResult.
func (e *Engine) hydrateCached(ctx context.Context, cached []cache.SearchResult) (Response, error) {
	ids := make([]int, len(cached))
	for i, c := range cached {
		ids[i] = c.BookID
	}
	books, err := e.st.GetBooks(ctx, ids)
	if err != nil {
		return Response{}, err
	}
	authority, err := e.st.AllAuthorityScores(ctx)
	if err != nil {
		return Response{}, err
	}

	results := make([]Result, 0, len(cached))
	for _, c := range cached {
		book, ok := books[c.BookID]
		if !ok {
			continue
		}
		results = append(results, Result{Book: book, Score: c.Score, AuthorityScore: authority[c.BookID]})
	}
	return Response{Results: results}, nil
}

func hasInput(inputs []scoring.BookInput, id int) bool {
	for _, in := range inputs {
		if in.BookID == id {
			return true
		}
	}
	return false
}

func passesFilters(book store.Book, p Params, authorityScore float64) bool {
	if p.AuthorFilter != "" && !strings.Contains(strings.ToLower(book.Author), strings.ToLower(p.AuthorFilter)) {
		return false
	}
	if p.MinWordCount > 0 && book.WordCount < p.MinWordCount {
		return false
	}
	if p.MaxWordCount > 0 && book.WordCount > p.MaxWordCount {
		return false
	}
	if authorityScore < p.MinAuthorityScore {
		return false
	}
	return true
}

func paginate(scored []scoring.Scored, offset, limit int) []scoring.Scored {
	if offset >= len(scored) {
		return nil
	}
	end := len(scored)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return scored[offset:end]
}

func (e *Engine) resolveCandidates(ctx context.Context, p Params, queryTerms []string) ([]int, error) {
	fields := p.Fields
	if len(fields) == 0 {
		fields = []string{"content"}
	}

	seen := make(map[int]bool)
	for _, field := range fields {
		switch field {
		case "content":
			ids, err := e.st.FindBookIDsContainingAnyTerm(ctx, queryTerms)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				seen[id] = true
			}
		case "title", "author":
			ids, err := e.st.FindBooksByTitleOrAuthor(ctx, p.Query)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				seen[id] = true
			}
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (e *Engine) expandFuzzy(queryTerms, vocab []string, maxDistance int) []string {
	seen := make(map[string]bool, len(queryTerms))
	var expanded []string
	for _, term := range queryTerms {
		if !seen[term] {
			seen[term] = true
			expanded = append(expanded, term)
		}
		for _, m := range e.fuzzy.FindSimilar(term, vocab, maxDistance) {
			if !seen[m.Term] {
				seen[m.Term] = true
				expanded = append(expanded, m.Term)
			}
		}
	}
	return expanded
}

func (e *Engine) highlightBook(view *config.View, book store.Book, queryTerms []string, positions map[string][]int) []string {
	if positions == nil {
		return nil
	}
	text, err := e.readFile(book.FilePath)
	if err != nil {
		return nil
	}
	return highlight.New(view.Highlight()).Highlight(text, queryTerms, positions)
}

// SearchRegex matches pattern against the vocabulary (not book text) and
// dispatches the matched terms as an OR'd content-field query (spec §4.7, §4.10).
func (e *Engine) SearchRegex(ctx context.Context, pattern string, p Params) (Response, error) {
	matcher, err := regexvocab.Compile(pattern)
	if err != nil {
		return Response{}, err
	}
	vocab, err := e.st.Vocabulary(ctx)
	if err != nil {
		return Response{}, err
	}
	matched := regexvocab.MatchVocabulary(matcher, vocab)
	if len(matched) == 0 {
		return Response{}, nil
	}
	p.Query = strings.Join(matched, " ")
	p.Fields = []string{"content"}
	p.Fuzzy = false
	return e.Search(ctx, p)
}

// FindSimilar delegates to the semantic cache (spec §4.5, §6).
func (e *Engine) FindSimilar(ctx context.Context, bookID, limit int) ([]semantic.Result, error) {
	return e.semantic.FindSimilar(ctx, bookID, limit, 0)
}

// Suggestion is one entry of a getSuggestions response.
type Suggestion struct {
	Book  store.Book
	Score float64
}

// GetSuggestions derives follow-up recommendations from the Jaccard
// neighbours of the top 3 results (spec §4.10).
func (e *Engine) GetSuggestions(ctx context.Context, results []Result, limit int) ([]Suggestion, error) {
	if len(results) == 0 || limit <= 0 {
		return nil, nil
	}
	exclude := make(map[int]bool, len(results))
	for _, r := range results {
		exclude[r.Book.ID] = true
	}

	top := results
	if len(top) > 3 {
		top = top[:3]
	}

	neighbourSim := make(map[int]float64)
	for _, r := range top {
		edges, err := e.st.EdgesForBook(ctx, r.Book.ID)
		if err != nil {
			return nil, err
		}
		count := 0
		for _, edge := range edges {
			if count >= 20 {
				break
			}
			count++
			other := edge.BookID2
			if other == r.Book.ID {
				other = edge.BookID1
			}
			if exclude[other] {
				continue
			}
			if edge.Similarity > neighbourSim[other] {
				neighbourSim[other] = edge.Similarity
			}
		}
	}
	if len(neighbourSim) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(neighbourSim))
	for id := range neighbourSim {
		ids = append(ids, id)
	}
	books, err := e.st.GetBooks(ctx, ids)
	if err != nil {
		return nil, err
	}
	authority, err := e.st.AllAuthorityScores(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(ids))
	for id, sim := range neighbourSim {
		book, ok := books[id]
		if !ok {
			continue
		}
		score := constants06*sim + constants04*100*authority[id]
		suggestions = append(suggestions, Suggestion{Book: book, Score: score})
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Book.ID < suggestions[j].Book.ID
	})
	if limit < len(suggestions) {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// These weights are fixed by spec §4.10 ("0.6·similarity + 0.4·100·pageRank"),
// distinct from the BM25/PageRank hybrid-fusion weights in config.BM25Config.
const (
	constants06 = 0.6
	constants04 = 0.4
)

// GetRecommendationsFromHistory returns the most-clicked books, used as a
// cold-start recommendation source when no query history exists (spec §6).
func (e *Engine) GetRecommendationsFromHistory(ctx context.Context, limit int) ([]store.Book, error) {
	if limit <= 0 {
		return nil, apperrors.InvalidInput("search.GetRecommendationsFromHistory", "limit must be positive")
	}
	return e.st.TopClickedBooks(ctx, limit)
}
