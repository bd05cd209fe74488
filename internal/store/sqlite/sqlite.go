// Package sqlite is the SQLite-backed implementation of store.Store,
// grounded on the same database/sql + mattn/go-sqlite3 + zerolog pattern
// used elsewhere in the corpus for a single-file embedded database: WAL
// journal mode, a busy timeout instead of ad-hoc retry loops, and
// idempotent CREATE TABLE IF NOT EXISTS migrations run once at open.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/store"
)

// Store is a store.Store backed by a single SQLite database file.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open creates the database file (and its parent directory) if needed,
// applies migrations, and returns a ready Store. It logs nothing until
// WithLogger is called.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.StoreFailure("sqlite.Open", "create store directory", err)
		}
	}
	// Create with 0600 before sql.Open to prevent a world-readable window.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.Open", "create database file", err)
	}
	f.Close()

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.Open", "open database", err)
	}
	s := &Store{db: db, path: path, logger: zerolog.Nop()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// WithLogger attaches logger, used for an Info-level boundary at open and
// for error-level reporting of transaction rollback failures.
func (s *Store) WithLogger(logger zerolog.Logger) *Store {
	s.logger = logger
	s.logger.Info().Str("path", s.path).Msg("sqlite: store opened")
	return s
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			author TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL,
			cover_image_path TEXT NOT NULL DEFAULT '',
			word_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS inverted_index (
			term TEXT NOT NULL,
			book_id INTEGER NOT NULL REFERENCES books(id),
			term_frequency INTEGER NOT NULL,
			positions TEXT NOT NULL,
			PRIMARY KEY (term, book_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inverted_index_book ON inverted_index(book_id)`,
		`CREATE TABLE IF NOT EXISTS term_stats (
			term TEXT PRIMARY KEY,
			document_frequency INTEGER NOT NULL,
			total_frequency INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jaccard_edges (
			book_id_1 INTEGER NOT NULL,
			book_id_2 INTEGER NOT NULL,
			similarity REAL NOT NULL,
			PRIMARY KEY (book_id_1, book_id_2)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jaccard_edges_2 ON jaccard_edges(book_id_2)`,
		`CREATE TABLE IF NOT EXISTS pagerank (
			book_id INTEGER PRIMARY KEY,
			score REAL NOT NULL,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS book_clicks (
			book_id INTEGER PRIMARY KEY,
			click_count INTEGER NOT NULL DEFAULT 0,
			last_clicked DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS library_metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS app_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return apperrors.StoreFailure("sqlite.migrate", "apply schema", err)
		}
	}
	return nil
}

// Close shuts down the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// --- transactions ---

type tx struct {
	t *sql.Tx
}

func (s *Store) WithTx(ctx context.Context, fn func(store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreFailure("sqlite.WithTx", "begin transaction", err)
	}
	if err := fn(&tx{t: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("sqlite: rollback failed after transaction error")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return apperrors.StoreFailure("sqlite.WithTx", "commit transaction", err)
	}
	return nil
}

func (t *tx) InsertBook(ctx context.Context, meta store.BookMeta, wordCount int) (int, error) {
	res, err := t.t.ExecContext(ctx,
		`INSERT INTO books (title, author, file_path, cover_image_path, word_count) VALUES (?, ?, ?, ?, ?)`,
		meta.Title, meta.Author, meta.FilePath, meta.CoverImagePath, wordCount,
	)
	if err != nil {
		return 0, apperrors.StoreFailure("sqlite.InsertBook", "insert book row", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.StoreFailure("sqlite.InsertBook", "read inserted id", err)
	}
	return int(id), nil
}

func (t *tx) DeleteBookPostings(ctx context.Context, bookID int) error {
	_, err := t.t.ExecContext(ctx, `DELETE FROM inverted_index WHERE book_id = ?`, bookID)
	if err != nil {
		return apperrors.StoreFailure("sqlite.DeleteBookPostings", "delete postings", err)
	}
	return nil
}

func (t *tx) InsertPostings(ctx context.Context, postings []store.Posting) error {
	stmt, err := t.t.PrepareContext(ctx,
		`INSERT OR REPLACE INTO inverted_index (term, book_id, term_frequency, positions) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return apperrors.StoreFailure("sqlite.InsertPostings", "prepare statement", err)
	}
	defer stmt.Close()

	for _, p := range postings {
		encoded, err := json.Marshal(p.Positions)
		if err != nil {
			return apperrors.StoreFailure("sqlite.InsertPostings", "encode positions", err)
		}
		if _, err := stmt.ExecContext(ctx, p.Term, p.BookID, p.TermFrequency, string(encoded)); err != nil {
			return apperrors.StoreFailure("sqlite.InsertPostings", "insert posting", err)
		}
	}
	return nil
}

func (t *tx) UpsertTermStats(ctx context.Context, stats []store.TermStats) error {
	stmt, err := t.t.PrepareContext(ctx,
		`INSERT INTO term_stats (term, document_frequency, total_frequency) VALUES (?, ?, ?)
		 ON CONFLICT(term) DO UPDATE SET document_frequency = excluded.document_frequency, total_frequency = excluded.total_frequency`)
	if err != nil {
		return apperrors.StoreFailure("sqlite.UpsertTermStats", "prepare statement", err)
	}
	defer stmt.Close()

	for _, ts := range stats {
		if _, err := stmt.ExecContext(ctx, ts.Term, ts.DocumentFrequency, ts.TotalFrequency); err != nil {
			return apperrors.StoreFailure("sqlite.UpsertTermStats", "upsert term stats", err)
		}
	}
	return nil
}

// --- books ---

func scanBook(row interface{ Scan(...any) error }) (store.Book, error) {
	var b store.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.FilePath, &b.CoverImagePath, &b.WordCount, &b.CreatedAt, &b.ClickCount); err != nil {
		return store.Book{}, err
	}
	return b, nil
}

const bookSelectCols = `b.id, b.title, b.author, b.file_path, b.cover_image_path, b.word_count, b.created_at,
	COALESCE((SELECT click_count FROM book_clicks WHERE book_id = b.id), 0)`

func (s *Store) GetBook(ctx context.Context, id int) (store.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookSelectCols+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return store.Book{}, apperrors.NotFound("sqlite.GetBook", fmt.Sprintf("book %d not found", id))
	}
	if err != nil {
		return store.Book{}, apperrors.StoreFailure("sqlite.GetBook", "scan book row", err)
	}
	return b, nil
}

func (s *Store) GetBooks(ctx context.Context, ids []int) (map[int]store.Book, error) {
	result := make(map[int]store.Book, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders, args := intInClause(ids)
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookSelectCols+` FROM books b WHERE b.id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.GetBooks", "query books", err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, apperrors.StoreFailure("sqlite.GetBooks", "scan book row", err)
		}
		result[b.ID] = b
	}
	return result, rows.Err()
}

func (s *Store) FindBooksByTitleOrAuthor(ctx context.Context, substr string) ([]int, error) {
	like := "%" + substr + "%"
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM books WHERE title LIKE ? OR author LIKE ?`, like, like)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FindBooksByTitleOrAuthor", "query books", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StoreFailure("sqlite.FindBooksByTitleOrAuthor", "scan id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AllBookIDs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM books`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.AllBookIDs", "query books", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StoreFailure("sqlite.AllBookIDs", "scan id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) IncrementClickCount(ctx context.Context, bookID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_clicks (book_id, click_count, last_clicked) VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(book_id) DO UPDATE SET click_count = click_count + 1, last_clicked = CURRENT_TIMESTAMP`,
		bookID)
	if err != nil {
		return apperrors.StoreFailure("sqlite.IncrementClickCount", "update click count", err)
	}
	return nil
}

func (s *Store) TotalBookCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	if err != nil {
		return 0, apperrors.StoreFailure("sqlite.TotalBookCount", "count books", err)
	}
	return n, nil
}

// --- inverted index ---

func (s *Store) FindBookIDsContainingAnyTerm(ctx context.Context, terms []string) ([]int, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	placeholders, args := stringInClause(terms)
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT book_id FROM inverted_index WHERE term IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FindBookIDsContainingAnyTerm", "query postings", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.StoreFailure("sqlite.FindBookIDsContainingAnyTerm", "scan id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) FetchTermFrequencies(ctx context.Context, bookIDs []int, terms []string) ([]store.BookTermFrequencies, error) {
	if len(bookIDs) == 0 || len(terms) == 0 {
		return nil, nil
	}
	bookPlaceholders, bookArgs := intInClause(bookIDs)
	termPlaceholders, termArgs := stringInClause(terms)
	args := append(bookArgs, termArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, term, term_frequency FROM inverted_index
		 WHERE book_id IN (`+bookPlaceholders+`) AND term IN (`+termPlaceholders+`)`, args...)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FetchTermFrequencies", "query postings", err)
	}
	defer rows.Close()

	byBook := make(map[int]map[string]int)
	for rows.Next() {
		var bookID, tf int
		var term string
		if err := rows.Scan(&bookID, &term, &tf); err != nil {
			return nil, apperrors.StoreFailure("sqlite.FetchTermFrequencies", "scan posting", err)
		}
		if byBook[bookID] == nil {
			byBook[bookID] = make(map[string]int)
		}
		byBook[bookID][term] = tf
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreFailure("sqlite.FetchTermFrequencies", "iterate postings", err)
	}

	result := make([]store.BookTermFrequencies, 0, len(byBook))
	for bookID, freq := range byBook {
		result = append(result, store.BookTermFrequencies{BookID: bookID, Freq: freq})
	}
	return result, nil
}

func (s *Store) FetchPostingsForBook(ctx context.Context, bookID int, terms []string) (map[string][]int, error) {
	if len(terms) == 0 {
		return map[string][]int{}, nil
	}
	placeholders, args := stringInClause(terms)
	args = append([]any{bookID}, args...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, positions FROM inverted_index WHERE book_id = ? AND term IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FetchPostingsForBook", "query postings", err)
	}
	defer rows.Close()
	return scanTermPositions(rows)
}

// FetchPositionsForBooks batch-fetches term positions for many books at
// once, restricted to terms — used by the scoring engine's proximity
// bonus so it costs one extra round trip per query instead of one per
// candidate book (spec §4.6, §4.10).
func (s *Store) FetchPositionsForBooks(ctx context.Context, bookIDs []int, terms []string) (map[int]map[string][]int, error) {
	if len(bookIDs) == 0 || len(terms) == 0 {
		return nil, nil
	}
	bookPlaceholders, bookArgs := intInClause(bookIDs)
	termPlaceholders, termArgs := stringInClause(terms)
	args := append(bookArgs, termArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, term, positions FROM inverted_index
		 WHERE book_id IN (`+bookPlaceholders+`) AND term IN (`+termPlaceholders+`)`, args...)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FetchPositionsForBooks", "query postings", err)
	}
	defer rows.Close()

	result := make(map[int]map[string][]int)
	for rows.Next() {
		var bookID int
		var term, raw string
		if err := rows.Scan(&bookID, &term, &raw); err != nil {
			return nil, apperrors.StoreFailure("sqlite.FetchPositionsForBooks", "scan posting", err)
		}
		var positions []int
		if err := json.Unmarshal([]byte(raw), &positions); err != nil {
			return nil, apperrors.ConsistencyError("sqlite.FetchPositionsForBooks", "malformed positions JSON for term "+term, err)
		}
		if result[bookID] == nil {
			result[bookID] = make(map[string][]int)
		}
		result[bookID][term] = positions
	}
	return result, rows.Err()
}

func (s *Store) FetchAllPostingsForBook(ctx context.Context, bookID int) (map[string][]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term, positions FROM inverted_index WHERE book_id = ?`, bookID)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.FetchAllPostingsForBook", "query postings", err)
	}
	defer rows.Close()
	return scanTermPositions(rows)
}

func scanTermPositions(rows *sql.Rows) (map[string][]int, error) {
	result := make(map[string][]int)
	for rows.Next() {
		var term, raw string
		if err := rows.Scan(&term, &raw); err != nil {
			return nil, apperrors.StoreFailure("sqlite.scanTermPositions", "scan posting", err)
		}
		var positions []int
		if err := json.Unmarshal([]byte(raw), &positions); err != nil {
			return nil, apperrors.ConsistencyError("sqlite.scanTermPositions", "malformed positions JSON for term "+term, err)
		}
		result[term] = positions
	}
	return result, rows.Err()
}

func (s *Store) Vocabulary(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term FROM term_stats`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.Vocabulary", "query term_stats", err)
	}
	defer rows.Close()
	var terms []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, apperrors.StoreFailure("sqlite.Vocabulary", "scan term", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (s *Store) TermStats(ctx context.Context, term string) (store.TermStats, bool, error) {
	var ts store.TermStats
	ts.Term = term
	err := s.db.QueryRowContext(ctx,
		`SELECT document_frequency, total_frequency FROM term_stats WHERE term = ?`, term,
	).Scan(&ts.DocumentFrequency, &ts.TotalFrequency)
	if err == sql.ErrNoRows {
		return store.TermStats{}, false, nil
	}
	if err != nil {
		return store.TermStats{}, false, apperrors.StoreFailure("sqlite.TermStats", "query term_stats", err)
	}
	return ts, true, nil
}

func (s *Store) AllTermStats(ctx context.Context) (map[string]store.TermStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT term, document_frequency, total_frequency FROM term_stats`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.AllTermStats", "query term_stats", err)
	}
	defer rows.Close()
	result := make(map[string]store.TermStats)
	for rows.Next() {
		var ts store.TermStats
		if err := rows.Scan(&ts.Term, &ts.DocumentFrequency, &ts.TotalFrequency); err != nil {
			return nil, apperrors.StoreFailure("sqlite.AllTermStats", "scan term_stats row", err)
		}
		result[ts.Term] = ts
	}
	return result, rows.Err()
}

// --- jaccard graph ---

// ReplaceJaccardEdges deletes the existing edge table and inserts edges
// inside one transaction, reporting progress every 500 inserts. An error,
// a crash, or a cancel from the progress callback rolls the whole
// transaction back, so the table keeps its previous edges and readers
// never see a partly written one.
func (s *Store) ReplaceJaccardEdges(ctx context.Context, edges []store.JaccardEdge, progress store.ProgressFunc) error {
	const batchSize = 500
	return s.runInTx(ctx, func(sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(ctx, `DELETE FROM jaccard_edges`); err != nil {
			return apperrors.StoreFailure("sqlite.ReplaceJaccardEdges", "clear edge table", err)
		}
		stmt, err := sqlTx.PrepareContext(ctx,
			`INSERT INTO jaccard_edges (book_id_1, book_id_2, similarity) VALUES (?, ?, ?)`)
		if err != nil {
			return apperrors.StoreFailure("sqlite.ReplaceJaccardEdges", "prepare statement", err)
		}
		defer stmt.Close()

		for i, e := range edges {
			if _, err := stmt.ExecContext(ctx, e.BookID1, e.BookID2, e.Similarity); err != nil {
				return apperrors.StoreFailure("sqlite.ReplaceJaccardEdges", "insert edge", err)
			}
			if progress != nil && (i+1)%batchSize == 0 {
				if progress(i+1, len(edges)) {
					return apperrors.PreconditionFailed("sqlite.ReplaceJaccardEdges", "cancelled by progress callback")
				}
			}
		}
		return nil
	})
}

func (s *Store) EdgesForBook(ctx context.Context, bookID int) ([]store.JaccardEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id_1, book_id_2, similarity FROM jaccard_edges WHERE book_id_1 = ? OR book_id_2 = ?`,
		bookID, bookID)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.EdgesForBook", "query edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (s *Store) AllEdges(ctx context.Context) ([]store.JaccardEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id_1, book_id_2, similarity FROM jaccard_edges`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.AllEdges", "query edges", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func scanEdges(rows *sql.Rows) ([]store.JaccardEdge, error) {
	var edges []store.JaccardEdge
	for rows.Next() {
		var e store.JaccardEdge
		if err := rows.Scan(&e.BookID1, &e.BookID2, &e.Similarity); err != nil {
			return nil, apperrors.StoreFailure("sqlite.scanEdges", "scan edge", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jaccard_edges`).Scan(&n); err != nil {
		return 0, apperrors.StoreFailure("sqlite.EdgeCount", "count edges", err)
	}
	return n, nil
}

// --- authority scores ---

func (s *Store) ReplaceAuthorityScores(ctx context.Context, scores map[int]float64) error {
	return s.runInTx(ctx, func(sqlTx *sql.Tx) error {
		if _, err := sqlTx.ExecContext(ctx, `DELETE FROM pagerank`); err != nil {
			return apperrors.StoreFailure("sqlite.ReplaceAuthorityScores", "clear pagerank table", err)
		}
		stmt, err := sqlTx.PrepareContext(ctx,
			`INSERT INTO pagerank (book_id, score, last_updated) VALUES (?, ?, CURRENT_TIMESTAMP)`)
		if err != nil {
			return apperrors.StoreFailure("sqlite.ReplaceAuthorityScores", "prepare statement", err)
		}
		defer stmt.Close()
		// Deterministic insert order keeps behaviour reproducible across runs.
		ids := make([]int, 0, len(scores))
		for id := range scores {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id, scores[id]); err != nil {
				return apperrors.StoreFailure("sqlite.ReplaceAuthorityScores", "insert score", err)
			}
		}
		return nil
	})
}

func (s *Store) AuthorityScore(ctx context.Context, bookID int) (float64, bool, error) {
	var score float64
	err := s.db.QueryRowContext(ctx, `SELECT score FROM pagerank WHERE book_id = ?`, bookID).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.StoreFailure("sqlite.AuthorityScore", "query pagerank", err)
	}
	return score, true, nil
}

func (s *Store) AllAuthorityScores(ctx context.Context) (map[int]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id, score FROM pagerank`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.AllAuthorityScores", "query pagerank", err)
	}
	defer rows.Close()
	result := make(map[int]float64)
	for rows.Next() {
		var id int
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, apperrors.StoreFailure("sqlite.AllAuthorityScores", "scan pagerank row", err)
		}
		result[id] = score
	}
	return result, rows.Err()
}

// --- click history ---

func (s *Store) TopClickedBooks(ctx context.Context, limit int) ([]store.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+bookSelectCols+`
		FROM books b
		JOIN book_clicks c ON c.book_id = b.id
		WHERE c.click_count > 0
		ORDER BY c.click_count DESC, c.last_clicked DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.TopClickedBooks", "query clicks", err)
	}
	defer rows.Close()
	var books []store.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, apperrors.StoreFailure("sqlite.TopClickedBooks", "scan book row", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// --- library metadata / app config ---

var libraryMetadataKeys = []string{
	"totalBooks", "totalTerms", "avgDocLength", "totalWords",
	"jaccardEdges", "pageRankCalculated", "lastGutenbergID",
}

func (s *Store) GetLibraryMetadata(ctx context.Context) (store.LibraryMetadata, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM library_metadata`)
	if err != nil {
		return store.LibraryMetadata{}, apperrors.StoreFailure("sqlite.GetLibraryMetadata", "query metadata", err)
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return store.LibraryMetadata{}, apperrors.StoreFailure("sqlite.GetLibraryMetadata", "scan metadata row", err)
		}
		raw[k] = v
	}
	if err := rows.Err(); err != nil {
		return store.LibraryMetadata{}, apperrors.StoreFailure("sqlite.GetLibraryMetadata", "iterate metadata", err)
	}

	var meta store.LibraryMetadata
	meta.TotalBooks = parseIntOr(raw["totalBooks"], 0)
	meta.TotalTerms = parseIntOr(raw["totalTerms"], 0)
	meta.AvgDocLength = parseFloatOr(raw["avgDocLength"], 0)
	meta.TotalWords = parseIntOr(raw["totalWords"], 0)
	meta.JaccardEdges = parseIntOr(raw["jaccardEdges"], 0)
	meta.PageRankCalculated = raw["pageRankCalculated"] == "true"
	meta.LastGutenbergID = parseIntOr(raw["lastGutenbergID"], 0)
	return meta, nil
}

func (s *Store) SetLibraryMetadata(ctx context.Context, meta store.LibraryMetadata) error {
	values := map[string]string{
		"totalBooks":         fmt.Sprintf("%d", meta.TotalBooks),
		"totalTerms":         fmt.Sprintf("%d", meta.TotalTerms),
		"avgDocLength":       fmt.Sprintf("%g", meta.AvgDocLength),
		"totalWords":         fmt.Sprintf("%d", meta.TotalWords),
		"jaccardEdges":       fmt.Sprintf("%d", meta.JaccardEdges),
		"pageRankCalculated": fmt.Sprintf("%t", meta.PageRankCalculated),
		"lastGutenbergID":    fmt.Sprintf("%d", meta.LastGutenbergID),
	}
	return s.runInTx(ctx, func(sqlTx *sql.Tx) error {
		stmt, err := sqlTx.PrepareContext(ctx, `
			INSERT INTO library_metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return apperrors.StoreFailure("sqlite.SetLibraryMetadata", "prepare statement", err)
		}
		defer stmt.Close()
		for _, key := range libraryMetadataKeys {
			if _, err := stmt.ExecContext(ctx, key, values[key]); err != nil {
				return apperrors.StoreFailure("sqlite.SetLibraryMetadata", "upsert metadata key "+key, err)
			}
		}
		return nil
	})
}

func (s *Store) GetAppConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_config`)
	if err != nil {
		return nil, apperrors.StoreFailure("sqlite.GetAppConfig", "query app_config", err)
	}
	defer rows.Close()
	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, apperrors.StoreFailure("sqlite.GetAppConfig", "scan app_config row", err)
		}
		result[k] = v
	}
	return result, rows.Err()
}

func (s *Store) SetAppConfig(ctx context.Context, key, value, kind string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value, type) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type`,
		key, value, kind)
	if err != nil {
		return apperrors.StoreFailure("sqlite.SetAppConfig", "upsert app_config row", err)
	}
	return nil
}

// --- helpers ---

func (s *Store) runInTx(ctx context.Context, fn func(*sql.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.StoreFailure("sqlite.runInTx", "begin transaction", err)
	}
	if err := fn(sqlTx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("sqlite: rollback failed after transaction error")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return apperrors.StoreFailure("sqlite.runInTx", "commit transaction", err)
	}
	return nil
}

func intInClause(ids []int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func stringInClause(vals []string) (string, []any) {
	placeholders := make([]string, len(vals))
	args := make([]any, len(vals))
	for i, v := range vals {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}

func parseIntOr(raw string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return fallback
	}
	return n
}

func parseFloatOr(raw string, fallback float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(raw, "%g", &f); err != nil {
		return fallback
	}
	return f
}
