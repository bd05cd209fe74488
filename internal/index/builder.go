// Package index implements C2, the index builder: turning a book's file
// into inverted-index postings and term statistics, and keeping library
// metadata in sync, grounded on the teacher's internal/database loader
// (which walks a YAML source into in-memory rows) generalized to a real
// transactional store.
package index

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/constants"
	"github.com/shelfindex/bookfts/internal/store"
	"github.com/shelfindex/bookfts/internal/tokenizer"
)

// FileReader reads the full text of a book given its file path. Tests
// inject a fake; production uses os.ReadFile.
type FileReader func(path string) (string, error)

// Builder implements indexBook/reindexBook/updateLibraryMetadataFromStore.
type Builder struct {
	st        store.Store
	tok       *tokenizer.Tokenizer
	readFile  FileReader
	batchSize int
	logger    zerolog.Logger
}

// New returns a Builder bound to st and cfg, logging nothing until
// WithLogger is called.
func New(st store.Store, cfg config.TokenizerConfig) *Builder {
	return &Builder{
		st:        st,
		tok:       tokenizer.New(cfg),
		readFile:  func(path string) (string, error) { b, err := os.ReadFile(path); return string(b), err },
		batchSize: constants.DefaultPostingBatchSize,
		logger:    zerolog.Nop(),
	}
}

// WithFileReader overrides the file-reading function, for tests.
func (b *Builder) WithFileReader(r FileReader) *Builder {
	b.readFile = r
	return b
}

// WithLogger attaches logger, used for Info-level phase boundaries and
// Debug-level per-batch posting-write timings.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// IndexBook tokenizes meta.FilePath, inserts a new book row, writes its
// postings and updates per-term statistics in one transaction.
func (b *Builder) IndexBook(ctx context.Context, meta store.BookMeta) (store.Book, error) {
	start := time.Now()
	b.logger.Info().Str("title", meta.Title).Msg("index: indexing book started")

	text, err := b.readFile(meta.FilePath)
	if err != nil {
		return store.Book{}, apperrors.StoreFailure("index.IndexBook", "read book file", err)
	}
	tokenized := b.tok.Tokenize(text)

	baseline, err := b.st.AllTermStats(ctx)
	if err != nil {
		return store.Book{}, err
	}

	var book store.Book
	err = b.st.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.InsertBook(ctx, meta, tokenized.TotalTokens)
		if err != nil {
			return err
		}
		if err := writePostingsAndStats(ctx, tx, id, nil, tokenized.Positions, baseline, b.batchSize, b.logger); err != nil {
			return err
		}
		book = store.Book{
			ID:             id,
			Title:          meta.Title,
			Author:         meta.Author,
			FilePath:       meta.FilePath,
			CoverImagePath: meta.CoverImagePath,
			WordCount:      tokenized.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return store.Book{}, err
	}
	b.logger.Info().Int("book_id", book.ID).Int("words", book.WordCount).
		Dur("elapsed", time.Since(start)).Msg("index: indexing book completed")
	return book, nil
}

// ReindexBook re-tokenizes path and rewrites postings and statistics for
// an existing book, used after changing tokenizer settings.
func (b *Builder) ReindexBook(ctx context.Context, id int, path string) error {
	text, err := b.readFile(path)
	if err != nil {
		return apperrors.StoreFailure("index.ReindexBook", "read book file", err)
	}
	tokenized := b.tok.Tokenize(text)

	oldPostings, err := b.st.FetchAllPostingsForBook(ctx, id)
	if err != nil {
		return err
	}
	baseline, err := b.st.AllTermStats(ctx)
	if err != nil {
		return err
	}

	return b.st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.DeleteBookPostings(ctx, id); err != nil {
			return err
		}
		return writePostingsAndStats(ctx, tx, id, oldPostings, tokenized.Positions, baseline, b.batchSize, b.logger)
	})
}

// writePostingsAndStats inserts the postings derived from newPositions in
// batches of batchSize, then upserts term_stats for every term whose
// document-frequency or total-frequency changed relative to oldPositions
// (empty for a brand-new book), using baseline as the pre-write snapshot
// of global term stats.
func writePostingsAndStats(
	ctx context.Context,
	tx store.Tx,
	bookID int,
	oldPositions map[string][]int,
	newPositions map[string][]int,
	baseline map[string]store.TermStats,
	batchSize int,
	logger zerolog.Logger,
) error {
	postings := make([]store.Posting, 0, len(newPositions))
	for term, positions := range newPositions {
		postings = append(postings, store.Posting{
			Term:          term,
			BookID:        bookID,
			TermFrequency: len(positions),
			Positions:     positions,
		})
	}
	for start := 0; start < len(postings); start += batchSize {
		end := start + batchSize
		if end > len(postings) {
			end = len(postings)
		}
		batchStart := time.Now()
		if err := tx.InsertPostings(ctx, postings[start:end]); err != nil {
			return err
		}
		logger.Debug().Int("book_id", bookID).Int("batch_size", end-start).
			Dur("elapsed", time.Since(batchStart)).Msg("index: posting batch written")
	}

	affected := make(map[string]bool, len(oldPositions)+len(newPositions))
	for term := range oldPositions {
		affected[term] = true
	}
	for term := range newPositions {
		affected[term] = true
	}

	updates := make([]store.TermStats, 0, len(affected))
	for term := range affected {
		oldTF := len(oldPositions[term])
		newTF := len(newPositions[term])

		ts := baseline[term]
		ts.Term = term
		ts.TotalFrequency += newTF - oldTF
		switch {
		case oldTF == 0 && newTF > 0:
			ts.DocumentFrequency++
		case oldTF > 0 && newTF == 0:
			ts.DocumentFrequency--
		}
		updates = append(updates, ts)
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.UpsertTermStats(ctx, updates)
}

// UpdateLibraryMetadataFromStore recomputes the aggregate metadata row
// (spec §3) from the current book and term-stats tables.
func UpdateLibraryMetadataFromStore(ctx context.Context, st store.Store) error {
	totalBooks, err := st.TotalBookCount(ctx)
	if err != nil {
		return err
	}
	allStats, err := st.AllTermStats(ctx)
	if err != nil {
		return err
	}

	totalWords := 0
	ids, err := st.AllBookIDs(ctx)
	if err != nil {
		return err
	}
	books, err := st.GetBooks(ctx, ids)
	if err != nil {
		return err
	}
	for _, b := range books {
		totalWords += b.WordCount
	}

	avgDocLength := 0.0
	if totalBooks > 0 {
		avgDocLength = float64(totalWords) / float64(totalBooks)
	}

	edgeCount, err := st.EdgeCount(ctx)
	if err != nil {
		return err
	}
	existing, err := st.GetLibraryMetadata(ctx)
	if err != nil {
		return err
	}

	return st.SetLibraryMetadata(ctx, store.LibraryMetadata{
		TotalBooks:         totalBooks,
		TotalTerms:         len(allStats),
		AvgDocLength:       avgDocLength,
		TotalWords:         totalWords,
		JaccardEdges:       edgeCount,
		PageRankCalculated: existing.PageRankCalculated,
		LastGutenbergID:    existing.LastGutenbergID,
	})
}
