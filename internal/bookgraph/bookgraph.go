// Package bookgraph implements C3: building the undirected, IDF-weighted
// Jaccard similarity graph over book term sets, grounded on the same
// batched-store-round-trip idiom as internal/index, generalized from
// per-book tokenizing to pairwise similarity.
package bookgraph

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/constants"
	"github.com/shelfindex/bookfts/internal/store"
)

// Builder implements buildJaccardGraph and addBooksToJaccardGraph.
type Builder struct {
	st     store.Store
	cfg    config.JaccardConfig
	logger zerolog.Logger
}

// New returns a Builder bound to st and cfg, logging nothing until
// WithLogger is called.
func New(st store.Store, cfg config.JaccardConfig) *Builder {
	return &Builder{st: st, cfg: cfg, logger: zerolog.Nop()}
}

// WithLogger attaches logger, used for Info-level phase boundaries and
// Debug-level per-batch timings during graph construction.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

type candidate struct {
	other int
	sim   float64
}

// BuildGraph recomputes the full Jaccard graph from scratch: for every
// book pair passing the candidate filter, compute sim(A,B) and keep it
// in a per-book bounded buffer, then replace the stored edge table in
// one logical operation (spec §4.3).
func (b *Builder) BuildGraph(ctx context.Context, progress store.ProgressFunc) error {
	start := time.Now()
	b.logger.Info().Msg("bookgraph: build started")

	ids, err := b.st.AllBookIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) < 2 {
		return apperrors.PreconditionFailed("bookgraph.BuildGraph", "need at least 2 indexed books")
	}

	termSets, idf, err := b.loadSurvivingTermSets(ctx, ids)
	if err != nil {
		return err
	}

	buffers := make(map[int][]candidate, len(ids))
	processPair := func(b1, b2 int) {
		addCandidateEdge(buffers, termSets, idf, b1, b2, b.cfg.MinSharedTerms, b.cfg.Threshold, b.cfg.TopK)
	}

	total := len(ids) * (len(ids) - 1) / 2
	processed := 0
	batchStart := time.Now()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			processPair(ids[i], ids[j])
			processed++
		}
		if progress != nil {
			b.logger.Debug().Int("processed", processed).Int("total", total).
				Dur("elapsed", time.Since(batchStart)).Msg("bookgraph: batch scored")
			batchStart = time.Now()
			if progress(processed, total) {
				return apperrors.PreconditionFailed("bookgraph.BuildGraph", "cancelled by progress callback")
			}
		}
	}

	edges := finalizeEdges(buffers, b.cfg.TopK)
	if err := b.st.ReplaceJaccardEdges(ctx, edges, progress); err != nil {
		return err
	}
	b.logger.Info().Int("books", len(ids)).Int("edges", len(edges)).
		Dur("elapsed", time.Since(start)).Msg("bookgraph: build completed")
	return nil
}

// AddBooksToGraph extends the graph for newly-indexed books without
// recomputing similarity between pairs of already-graphed books: it
// computes sim(new, everyone-else), merges the results into the
// existing edge lists of every affected book, re-top-K's those, and
// rewrites the full edge table (old edges for unaffected books pass
// through unchanged).
func (b *Builder) AddBooksToGraph(ctx context.Context, newIDs []int, progress store.ProgressFunc) error {
	if len(newIDs) == 0 {
		return nil
	}
	allIDs, err := b.st.AllBookIDs(ctx)
	if err != nil {
		return err
	}
	if len(allIDs) < 2 {
		return apperrors.PreconditionFailed("bookgraph.AddBooksToGraph", "need at least 2 indexed books")
	}

	termSets, idf, err := b.loadSurvivingTermSets(ctx, allIDs)
	if err != nil {
		return err
	}

	existingEdges, err := b.st.AllEdges(ctx)
	if err != nil {
		return err
	}
	buffers := make(map[int][]candidate, len(allIDs))
	for _, e := range existingEdges {
		buffers[e.BookID1] = append(buffers[e.BookID1], candidate{other: e.BookID2, sim: e.Similarity})
		buffers[e.BookID2] = append(buffers[e.BookID2], candidate{other: e.BookID1, sim: e.Similarity})
	}

	isNew := make(map[int]bool, len(newIDs))
	for _, id := range newIDs {
		isNew[id] = true
	}

	total := 0
	for _, b1 := range newIDs {
		for _, b2 := range allIDs {
			if b2 == b1 || (isNew[b2] && b2 < b1) {
				// skip self and avoid double-counting new-new pairs.
				continue
			}
			total++
		}
	}
	processed := 0
	for _, b1 := range newIDs {
		for _, b2 := range allIDs {
			if b2 == b1 || (isNew[b2] && b2 < b1) {
				continue
			}
			addCandidateEdge(buffers, termSets, idf, b1, b2, b.cfg.MinSharedTerms, b.cfg.Threshold, b.cfg.TopK)
			processed++
		}
		if progress != nil && progress(processed, total) {
			return apperrors.PreconditionFailed("bookgraph.AddBooksToGraph", "cancelled by progress callback")
		}
	}

	edges := finalizeEdges(buffers, b.cfg.TopK)
	return b.st.ReplaceJaccardEdges(ctx, edges, progress)
}

// loadSurvivingTermSets fetches every book's posting terms and the
// global idf for each term, dropping terms with df(t)/N > maxTermFreq
// (the dynamic stop-word filter).
func (b *Builder) loadSurvivingTermSets(ctx context.Context, ids []int) (map[int]map[string]bool, map[string]float64, error) {
	stats, err := b.st.AllTermStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	n := float64(len(ids))
	idf := make(map[string]float64, len(stats))
	drop := make(map[string]bool, len(stats))
	for term, ts := range stats {
		if n > 0 && float64(ts.DocumentFrequency)/n > b.cfg.MaxTermFrequency {
			drop[term] = true
			continue
		}
		if ts.DocumentFrequency > 0 {
			idf[term] = math.Log(n / float64(ts.DocumentFrequency))
		}
	}

	termSets := make(map[int]map[string]bool, len(ids))
	for _, id := range ids {
		postings, err := b.st.FetchAllPostingsForBook(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		set := make(map[string]bool, len(postings))
		for term := range postings {
			if !drop[term] {
				set[term] = true
			}
		}
		termSets[id] = set
	}
	return termSets, idf, nil
}

// addCandidateEdge computes sim(b1,b2) if the pair passes the candidate
// filter and records it in both books' buffers, truncating a buffer to
// topK whenever it exceeds 2*topK entries (bounded memory, spec §4.3).
func addCandidateEdge(
	buffers map[int][]candidate,
	termSets map[int]map[string]bool,
	idf map[string]float64,
	b1, b2 int,
	minShared int,
	threshold float64,
	topK int,
) {
	setA, setB := termSets[b1], termSets[b2]
	shared := 0
	for t := range setA {
		if setB[t] {
			shared++
		}
	}
	if shared < minShared {
		return
	}

	var interSum, unionSum float64
	for t := range setA {
		w := idf[t]
		unionSum += w
		if setB[t] {
			interSum += w
		}
	}
	for t := range setB {
		if !setA[t] {
			unionSum += idf[t]
		}
	}
	if unionSum == 0 {
		return
	}
	sim := interSum / unionSum
	if sim < threshold {
		return
	}

	buffers[b1] = append(buffers[b1], candidate{other: b2, sim: sim})
	buffers[b2] = append(buffers[b2], candidate{other: b1, sim: sim})

	if len(buffers[b1]) > constants.JaccardBufferOverflowFactor*topK {
		buffers[b1] = topCandidates(buffers[b1], topK)
	}
	if len(buffers[b2]) > constants.JaccardBufferOverflowFactor*topK {
		buffers[b2] = topCandidates(buffers[b2], topK)
	}
}

func topCandidates(cands []candidate, k int) []candidate {
	sort.Slice(cands, func(i, j int) bool { return cands[i].sim > cands[j].sim })
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}

// finalizeEdges truncates every book's buffer to topK, deduplicates the
// resulting edges into canonical (bookID1 < bookID2) orientation, and
// returns a flat slice ready for a bulk replace.
func finalizeEdges(buffers map[int][]candidate, topK int) []store.JaccardEdge {
	seen := make(map[[2]int]float64)
	for bookID, cands := range buffers {
		for _, c := range topCandidates(cands, topK) {
			lo, hi := bookID, c.other
			if lo > hi {
				lo, hi = hi, lo
			}
			key := [2]int{lo, hi}
			if existing, ok := seen[key]; !ok || c.sim > existing {
				seen[key] = c.sim
			}
		}
	}
	edges := make([]store.JaccardEdge, 0, len(seen))
	for key, sim := range seen {
		edges = append(edges, store.JaccardEdge{BookID1: key[0], BookID2: key[1], Similarity: sim})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].BookID1 != edges[j].BookID1 {
			return edges[i].BookID1 < edges[j].BookID1
		}
		return edges[i].BookID2 < edges[j].BookID2
	})
	return edges
}
