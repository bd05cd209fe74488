package scoring

import (
	"math"
	"testing"

	"github.com/shelfindex/bookfts/internal/config"
)

func TestScoreBatchPrefersHigherTermFrequency(t *testing.T) {
	e := New(config.BM25Config{K1: 1.2, B: 0.75, BM25Weight: 1, PageRankWeight: 0})
	books := []BookInput{
		{BookID: 1, WordCount: 100, TermFreq: map[string]int{"whale": 5}},
		{BookID: 2, WordCount: 100, TermFreq: map[string]int{"whale": 1}},
	}
	scored := e.ScoreBatch(books, []string{"whale"}, TermDF{"whale": 2}, 10, 100, nil)

	var s1, s2 float64
	for _, sc := range scored {
		if sc.BookID == 1 {
			s1 = sc.BM25Sum
		} else {
			s2 = sc.BM25Sum
		}
	}
	if s1 <= s2 {
		t.Errorf("expected book 1 (tf=5) to outscore book 2 (tf=1): s1=%g s2=%g", s1, s2)
	}
}

func TestScoreBatchHybridFusion(t *testing.T) {
	e := New(config.BM25Config{K1: 1.2, B: 0.75, BM25Weight: 0.6, PageRankWeight: 0.4})
	books := []BookInput{{BookID: 1, WordCount: 100, TermFreq: map[string]int{"whale": 5}}}
	pageRank := map[int]float64{1: 0.01}
	scored := e.ScoreBatch(books, []string{"whale"}, TermDF{"whale": 1}, 10, 100, pageRank)

	// With one book, norm = raw/raw = 1, so score = 0.6*1 + 0.4*100*0.01 = 0.64.
	want := 0.6 + 0.4*100*0.01
	if math.Abs(scored[0].Score-want) > 1e-9 {
		t.Errorf("Score = %g, want %g", scored[0].Score, want)
	}
}

func TestScoreBatchMissingPageRankContributesZero(t *testing.T) {
	e := New(config.BM25Config{K1: 1.2, B: 0.75, BM25Weight: 0.6, PageRankWeight: 0.4})
	books := []BookInput{{BookID: 1, WordCount: 100, TermFreq: map[string]int{"whale": 5}}}
	scored := e.ScoreBatch(books, []string{"whale"}, TermDF{"whale": 1}, 10, 100, nil)
	want := 0.6 // pageRank term drops to 0 for a book with no entry
	if math.Abs(scored[0].Score-want) > 1e-9 {
		t.Errorf("Score = %g, want %g", scored[0].Score, want)
	}
}

func TestIDFClampedNonNegative(t *testing.T) {
	// df very close to n should not produce a negative idf.
	v := idf(99, 100)
	if v < 0 {
		t.Errorf("idf() returned negative value %g", v)
	}
}

func TestProximityBonusRequiresTwoDistinctTerms(t *testing.T) {
	positions := map[string][]int{"whale": {10, 20, 30}}
	bonus := proximityBonus(positions, []string{"whale"})
	if bonus != 0 {
		t.Errorf("expected 0 bonus for a single query term, got %g", bonus)
	}
}

func TestProximityBonusMonotoneDecreasing(t *testing.T) {
	close := proximityBonus(map[string][]int{"a": {100}, "b": {105}}, []string{"a", "b"})
	far := proximityBonus(map[string][]int{"a": {100}, "b": {500}}, []string{"a", "b"})
	if close <= far {
		t.Errorf("expected closer terms to score a higher bonus: close=%g far=%g", close, far)
	}
}
