// Package semantic implements C5: per-book TF-IDF vectors and cosine
// similarity search, grounded on the teacher's internal/nlp TF-IDF
// searcher (vocabulary + idf + per-document weights + norm), generalized
// from an in-memory command list to a store-backed, invalidate-on-write
// cache of book vectors.
package semantic

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/shelfindex/bookfts/internal/store"
)

// Result is one entry of a findSimilar response.
type Result struct {
	BookID     int
	Similarity float64
}

type vector struct {
	weights   map[string]float64
	magnitude float64
}

// Cache holds per-book TF-IDF vectors built lazily from the store and
// invalidated wholesale on any index mutation (spec §3's cache-ownership
// rule).
type Cache struct {
	st store.Store

	mu      sync.RWMutex
	vectors map[int]vector
	built   bool
}

// New returns an empty Cache bound to st.
func New(st store.Store) *Cache {
	return &Cache{st: st}
}

// Invalidate drops every cached vector; the next FindSimilar rebuilds
// from scratch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors = nil
	c.built = false
}

func (c *Cache) ensureBuilt(ctx context.Context) error {
	c.mu.RLock()
	if c.built {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return nil
	}

	stats, err := c.st.AllTermStats(ctx)
	if err != nil {
		return err
	}
	n, err := c.st.TotalBookCount(ctx)
	if err != nil {
		return err
	}
	ids, err := c.st.AllBookIDs(ctx)
	if err != nil {
		return err
	}

	vectors := make(map[int]vector, len(ids))
	for _, id := range ids {
		postings, err := c.st.FetchAllPostingsForBook(ctx, id)
		if err != nil {
			return err
		}
		weights := make(map[string]float64, len(postings))
		var magnitudeSq float64
		for term, positions := range postings {
			ts, ok := stats[term]
			if !ok || ts.DocumentFrequency == 0 {
				continue
			}
			tfidf := float64(len(positions)) * math.Log(float64(n)/float64(ts.DocumentFrequency))
			weights[term] = tfidf
			magnitudeSq += tfidf * tfidf
		}
		vectors[id] = vector{weights: weights, magnitude: math.Sqrt(magnitudeSq)}
	}

	c.vectors = vectors
	c.built = true
	return nil
}

// FindSimilar returns the top-limit books (other than bookID) by cosine
// similarity to bookID's TF-IDF vector, filtered to similarity >=
// minSimilarity and sorted descending (spec §4.5).
func (c *Cache) FindSimilar(ctx context.Context, bookID int, limit int, minSimilarity float64) ([]Result, error) {
	if err := c.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	target, ok := c.vectors[bookID]
	if !ok || target.magnitude == 0 {
		return nil, nil
	}

	var results []Result
	for otherID, v := range c.vectors {
		if otherID == bookID || v.magnitude == 0 {
			continue
		}
		sim := cosineSimilarity(target, v)
		if sim >= minSimilarity {
			results = append(results, Result{BookID: otherID, Similarity: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].BookID < results[j].BookID
	})
	if limit >= 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func cosineSimilarity(a, b vector) float64 {
	small, large := a.weights, b.weights
	if len(b.weights) < len(a.weights) {
		small, large = b.weights, a.weights
	}
	var dot float64
	for term, w := range small {
		dot += w * large[term]
	}
	return dot / (a.magnitude * b.magnitude)
}
