// Package rank implements C4: the authority solver over the undirected
// Jaccard graph — global PageRank, seeded Personalized PageRank, and an
// approximate local Push-PPR — plus the shared preprocessing spec §4.4
// calls out (dense re-indexing, self-loop/parallel-edge removal,
// adjacency and dangling-node bookkeeping). No numerics library appears
// anywhere in the example pack for this kind of iterative solver, so
// this is written directly from the spec's formulas in the same
// plain-stdlib style the corpus uses for its other scoring math.
package rank

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/store"
)

// Metrics describes one solver run.
type Metrics struct {
	Iterations int
	Converged  bool
	FinalDelta float64
	ElapsedMs  int64
}

// Graph is the preprocessed form of the Jaccard edge set: dense 0..N-1
// node indices, deduplicated directed adjacency (each undirected edge
// expanded into two), out-degrees, and the set of dangling nodes.
type Graph struct {
	n         int
	indexOf   map[int]int
	idOf      []int
	outDegree []int
	inbound   [][]int
	dangling  []int
	logger    zerolog.Logger
}

// WithLogger attaches logger, used for an Info-level boundary at the start
// of each global PageRank run and Debug-level per-iteration timings;
// PersonalizedPageRank and PushPPR do not log.
func (g *Graph) WithLogger(logger zerolog.Logger) *Graph {
	g.logger = logger
	return g
}

// BuildGraph preprocesses a Jaccard edge list per spec §4.4.
func BuildGraph(edges []store.JaccardEdge) *Graph {
	indexOf := make(map[int]int)
	idOf := []int{}
	ensure := func(id int) int {
		if idx, ok := indexOf[id]; ok {
			return idx
		}
		idx := len(idOf)
		indexOf[id] = idx
		idOf = append(idOf, id)
		return idx
	}

	type directedEdge struct{ u, v int }
	seen := make(map[directedEdge]bool)
	var directed []directedEdge

	for _, e := range edges {
		if e.BookID1 == e.BookID2 {
			continue // drop self-loops
		}
		u, v := ensure(e.BookID1), ensure(e.BookID2)
		for _, d := range [2]directedEdge{{u, v}, {v, u}} {
			if !seen[d] {
				seen[d] = true
				directed = append(directed, d)
			}
		}
	}

	n := len(idOf)
	outDegree := make([]int, n)
	inbound := make([][]int, n)
	for _, d := range directed {
		outDegree[d.u]++
		inbound[d.v] = append(inbound[d.v], d.u)
	}

	var dangling []int
	for v := 0; v < n; v++ {
		if outDegree[v] == 0 {
			dangling = append(dangling, v)
		}
	}

	return &Graph{
		n:         n,
		indexOf:   indexOf,
		idOf:      idOf,
		outDegree: outDegree,
		inbound:   inbound,
		dangling:  dangling,
		logger:    zerolog.Nop(),
	}
}

// NodeCount returns the number of distinct books in the graph.
func (g *Graph) NodeCount() int { return g.n }

// PageRank computes the global PageRank vector.
func (g *Graph) PageRank(cfg config.PageRankConfig) (map[int]float64, Metrics, error) {
	if g.n == 0 {
		return nil, Metrics{}, apperrors.PreconditionFailed("rank.PageRank", "graph has no nodes")
	}
	start := time.Now()
	g.logger.Info().Int("nodes", g.n).Int("max_iterations", cfg.MaxIterations).Msg("rank: pagerank started")
	n := float64(g.n)
	r := make([]float64, g.n)
	for v := range r {
		r[v] = 1.0 / n
	}

	metrics := Metrics{}
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		iterStart := time.Now()
		danglingSum := 0.0
		for _, v := range g.dangling {
			danglingSum += r[v]
		}

		next := make([]float64, g.n)
		for v := 0; v < g.n; v++ {
			sum := 0.0
			for _, u := range g.inbound[v] {
				sum += r[u] / float64(g.outDegree[u])
			}
			next[v] = (1-cfg.Damping)/n + cfg.Damping*sum + cfg.Damping*danglingSum/n
		}

		delta := l1Distance(r, next)
		r = next
		metrics.Iterations = iter + 1
		metrics.FinalDelta = delta
		g.logger.Debug().Int("iteration", iter+1).Float64("delta", delta).
			Dur("elapsed", time.Since(iterStart)).Msg("rank: pagerank iteration")
		if delta < cfg.Tolerance {
			metrics.Converged = true
			break
		}
	}
	metrics.ElapsedMs = time.Since(start).Milliseconds()
	g.logger.Info().Bool("converged", metrics.Converged).Int("iterations", metrics.Iterations).
		Dur("elapsed", time.Since(start)).Msg("rank: pagerank completed")
	return g.toOriginalIDs(r), metrics, nil
}

// PersonalizedPageRank computes PPR with teleport and dangling mass
// redistributed only across seeds, weighted 1/|seeds| (spec §4.4).
func (g *Graph) PersonalizedPageRank(seeds []int, cfg config.PageRankConfig) (map[int]float64, Metrics, error) {
	if len(seeds) == 0 {
		return nil, Metrics{}, apperrors.InvalidInput("rank.PersonalizedPageRank", "seeds must be non-empty")
	}
	seedIdx := make([]int, 0, len(seeds))
	for _, id := range seeds {
		idx, ok := g.indexOf[id]
		if !ok {
			return nil, Metrics{}, apperrors.InvalidInput("rank.PersonalizedPageRank", "seed book is not in the graph")
		}
		seedIdx = append(seedIdx, idx)
	}
	isSeed := make([]bool, g.n)
	for _, idx := range seedIdx {
		isSeed[idx] = true
	}
	weight := 1.0 / float64(len(seedIdx))

	start := time.Now()
	r := make([]float64, g.n)
	for _, idx := range seedIdx {
		r[idx] += weight
	}

	metrics := Metrics{}
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		danglingSum := 0.0
		for _, v := range g.dangling {
			danglingSum += r[v]
		}

		next := make([]float64, g.n)
		for v := 0; v < g.n; v++ {
			sum := 0.0
			for _, u := range g.inbound[v] {
				sum += r[u] / float64(g.outDegree[u])
			}
			next[v] = cfg.Damping * sum
			if isSeed[v] {
				next[v] += (1-cfg.Damping)*weight + cfg.Damping*danglingSum*weight
			}
		}

		delta := l1Distance(r, next)
		r = next
		metrics.Iterations = iter + 1
		metrics.FinalDelta = delta
		if delta < cfg.Tolerance {
			metrics.Converged = true
			break
		}
	}
	metrics.ElapsedMs = time.Since(start).Milliseconds()
	return g.toOriginalIDs(r), metrics, nil
}

// PushPPR approximates personalized PageRank for seeds via local forward
// push: mass starts on the seeds and is pushed outward from any node
// whose residual/out-degree exceeds epsilon, stopping once no node
// qualifies or maxIterations scans have run. The returned vector is
// unnormalized and its sum is <= 1.
func (g *Graph) PushPPR(seeds []int, damping, epsilon float64, maxIterations int) (map[int]float64, error) {
	if len(seeds) == 0 {
		return nil, apperrors.InvalidInput("rank.PushPPR", "seeds must be non-empty")
	}
	seedIdx := make([]int, 0, len(seeds))
	for _, id := range seeds {
		idx, ok := g.indexOf[id]
		if !ok {
			return nil, apperrors.InvalidInput("rank.PushPPR", "seed book is not in the graph")
		}
		seedIdx = append(seedIdx, idx)
	}

	residual := make([]float64, g.n)
	score := make([]float64, g.n)
	weight := 1.0 / float64(len(seedIdx))
	for _, idx := range seedIdx {
		residual[idx] += weight
	}

	isDangling := make([]bool, g.n)
	for _, v := range g.dangling {
		isDangling[v] = true
	}

	for iter := 0; iter < maxIterations; iter++ {
		// Dangling nodes have nowhere to push to; their residual is
		// absorbed as terminal score.
		for _, v := range g.dangling {
			if residual[v] > 0 {
				score[v] += residual[v]
				residual[v] = 0
			}
		}

		pushed := false
		for v := 0; v < g.n; v++ {
			if isDangling[v] || g.outDegree[v] == 0 {
				continue
			}
			if residual[v]/float64(g.outDegree[v]) <= epsilon {
				continue
			}
			pushed = true
			mass := residual[v]
			score[v] += damping * mass
			remaining := (1 - damping) * mass
			perNeighborShare := remaining / float64(g.outDegree[v])
			for _, u := range g.adjacencyOf(v) {
				residual[u] += perNeighborShare
			}
			residual[v] = 0
		}
		if !pushed {
			break
		}
	}

	return g.toOriginalIDs(score), nil
}

// adjacencyOf returns v's out-neighbors by scanning inbound lists — built
// once per call since PushPPR runs far fewer iterations than PageRank
// and an outbound index is not otherwise needed.
func (g *Graph) adjacencyOf(v int) []int {
	var out []int
	for u := 0; u < g.n; u++ {
		for _, w := range g.inbound[u] {
			if w == v {
				out = append(out, u)
			}
		}
	}
	return out
}

func (g *Graph) toOriginalIDs(scores []float64) map[int]float64 {
	result := make(map[int]float64, g.n)
	for idx, score := range scores {
		result[g.idOf[idx]] = score
	}
	return result
}

func l1Distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}
