// Package constants centralizes the default tunables used across the
// search engine: BM25 scoring weights, Jaccard graph thresholds, PageRank
// solver parameters, highlight window sizes, and fuzzy-match bounds.
//
// These are the *defaults*; most are overridable at runtime through
// internal/config. Values marked "default-only" below are not
// hot-reloadable (see spec §6).
package constants

import "time"

// Tokenizer defaults.
const (
	DefaultMinWordLength   = 2
	DefaultRemoveStopWords = true
)

// BM25 scoring defaults (spec §4.6).
const (
	DefaultBM25K1         = 1.2
	DefaultBM25B          = 0.75
	DefaultBM25Weight     = 0.6
	DefaultPageRankWeight = 0.4
	PageRankScoreScale    = 100.0
	DefaultProximityBonus = false
	ProximityWeight       = 1.0
)

// Jaccard graph defaults (spec §4.3). threshold, topK and batchSize are
// default-only per spec §6.
const (
	DefaultJaccardThreshold     = 0.1
	DefaultJaccardTopK          = 50
	DefaultJaccardBatchSize     = 50
	DefaultMaxTermFrequency     = 0.7
	DefaultMinSharedTerms       = 5
	JaccardBufferOverflowFactor = 2 // per-book buffer truncates to K once it exceeds 2K
)

// PageRank / PPR defaults (spec §4.4). All three are default-only per §6.
const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
	DefaultPushEpsilon   = 1e-4
)

// Highlight defaults (spec §4.9).
const (
	DefaultSnippetCount  = 3
	DefaultSnippetLength = 150
	DefaultContextBefore = 75
	DefaultContextAfter  = 75
)

// Fuzzy matcher defaults (spec §4.8).
const (
	DefaultMaxLevenshteinDistance = 2
)

// Index-builder batching (spec §4.2).
const (
	DefaultPostingBatchSize = 500
)

// Search defaults.
const (
	DefaultSearchLimit    = 10
	DefaultMaxSearchLimit = 100
	MaxQueryLength        = 1000
)

// Suggestion defaults (spec §4.10 getSuggestions).
const (
	DefaultSuggestionSourceCount = 3
	DefaultNeighboursPerSource   = 20
	SuggestionSimilarityWeight   = 0.6
	SuggestionPageRankWeight     = 0.4
)

// Cache defaults.
const (
	DefaultCacheTTL           = 5 * time.Minute
	DefaultSearchCacheCap     = 1000
	DefaultSemanticCacheCap   = 2000
	DefaultFuzzyQueryCacheCap = 256
)
