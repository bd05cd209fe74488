// Package config provides application configuration management.
//
// This package handles all configuration-related functionality including:
//   - Default configuration values, grouped per component
//   - Configuration validation
//   - Hot-reload of the subset of keys the spec marks reloadable
//   - Store/config-directory path resolution with fallbacks
//
// Config is the mutable, fully-owned settings container built once at
// startup. Components never see a *Config directly; they are handed a
// *View, an immutable snapshot produced by a Holder. Updating settings
// builds a new Config, validates it as a whole, and atomically swaps the
// View a Holder serves — readers already holding an older View keep
// observing a fully consistent (if stale) snapshot, never a
// partially-applied update.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/shelfindex/bookfts/internal/apperrors"
	"github.com/shelfindex/bookfts/internal/constants"
)

// TokenizerConfig holds C1 tunables.
type TokenizerConfig struct {
	MinWordLength   int
	RemoveStopWords bool
	CaseSensitive   bool
	KeepPositions   bool
}

// JaccardConfig holds C3 tunables. Threshold, TopK and BatchSize are
// default-only (spec §6) and cannot be hot-reloaded.
type JaccardConfig struct {
	Threshold        float64
	TopK             int
	BatchSize        int
	MaxTermFrequency float64
	MinSharedTerms   int
}

// PageRankConfig holds C4 tunables. All three fields are default-only.
type PageRankConfig struct {
	Damping       float64
	MaxIterations int
	Tolerance     float64
}

// BM25Config holds C6 tunables.
type BM25Config struct {
	K1                   float64
	B                    float64
	BM25Weight           float64
	PageRankWeight       float64
	EnableProximityBonus bool
}

// HighlightConfig holds C9 tunables.
type HighlightConfig struct {
	SnippetCount  int
	SnippetLength int
	ContextBefore int
	ContextAfter  int
}

// FuzzyConfig holds C8 tunables.
type FuzzyConfig struct {
	MaxDistance int
}

// Config is the full set of tunables for one running instance, plus the
// filesystem locations the store and CLI need to locate the library.
type Config struct {
	Tokenizer TokenizerConfig
	Jaccard   JaccardConfig
	PageRank  PageRankConfig
	BM25      BM25Config
	Highlight HighlightConfig
	Fuzzy     FuzzyConfig

	// StorePath is the path to the SQLite database file backing the store.
	StorePath string
	// ConfigDir is the directory holding the default library database;
	// stored setting overrides live in the store's app_config table.
	ConfigDir string
}

// DefaultConfig returns a Config populated from internal/constants, with
// StorePath and ConfigDir resolved under the user's home directory.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".config", "bookfts")

	return &Config{
		Tokenizer: TokenizerConfig{
			MinWordLength:   constants.DefaultMinWordLength,
			RemoveStopWords: constants.DefaultRemoveStopWords,
			CaseSensitive:   false,
			KeepPositions:   true,
		},
		Jaccard: JaccardConfig{
			Threshold:        constants.DefaultJaccardThreshold,
			TopK:             constants.DefaultJaccardTopK,
			BatchSize:        constants.DefaultJaccardBatchSize,
			MaxTermFrequency: constants.DefaultMaxTermFrequency,
			MinSharedTerms:   constants.DefaultMinSharedTerms,
		},
		PageRank: PageRankConfig{
			Damping:       constants.DefaultDamping,
			MaxIterations: constants.DefaultMaxIterations,
			Tolerance:     constants.DefaultTolerance,
		},
		BM25: BM25Config{
			K1:                   constants.DefaultBM25K1,
			B:                    constants.DefaultBM25B,
			BM25Weight:           constants.DefaultBM25Weight,
			PageRankWeight:       constants.DefaultPageRankWeight,
			EnableProximityBonus: constants.DefaultProximityBonus,
		},
		Highlight: HighlightConfig{
			SnippetCount:  constants.DefaultSnippetCount,
			SnippetLength: constants.DefaultSnippetLength,
			ContextBefore: constants.DefaultContextBefore,
			ContextAfter:  constants.DefaultContextAfter,
		},
		Fuzzy: FuzzyConfig{
			MaxDistance: constants.DefaultMaxLevenshteinDistance,
		},

		StorePath: filepath.Join(configDir, "library.db"),
		ConfigDir: configDir,
	}
}

// Validate checks that every field is within the range the respective
// component's math requires (BM25 weights non-negative, damping in (0,1),
// and so on).
func (c *Config) Validate() error {
	if c.Tokenizer.MinWordLength < 0 {
		return fmt.Errorf("tokenizer.minWordLength must be >= 0, got %d", c.Tokenizer.MinWordLength)
	}
	if c.Jaccard.Threshold < 0 || c.Jaccard.Threshold > 1 {
		return fmt.Errorf("jaccard.threshold must be in [0,1], got %g", c.Jaccard.Threshold)
	}
	if c.Jaccard.TopK <= 0 {
		return fmt.Errorf("jaccard.topK must be positive, got %d", c.Jaccard.TopK)
	}
	if c.Jaccard.BatchSize <= 0 {
		return fmt.Errorf("jaccard.batchSize must be positive, got %d", c.Jaccard.BatchSize)
	}
	if c.Jaccard.MaxTermFrequency <= 0 || c.Jaccard.MaxTermFrequency > 1 {
		return fmt.Errorf("jaccard.maxTermFrequency must be in (0,1], got %g", c.Jaccard.MaxTermFrequency)
	}
	if c.Jaccard.MinSharedTerms < 0 {
		return fmt.Errorf("jaccard.minSharedTerms must be >= 0, got %d", c.Jaccard.MinSharedTerms)
	}
	if c.PageRank.Damping <= 0 || c.PageRank.Damping >= 1 {
		return fmt.Errorf("pagerank.damping must be in (0,1), got %g", c.PageRank.Damping)
	}
	if c.PageRank.MaxIterations <= 0 {
		return fmt.Errorf("pagerank.maxIterations must be positive, got %d", c.PageRank.MaxIterations)
	}
	if c.PageRank.Tolerance <= 0 {
		return fmt.Errorf("pagerank.tolerance must be positive, got %g", c.PageRank.Tolerance)
	}
	if c.BM25.K1 < 0 {
		return fmt.Errorf("bm25.k1 must be >= 0, got %g", c.BM25.K1)
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return fmt.Errorf("bm25.b must be in [0,1], got %g", c.BM25.B)
	}
	if c.BM25.BM25Weight < 0 || c.BM25.PageRankWeight < 0 {
		return fmt.Errorf("bm25.bm25Weight and bm25.pagerankWeight must be >= 0")
	}
	if c.Highlight.SnippetCount <= 0 {
		return fmt.Errorf("highlight.snippetCount must be positive, got %d", c.Highlight.SnippetCount)
	}
	if c.Highlight.SnippetLength <= 0 {
		return fmt.Errorf("highlight.snippetLength must be positive, got %d", c.Highlight.SnippetLength)
	}
	if c.Highlight.ContextBefore < 0 || c.Highlight.ContextAfter < 0 {
		return fmt.Errorf("highlight.contextBefore and highlight.contextAfter must be >= 0")
	}
	if c.Fuzzy.MaxDistance < 0 {
		return fmt.Errorf("fuzzy.maxDistance must be >= 0, got %d", c.Fuzzy.MaxDistance)
	}
	if c.StorePath == "" {
		return fmt.Errorf("storePath cannot be empty")
	}
	return nil
}

func (c *Config) clone() *Config {
	cp := *c
	return &cp
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func (c *Config) EnsureConfigDir() error {
	const secureDirectoryMode = 0755
	return os.MkdirAll(c.ConfigDir, secureDirectoryMode)
}

// GetStorePath resolves the database file location, falling back to
// common installation paths if the configured one doesn't exist yet —
// useful the first time bookfts runs against a system-wide library.
func (c *Config) GetStorePath() string {
	if _, err := os.Stat(c.StorePath); err == nil {
		return c.StorePath
	}

	fallbacks := []string{
		"/usr/local/share/bookfts/library.db",
		"/usr/share/bookfts/library.db",
		"library.db",
	}
	for _, path := range fallbacks {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return c.StorePath
}

// View is an immutable snapshot of a Config. Components are constructed
// with a *View and never observe a settings change mid-operation.
type View struct {
	cfg Config
}

// NewView copies cfg into a fresh, independently-owned View.
func NewView(cfg *Config) *View {
	return &View{cfg: *cfg}
}

func (v *View) Tokenizer() TokenizerConfig { return v.cfg.Tokenizer }
func (v *View) Jaccard() JaccardConfig     { return v.cfg.Jaccard }
func (v *View) PageRank() PageRankConfig   { return v.cfg.PageRank }
func (v *View) BM25() BM25Config           { return v.cfg.BM25 }
func (v *View) Highlight() HighlightConfig { return v.cfg.Highlight }
func (v *View) Fuzzy() FuzzyConfig         { return v.cfg.Fuzzy }
func (v *View) StorePath() string          { return v.cfg.StorePath }
func (v *View) ConfigDir() string          { return v.cfg.ConfigDir }

// settingKind mirrors app_config.type from the store schema (spec §6).
type settingKind int

const (
	kindNumber settingKind = iota
	kindBoolean
)

type settingDef struct {
	kind        settingKind
	defaultOnly bool
	apply       func(cfg *Config, raw string) error
}

var settingRegistry = map[string]settingDef{
	"minWordLength":   {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Tokenizer.MinWordLength, v) }},
	"removeStopWords": {kind: kindBoolean, apply: func(c *Config, v string) error { return setBool(&c.Tokenizer.RemoveStopWords, v) }},
	"caseSensitive":   {kind: kindBoolean, apply: func(c *Config, v string) error { return setBool(&c.Tokenizer.CaseSensitive, v) }},
	"keepPositions":   {kind: kindBoolean, apply: func(c *Config, v string) error { return setBool(&c.Tokenizer.KeepPositions, v) }},

	"threshold":        {kind: kindNumber, defaultOnly: true},
	"topK":             {kind: kindNumber, defaultOnly: true},
	"batchSize":        {kind: kindNumber, defaultOnly: true},
	"maxTermFrequency": {kind: kindNumber, apply: func(c *Config, v string) error { return setFloat(&c.Jaccard.MaxTermFrequency, v) }},
	"minSharedTerms":   {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Jaccard.MinSharedTerms, v) }},

	"damping":       {kind: kindNumber, defaultOnly: true},
	"maxIterations": {kind: kindNumber, defaultOnly: true},
	"tolerance":     {kind: kindNumber, defaultOnly: true},

	"k1":                   {kind: kindNumber, apply: func(c *Config, v string) error { return setFloat(&c.BM25.K1, v) }},
	"b":                    {kind: kindNumber, apply: func(c *Config, v string) error { return setFloat(&c.BM25.B, v) }},
	"bm25Weight":           {kind: kindNumber, apply: func(c *Config, v string) error { return setFloat(&c.BM25.BM25Weight, v) }},
	"pagerankWeight":       {kind: kindNumber, apply: func(c *Config, v string) error { return setFloat(&c.BM25.PageRankWeight, v) }},
	"enableProximityBonus": {kind: kindBoolean, apply: func(c *Config, v string) error { return setBool(&c.BM25.EnableProximityBonus, v) }},

	"snippetCount":  {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Highlight.SnippetCount, v) }},
	"snippetLength": {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Highlight.SnippetLength, v) }},
	"contextBefore": {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Highlight.ContextBefore, v) }},
	"contextAfter":  {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Highlight.ContextAfter, v) }},

	"maxDistance": {kind: kindNumber, apply: func(c *Config, v string) error { return setInt(&c.Fuzzy.MaxDistance, v) }},
}

func setInt(dst *int, raw string) error {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %q", raw)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, raw string) error {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", raw)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, raw string) error {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("not a boolean: %q", raw)
	}
	*dst = b
	return nil
}

// Holder serves a *View to readers and atomically swaps it on Apply.
// Readers that already hold a *View never see a torn update; they keep
// the snapshot they were handed until they next call Load.
type Holder struct {
	ptr atomic.Pointer[View]
}

// NewHolder validates initial and starts a Holder serving it.
func NewHolder(initial *Config) (*Holder, error) {
	if err := initial.Validate(); err != nil {
		return nil, apperrors.InvalidInput("config.NewHolder", err.Error())
	}
	h := &Holder{}
	h.ptr.Store(NewView(initial))
	return h, nil
}

// Load returns the currently active View.
func (h *Holder) Load() *View {
	return h.ptr.Load()
}

// Apply validates updates against the setting registry, rejects unknown
// or default-only keys, builds a new Config from the current View plus
// the updates, validates it as a whole, and atomically swaps it in. On
// any failure the Holder keeps serving its previous View untouched.
func (h *Holder) Apply(updates map[string]string) (*View, error) {
	next := h.Load().cfg.clone()
	for key, raw := range updates {
		def, ok := settingRegistry[key]
		if !ok {
			return nil, apperrors.InvalidInput("config.Apply", fmt.Sprintf("unknown config key %q", key))
		}
		if def.defaultOnly {
			return nil, apperrors.InvalidInput("config.Apply", fmt.Sprintf("%q is default-only and cannot be hot-reloaded", key))
		}
		if err := def.apply(next, raw); err != nil {
			return nil, apperrors.InvalidInput("config.Apply", fmt.Sprintf("key %q: %v", key, err))
		}
	}
	if err := next.Validate(); err != nil {
		return nil, apperrors.InvalidInput("config.Apply", err.Error())
	}
	newView := NewView(next)
	h.ptr.Store(newView)
	return newView, nil
}

// IsDefaultOnly reports whether key cannot be hot-reloaded.
func IsDefaultOnly(key string) bool {
	def, ok := settingRegistry[key]
	return ok && def.defaultOnly
}

// KindOf reports the app_config.type string for a known setting key, for
// callers persisting overrides to the store (sqlite.Store.SetAppConfig).
func KindOf(key string) (string, bool) {
	def, ok := settingRegistry[key]
	if !ok {
		return "", false
	}
	if def.kind == kindBoolean {
		return "boolean", true
	}
	return "number", true
}
