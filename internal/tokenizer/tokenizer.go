// Package tokenizer implements C1: scanning book text into normalized
// terms with their character offsets, grounded on the same
// regexp-plus-stop-word-set idiom the teacher uses in internal/nlp.
package tokenizer

import (
	"regexp"
	"strings"

	"github.com/shelfindex/bookfts/internal/config"
)

// wordPattern matches one or more of {a-z, à-ÿ, 0-9}, case-insensitive —
// the Unicode-aware word shape spec §4.1 requires so that accented
// French text tokenizes the same way as plain ASCII English text.
var wordPattern = regexp.MustCompile(`(?i)[a-zà-ÿ0-9]+`)

// Result is the output of Tokenize: a bag of terms plus, for each term,
// every character offset in the original text where it occurred.
type Result struct {
	Terms       []string
	Positions   map[string][]int
	TotalTokens int
}

// Tokenizer is a reusable, config-bound tokenizer instance. It holds no
// mutable state — it just closes over a settings snapshot.
type Tokenizer struct {
	cfg config.TokenizerConfig
}

// New returns a Tokenizer bound to cfg's MinWordLength/RemoveStopWords
// settings.
func New(cfg config.TokenizerConfig) *Tokenizer {
	return &Tokenizer{cfg: cfg}
}

// Tokenize scans text for document indexing: tokens shorter than
// MinWordLength are dropped, and if RemoveStopWords is set, tokens in the
// bilingual stop-word set are dropped too. TotalTokens counts matches
// before either filter, per spec §4.1.
func (t *Tokenizer) Tokenize(text string) Result {
	matches := wordPattern.FindAllStringIndex(text, -1)
	result := Result{
		Positions:   make(map[string][]int),
		TotalTokens: len(matches),
	}

	seen := make(map[string]bool)
	for _, m := range matches {
		start, end := m[0], m[1]
		term := strings.ToLower(text[start:end])

		if len(term) < t.cfg.MinWordLength {
			continue
		}
		if t.cfg.RemoveStopWords && stopWords[term] {
			continue
		}

		if !seen[term] {
			seen[term] = true
			result.Terms = append(result.Terms, term)
		}
		result.Positions[term] = append(result.Positions[term], start)
	}
	return result
}

// TokenizeQuery tokenizes a search query: identical lexing, but with no
// min-length filter and no stop-word filter, so the caller keeps control
// of every term they typed (spec §4.1).
func TokenizeQuery(text string) []string {
	matches := wordPattern.FindAllString(text, -1)
	terms := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for _, m := range matches {
		term := strings.ToLower(m)
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

// stopWords is the fixed bilingual (English + French) stop-word set.
var stopWords = buildStopWords()

func buildStopWords() map[string]bool {
	words := []string{
		// English
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
		"if", "in", "into", "is", "it", "no", "not", "of", "on", "or",
		"such", "that", "the", "their", "then", "there", "these", "they",
		"this", "to", "was", "will", "with", "he", "she", "his", "her",
		"its", "we", "you", "your", "i", "me", "my", "do", "does", "did",
		"have", "has", "had", "from", "so", "than",
		// French
		"le", "la", "les", "un", "une", "des", "du", "de", "et", "ou",
		"mais", "donc", "or", "ni", "car", "que", "qui", "quoi", "dont",
		"où", "ce", "cet", "cette", "ces", "son", "sa", "ses", "leur",
		"leurs", "au", "aux", "il", "elle", "nous", "vous", "ils", "elles",
		"je", "tu", "me", "te", "se", "en", "dans", "pour", "par", "sur",
		"avec", "sans", "être", "avoir", "plus", "moins", "très",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
