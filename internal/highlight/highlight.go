// Package highlight implements C9: picking up to snippetCount windows
// around query-term hits in a book's text and marking up the query
// terms inside each window. Grounded on the teacher's internal/nlp
// tokenizer idiom (reuses internal/tokenizer for word spans) — no
// snippet/highlighting library appears anywhere in the example pack, so
// this is built directly from spec math; see DESIGN.md.
package highlight

import (
	"sort"
	"strings"

	"github.com/shelfindex/bookfts/internal/config"
	"github.com/shelfindex/bookfts/internal/tokenizer"
)

const markOpen, markClose = "<mark>", "</mark>"

// Highlighter produces highlighted snippets from a config snapshot.
type Highlighter struct {
	cfg config.HighlightConfig
}

// New returns a Highlighter bound to cfg.
func New(cfg config.HighlightConfig) *Highlighter {
	return &Highlighter{cfg: cfg}
}

type hit struct {
	term   string
	offset int
}

type window struct {
	start, end int
}

type wordSpan struct {
	start, end int
	term       string
}

// Highlight returns up to h.cfg.SnippetCount marked-up snippets of text,
// anchored on the positions of queryTerms (as supplied from postings).
func (h *Highlighter) Highlight(text string, queryTerms []string, positions map[string][]int) []string {
	if len(text) == 0 || len(queryTerms) == 0 {
		return nil
	}

	querySet := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		querySet[strings.ToLower(t)] = true
	}

	hits := collectHits(queryTerms, positions)
	if len(hits) == 0 {
		return nil
	}

	spans := wordSpans(text)

	var snippets []string
	var emitted []window
	for _, hit := range hits {
		if len(snippets) >= h.cfg.SnippetCount {
			break
		}
		if withinAny(emitted, hit.offset) {
			continue
		}

		w := window{
			start: max0(hit.offset - h.cfg.ContextBefore),
			end:   minInt(len(text), hit.offset+h.cfg.ContextAfter),
		}
		emitted = append(emitted, w)
		snippets = append(snippets, renderSnippet(text, w, spans, querySet))
	}
	return snippets
}

func collectHits(queryTerms []string, positions map[string][]int) []hit {
	var hits []hit
	for _, term := range queryTerms {
		for _, off := range positions[term] {
			hits = append(hits, hit{term: term, offset: off})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })
	return hits
}

func withinAny(windows []window, offset int) bool {
	for _, w := range windows {
		if offset >= w.start && offset <= w.end {
			return true
		}
	}
	return false
}

// wordSpans tokenizes text once (no min-length or stop-word filtering,
// so every word is a candidate span) and flattens the result into a
// single list of (start, end, term) spans sorted by start offset.
func wordSpans(text string) []wordSpan {
	tok := tokenizer.New(config.TokenizerConfig{MinWordLength: 1, RemoveStopWords: false})
	res := tok.Tokenize(text)

	var spans []wordSpan
	for term, offsets := range res.Positions {
		for _, start := range offsets {
			spans = append(spans, wordSpan{start: start, end: start + len(term), term: term})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// renderSnippet builds the marked-up text for window w, wrapping every
// word span inside it whose term is a query term, and prefixing/suffixing
// an ellipsis when the window doesn't reach the text's edges.
func renderSnippet(text string, w window, spans []wordSpan, querySet map[string]bool) string {
	var b strings.Builder
	if w.start > 0 {
		b.WriteString("…")
	}

	cursor := w.start
	for _, sp := range spans {
		if sp.start < w.start || sp.end > w.end {
			continue
		}
		if !querySet[sp.term] {
			continue
		}
		b.WriteString(text[cursor:sp.start])
		b.WriteString(markOpen)
		b.WriteString(text[sp.start:sp.end])
		b.WriteString(markClose)
		cursor = sp.end
	}
	b.WriteString(text[cursor:w.end])

	if w.end < len(text) {
		b.WriteString("…")
	}
	return b.String()
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
