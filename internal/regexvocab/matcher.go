package regexvocab

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shelfindex/bookfts/internal/apperrors"
)

// dfaState is one interned DFA state: the set of NFA states it
// represents, whether that set contains the accepting NFA state, and a
// lazily-filled transition table keyed by input rune.
type dfaState struct {
	nfaStates   []*state
	isAccepting bool
	transitions map[rune]int
}

// Matcher wraps a compiled NFA with a lazy DFA cache (spec §4.7). The
// cache is built into the Matcher instance and persists across every
// Match call made on it — callers get the amortized-construction benefit
// by reusing one Matcher across an entire vocabulary scan.
type Matcher struct {
	match *state

	dfaStates []*dfaState
	byKey     map[string]int
	startDFA  int
}

// Compile parses pattern into a Thompson NFA and seeds the DFA cache with
// the start state. Parse errors are reported as apperrors.KindInvalidInput
// (spec's InvalidPattern failure).
func Compile(pattern string) (*Matcher, error) {
	p := &parser{input: []rune(pattern)}
	f, err := p.parseAlt()
	if err != nil {
		return nil, apperrors.InvalidInput("regexvocab.Compile", err.Error())
	}
	if !p.eof() {
		return nil, apperrors.InvalidInput("regexvocab.Compile",
			"unexpected character at position "+strconv.Itoa(p.pos))
	}

	matchState := p.newState(kindMatch)
	patch(f.out, matchState)

	m := &Matcher{match: matchState, byKey: make(map[string]int)}
	start := epsilonClosure([]*state{f.start})
	m.startDFA = m.intern(start)
	return m, nil
}

func canonicalKey(states []*state) string {
	ids := make([]int, len(states))
	for i, s := range states {
		ids[i] = s.id
	}
	sort.Ints(ids)
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return b.String()
}

// intern returns the index of the DFA state representing states,
// creating and caching a new one if this exact set hasn't been seen yet.
func (m *Matcher) intern(states []*state) int {
	key := canonicalKey(states)
	if idx, ok := m.byKey[key]; ok {
		return idx
	}
	idx := len(m.dfaStates)
	m.dfaStates = append(m.dfaStates, &dfaState{
		nfaStates:   states,
		isAccepting: containsMatch(states, m.match),
		transitions: make(map[rune]int),
	})
	m.byKey[key] = idx
	return idx
}

// computeTransition consults dfaIdx's transition table for c and, on a
// miss, advances every char/class/any NFA state in dfaIdx's set on c,
// epsilon-closes the result, interns it, and caches the transition.
func (m *Matcher) computeTransition(dfaIdx int, c rune) int {
	ds := m.dfaStates[dfaIdx]
	if idx, ok := ds.transitions[c]; ok {
		return idx
	}

	var next []*state
	for _, s := range ds.nfaStates {
		switch s.kind {
		case kindChar:
			if s.ch == c {
				next = append(next, s.out)
			}
		case kindClass:
			if s.cls.matches(c) {
				next = append(next, s.out)
			}
		case kindAny:
			next = append(next, s.out)
		}
	}
	closed := epsilonClosure(next)
	idx := m.intern(closed)
	ds.transitions[c] = idx
	return idx
}

// Match reports whether term is fully consumed by the pattern, ending in
// an accepting state. Matching never fails at runtime; a dead transition
// (empty state set) just makes Match return false.
func (m *Matcher) Match(term string) bool {
	cur := m.startDFA
	for _, c := range term {
		cur = m.computeTransition(cur, c)
		if len(m.dfaStates[cur].nfaStates) == 0 {
			return false
		}
	}
	return m.dfaStates[cur].isAccepting
}

// MatchVocabulary runs the matcher over every term in vocabulary,
// returning the matching subset in the order given. Reusing one Matcher
// across the whole vocabulary is what amortizes DFA construction.
func MatchVocabulary(m *Matcher, vocabulary []string) []string {
	var matched []string
	for _, term := range vocabulary {
		if m.Match(term) {
			matched = append(matched, term)
		}
	}
	return matched
}
