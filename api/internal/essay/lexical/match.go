// Package lexical recomputes transition-word and class-vocabulary usage from
// the essay text. Model self-reports of these counts are unreliable, so the
// reconciler overwrites them with what these matchers find.
package lexical

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"essay-grader/api/internal/util"
)

type Kind string

const (
	KindExact  Kind = "exact"
	KindFuzzy  Kind = "fuzzy"
	KindPrefix Kind = "prefix"
	KindSuffix Kind = "suffix"
)

// Match is one hit. Position is a UTF-16 offset and is meant for statistics,
// not for highlighting.
type Match struct {
	Word      string `json:"word"`
	Canonical string `json:"canonical"`
	Category  string `json:"category,omitempty"`
	Position  int    `json:"position"`
	Kind      Kind   `json:"kind"`
	Distance  int    `json:"distance,omitempty"`
}

type term struct {
	text     string // lower-cased
	category string
}

// fuzzyPolicy: terms up to shortLen runes accept distance 1, longer ones 2;
// a fuzzy hit closer than window to an existing match is dropped.
// Words shorter than minWordLen or listed in skip never enter the fuzzy pass.
type fuzzyPolicy struct {
	shortLen   int
	window     int
	minWordLen int
	skip       map[string]struct{}
}

var (
	transitionPolicy = fuzzyPolicy{shortLen: 4, window: 10, minWordLen: 4, skip: transitionStopwords}
	vocabularyPolicy = fuzzyPolicy{shortLen: 5, window: 5}
)

// transitionStopwords are frequent words one edit away from a transition ("when" ~ "then").
var transitionStopwords = map[string]struct{}{
	"when": {}, "than": {}, "them": {}, "they": {}, "there": {}, "their": {}, "these": {},
	"those": {}, "this": {}, "that": {}, "what": {}, "with": {}, "were": {}, "where": {},
	"here": {}, "have": {}, "will": {}, "went": {}, "want": {}, "some": {}, "come": {},
	"home": {}, "last": {}, "fast": {}, "over": {}, "ever": {}, "even": {}, "like": {},
	"live": {}, "lives": {}, "give": {}, "nice": {}, "ones": {}, "soft": {},
}

func (p fuzzyPolicy) maxDistance(t string) int {
	if utf8.RuneCountInString(t) <= p.shortLen {
		return 1
	}
	return 2
}

func (p fuzzyPolicy) accepts(word string) bool {
	if utf8.RuneCountInString(word) < p.minWordLen {
		return false
	}
	_, skip := p.skip[word]
	return !skip
}

type matchSet struct {
	matches []Match
	seen    map[string]struct{}
}

func newMatchSet() *matchSet {
	return &matchSet{seen: map[string]struct{}{}}
}

// add de-duplicates by (lower-cased word, position).
func (s *matchSet) add(m Match) bool {
	key := fmt.Sprintf("%s@%d", m.Word, m.Position)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.matches = append(s.matches, m)
	return true
}

func (s *matchSet) near(pos, window int) bool {
	for _, m := range s.matches {
		if abs(m.Position-pos) <= window {
			return true
		}
	}
	return false
}

func (s *matchSet) sorted() []Match {
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

type span struct{ start, end int }

// exactPass records whole-word / whole-phrase hits and returns the UTF-16 spans they cover.
// Longer phrases go first so "even though" is not also counted as "though".
func exactPass(text string, idx *util.UTF16Index, terms []term, set *matchSet) []span {
	ordered := make([]term, len(terms))
	copy(ordered, terms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(strings.Fields(ordered[i].text)) > len(strings.Fields(ordered[j].text))
	})

	var covered []span
	for _, t := range ordered {
		re := phraseRegexp(t.text)
		for _, loc := range re.FindAllStringIndex(text, -1) {
			surface := strings.ToLower(strings.Join(strings.Fields(text[loc[0]:loc[1]]), " "))
			start, end := idx.Unit(loc[0]), idx.Unit(loc[1])
			if overlapsSpans(start, end, covered) {
				continue
			}
			if set.add(Match{Word: surface, Canonical: t.text, Category: t.category, Position: start, Kind: KindExact}) {
				covered = append(covered, span{start, end})
			}
		}
	}
	return covered
}

// fuzzyPass compares every uncovered single word against every single-word term.
func fuzzyPass(tokens []token, covered []span, terms []term, p fuzzyPolicy, set *matchSet) {
	for _, tok := range tokens {
		if inSpans(tok.start, covered) || !p.accepts(tok.word) {
			continue
		}
		var (
			best     term
			bestDist = -1
		)
		for _, t := range terms {
			if isPhrase(t.text) {
				continue
			}
			d := Levenshtein(tok.word, t.text)
			if d > 0 && d <= p.maxDistance(t.text) && (bestDist < 0 || d < bestDist) {
				best, bestDist = t, d
			}
		}
		if bestDist < 0 || set.near(tok.start, p.window) {
			continue
		}
		set.add(Match{
			Word:      tok.word,
			Canonical: best.text,
			Category:  best.category,
			Position:  tok.start,
			Kind:      KindFuzzy,
			Distance:  bestDist,
		})
	}
}

func overlapsSpans(start, end int, spans []span) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

func inSpans(pos int, spans []span) bool {
	for _, s := range spans {
		if pos >= s.start && pos < s.end {
			return true
		}
	}
	return false
}

// Summarize returns the reported form of every match in position order:
// the canonical term for exact and fuzzy hits, the surface word for affix hits.
func Summarize(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		switch m.Kind {
		case KindPrefix, KindSuffix:
			out = append(out, m.Word)
		default:
			out = append(out, m.Canonical)
		}
	}
	return out
}

// FormatUsage folds repeated words into "word (N occurrences)" entries in order of first use.
func FormatUsage(words []string) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	out := make([]string, 0, len(order))
	for _, w := range order {
		n := counts[w]
		if n == 1 {
			out = append(out, w+" (1 occurrence)")
			continue
		}
		out = append(out, fmt.Sprintf("%s (%d occurrences)", w, n))
	}
	return out
}
