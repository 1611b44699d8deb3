package lexical

import (
	"regexp"
	"strings"

	"essay-grader/api/internal/util"
)

// VocabEntry is one parsed line of a class vocabulary list.
type VocabEntry struct {
	Raw       string
	Kind      Kind // exact, prefix or suffix
	Term      string
	Fragments []string
}

var parenRe = regexp.MustCompile(`\([^)]*\)`)

// ParseVocabulary classifies entries: "-able, -ible" is a suffix group,
// "in-/im-/il-/ir-" a prefix group, everything else a word or phrase.
func ParseVocabulary(list []string) []VocabEntry {
	var out []VocabEntry
	for _, raw := range list {
		s := strings.TrimSpace(parenRe.ReplaceAllString(raw, ""))
		if s == "" {
			continue
		}
		frags := splitFragments(s)
		switch {
		case strings.HasPrefix(s, "-"):
			var suffixes []string
			for _, f := range frags {
				if f = strings.ToLower(strings.Trim(f, "- ")); f != "" {
					suffixes = append(suffixes, f)
				}
			}
			if len(suffixes) > 0 {
				out = append(out, VocabEntry{Raw: raw, Kind: KindSuffix, Fragments: suffixes})
			}
		case allPrefixes(frags):
			var prefixes []string
			for _, f := range frags {
				if f = strings.ToLower(strings.Trim(f, "- ")); f != "" {
					prefixes = append(prefixes, f)
				}
			}
			if len(prefixes) > 0 {
				out = append(out, VocabEntry{Raw: raw, Kind: KindPrefix, Fragments: prefixes})
			}
		default:
			out = append(out, VocabEntry{Raw: raw, Kind: KindExact, Term: strings.ToLower(strings.Join(strings.Fields(s), " "))})
		}
	}
	return out
}

func splitFragments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '/' })
}

func allPrefixes(frags []string) bool {
	if len(frags) == 0 {
		return false
	}
	for _, f := range frags {
		f = strings.TrimSpace(f)
		if len(f) < 2 || !strings.HasSuffix(f, "-") || strings.Contains(strings.TrimSuffix(f, "-"), " ") {
			return false
		}
	}
	return true
}

// FindVocabulary scans text for the class vocabulary: exact words and phrases,
// fuzzy single-word hits, then prefix and suffix groups.
func FindVocabulary(text string, vocabulary []string) []Match {
	entries := ParseVocabulary(vocabulary)
	if len(entries) == 0 {
		return nil
	}
	idx := util.NewUTF16Index(text)
	set := newMatchSet()

	var terms []term
	for _, e := range entries {
		if e.Kind == KindExact {
			terms = append(terms, term{text: e.Term, category: e.Raw})
		}
	}
	covered := exactPass(text, idx, terms, set)
	fuzzyPass(tokenize(text, idx), covered, terms, vocabularyPolicy, set)

	for _, e := range entries {
		for _, frag := range e.Fragments {
			var re *regexp.Regexp
			switch e.Kind {
			case KindPrefix:
				re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(frag) + `[a-z]{2,}\b`)
			case KindSuffix:
				re = regexp.MustCompile(`(?i)\b[a-z]{2,}` + regexp.QuoteMeta(frag) + `\b`)
			default:
				continue
			}
			for _, loc := range re.FindAllStringIndex(text, -1) {
				affix := frag + "-"
				if e.Kind == KindSuffix {
					affix = "-" + frag
				}
				set.add(Match{
					Word:      strings.ToLower(text[loc[0]:loc[1]]),
					Canonical: affix,
					Category:  e.Raw,
					Position:  idx.Unit(loc[0]),
					Kind:      e.Kind,
				})
			}
		}
	}
	return set.sorted()
}
