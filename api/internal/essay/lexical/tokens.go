package lexical

import (
	"regexp"
	"strings"

	"essay-grader/api/internal/util"
)

var wordRe = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?`)

type token struct {
	word  string // lower-cased
	start int    // UTF-16 offset
}

func tokenize(text string, idx *util.UTF16Index) []token {
	locs := wordRe.FindAllStringIndex(text, -1)
	out := make([]token, 0, len(locs))
	for _, l := range locs {
		out = append(out, token{word: strings.ToLower(text[l[0]:l[1]]), start: idx.Unit(l[0])})
	}
	return out
}

// phraseRegexp matches a word or multi-word phrase as whole words, case-insensitively,
// tolerating any run of whitespace between the words.
func phraseRegexp(phrase string) *regexp.Regexp {
	parts := strings.Fields(strings.ToLower(phrase))
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b` + strings.Join(parts, `\s+`) + `\b`)
}

func isPhrase(term string) bool {
	return len(strings.Fields(term)) > 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
