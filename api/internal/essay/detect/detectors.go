package detect

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"essay-grader/api/internal/essay"
)

const dayNamePattern = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`

var (
	loneIRe = regexp.MustCompile(`\bi\b`)
	dayRe   = regexp.MustCompile(`(?i)\b(?:` + dayNamePattern + `)\b`)

	// "on <day>" may appear anywhere; the single-word openers only count at sentence start.
	introRe = regexp.MustCompile(`(?i)\b(on\s+(?:` + dayNamePattern + `|the\s+weekend|weekends?)|then|unfortunately|finally|however)[ \t]+`)

	mealPrepRe = regexp.MustCompile(`(?i)\b(?:pizzas?|sandwich(?:es)?|hamburgers?|burgers?|hot\s?dogs?|salads?|soup|pasta|rice|chicken|tacos?|noodles|cereal|eggs|pancakes|fruit|cake|sushi)\s+(to)\s+(breakfast|lunch|dinner|supper|dessert)\b`)

	measureRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)(lts?|kms?|hrs?)\b`)

	adverbModalRe = regexp.MustCompile(`(?i)\bi\s+(only|always|never|usually)\s+(could|can|would|will)\b`)

	holeRe = regexp.MustCompile(`(?i)\b(hole)\s+(?:soda|pizza|meal)\b`)
)

var commonMisspellings = map[string]string{
	"wekend":     "weekend",
	"wekends":    "weekends",
	"recieve":    "receive",
	"recieved":   "received",
	"recieves":   "receives",
	"recieving":  "receiving",
	"seperate":   "separate",
	"seperated":  "separated",
	"seperately": "separately",
	"definately": "definitely",
}

var misspellingRe = func() *regexp.Regexp {
	words := make([]string, 0, len(commonMisspellings))
	for w := range commonMisspellings {
		words = append(words, regexp.QuoteMeta(w))
	}
	// longest first so "recieved" wins over "recieve"
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
}()

func capitalizeI(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range loneIRe.FindAllStringIndex(text, -1) {
		if !spaceOrEdgeBefore(text, m[0]) || !spaceOrEdgeAfter(text, m[1]) {
			continue
		}
		acc, _ = acc.Claim(doc.issue(essay.CategoryCapitalization, "pronoun_i", m[0], m[1], "i → I"))
	}
	return acc
}

func dayNames(doc Document, acc Accumulator) Accumulator {
	caser := cases.Title(language.English)
	for _, m := range dayRe.FindAllStringIndex(doc.Text, -1) {
		word := doc.Text[m[0]:m[1]]
		want := caser.String(strings.ToLower(word))
		if word == want || !hasLower(word) {
			continue
		}
		acc, _ = acc.Claim(doc.issue(essay.CategoryCapitalization, "day_name", m[0], m[1], word+" → "+want))
	}
	return acc
}

func introCommas(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range introRe.FindAllStringSubmatchIndex(text, -1) {
		phraseStart, phraseEnd := m[2], m[3]
		phrase := text[phraseStart:phraseEnd]
		if !nextIsLetter(text, m[1]) {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(phrase), "on") && !sentenceStart(text, phraseStart) {
			continue
		}
		// the comma goes exactly on the character after the phrase
		acc, _ = acc.Claim(doc.issue(essay.CategoryPunctuation, "missing_comma", phraseEnd, phraseEnd+1,
			phrase+" → "+phrase+","))
	}
	return acc
}

func mealPrepositions(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range mealPrepRe.FindAllStringSubmatchIndex(text, -1) {
		meal := text[m[4]:m[5]]
		acc, _ = acc.Claim(doc.issue(essay.CategoryPreposition, "meal_for", m[2], m[3],
			text[m[2]:m[3]]+" "+meal+" → for "+meal))
	}
	return acc
}

func measurements(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range measureRe.FindAllStringSubmatchIndex(text, -1) {
		// хвост другого числа: ".5km", "2.5.3km"
		if m[0] > 0 && text[m[0]-1] == '.' {
			continue
		}
		num := text[m[2]:m[3]]
		unit := strings.ToLower(text[m[4]:m[5]])
		want := ExpandMeasurement(num, unit)
		if want == "" {
			continue
		}
		acc, _ = acc.Claim(doc.issue(essay.CategorySpelling, "abbreviation", m[0], m[1], text[m[0]:m[1]]+" → "+want))
	}
	return acc
}

// ExpandMeasurement spells out a numeric abbreviation: "2","lts" -> "2-liter",
// "1","km" -> "1 kilometer", "3","kms" -> "3 kilometers". Only the literal "1" is singular.
func ExpandMeasurement(num, unit string) string {
	plural := "s"
	if num == "1" {
		plural = ""
	}
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "lt":
		return num + "-liter"
	case "km":
		return num + " kilometer" + plural
	case "hr":
		return num + " hour" + plural
	}
	return ""
}

func adverbModalOrder(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range adverbModalRe.FindAllStringSubmatchIndex(text, -1) {
		adverb := text[m[2]:m[3]]
		modal := text[m[4]:m[5]]
		acc, _ = acc.Claim(doc.issue(essay.CategoryWordOrder, "adverb_modal", m[2], m[5],
			text[m[2]:m[5]]+" → "+strings.ToLower(modal)+" "+strings.ToLower(adverb)))
	}
	return acc
}

func misspellings(doc Document, acc Accumulator) Accumulator {
	text := doc.Text
	for _, m := range misspellingRe.FindAllStringIndex(text, -1) {
		word := text[m[0]:m[1]]
		want := matchCase(word, commonMisspellings[strings.ToLower(word)])
		acc, _ = acc.Claim(doc.issue(essay.CategorySpelling, "misspelling", m[0], m[1], word+" → "+want))
	}
	for _, m := range holeRe.FindAllStringSubmatchIndex(text, -1) {
		word := text[m[2]:m[3]]
		acc, _ = acc.Claim(doc.issue(essay.CategorySpelling, "homophone", m[2], m[3], word+" → "+matchCase(word, "whole")))
	}
	return acc
}

func spaceOrEdgeBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r)
}

func spaceOrEdgeAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsSpace(r)
}

func nextIsLetter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}

// sentenceStart: only whitespace between i and the start of text, a line break
// or sentence-final punctuation.
func sentenceStart(s string, i int) bool {
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		switch {
		case r == '\n':
			return true
		case unicode.IsSpace(r):
			i -= size
		default:
			return r == '.' || r == '!' || r == '?'
		}
	}
	return true
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

// matchCase capitalizes want when the original word starts with an upper-case letter.
func matchCase(orig, want string) string {
	r, _ := utf8.DecodeRuneInString(orig)
	if !unicode.IsUpper(r) || want == "" {
		return want
	}
	w, size := utf8.DecodeRuneInString(want)
	return string(unicode.ToUpper(w)) + want[size:]
}
