package detect

import (
	"regexp"
	"strings"

	"essay-grader/api/internal/essay"
)

var (
	tooToCanRe = regexp.MustCompile(`(?i)\b(too\s+(\w+))\s+(to\s+can)\s+\w+`)
	toCanRe    = regexp.MustCompile(`(?i)\bto\s+can\b`)
	modalToRe  = regexp.MustCompile(`(?i)\b(must|should)\s+to\b`)
)

// modalVerbs handles modal misuse that survives the main battery:
// "to can", "must to"/"should to" and "too ADJ to can VERB".
func modalVerbs(doc Document, acc Accumulator) Accumulator {
	text := doc.Text

	// "too happy to can go": fix the infinitive and flag "too" used without excess
	for _, m := range tooToCanRe.FindAllStringSubmatchIndex(text, -1) {
		acc, _ = acc.Claim(doc.issue(essay.CategoryGrammar, "modal_infinitive", m[6], m[7],
			text[m[6]:m[7]]+" → to be able to"))
		adj := text[m[4]:m[5]]
		acc, _ = acc.Claim(doc.issue(essay.CategoryWordChoice, "too_excess", m[2], m[3],
			text[m[2]:m[3]]+" → very "+adj+" (\"too\" means more than is good)"))
	}

	for _, m := range toCanRe.FindAllStringIndex(text, -1) {
		acc, _ = acc.Claim(doc.issue(essay.CategoryGrammar, "modal_infinitive", m[0], m[1],
			text[m[0]:m[1]]+" → to be able to"))
	}

	for _, m := range modalToRe.FindAllStringSubmatchIndex(text, -1) {
		modal := text[m[2]:m[3]]
		acc, _ = acc.Claim(doc.issue(essay.CategoryGrammar, "modal_to", m[0], m[1],
			text[m[0]:m[1]]+" → "+strings.ToLower(modal)))
	}
	return acc
}
