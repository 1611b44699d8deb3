// Package detect holds the deterministic error detectors that patch the model's
// inline issues. Detectors run as an ordered pipeline of passes; every pass
// receives the claimed-range accumulator produced by the previous one and
// returns a new accumulator, so a later detector never flags a span an earlier
// detector (or the model) already claimed.
package detect

import (
	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/util"
)

// Document is the essay text plus a byte -> UTF-16 offset index.
type Document struct {
	Text string
	idx  *util.UTF16Index
}

func NewDocument(text string) Document {
	return Document{Text: text, idx: util.NewUTF16Index(text)}
}

// Len is the text length in UTF-16 code units.
func (d Document) Len() int { return d.idx.Len() }

// Span converts a byte range of Text into UTF-16 offsets.
func (d Document) Span(startByte, endByte int) essay.Offsets {
	return essay.Offsets{Start: d.idx.Unit(startByte), End: d.idx.Unit(endByte)}
}

func (d Document) issue(cat essay.Category, subtype string, startByte, endByte int, msg string) essay.Issue {
	return essay.Issue{
		Type:    cat,
		Subtype: subtype,
		Message: msg,
		Text:    d.Text[startByte:endByte],
		Offsets: d.Span(startByte, endByte),
	}
}

// Accumulator is the claimed-range set. The zero value is an empty set.
// Claim never mutates the receiver.
type Accumulator struct {
	issues []essay.Issue
}

// NewAccumulator seeds the set, usually with the model's own inline issues.
func NewAccumulator(seed []essay.Issue) Accumulator {
	cp := make([]essay.Issue, len(seed))
	copy(cp, seed)
	return Accumulator{issues: cp}
}

func (a Accumulator) Len() int { return len(a.issues) }

// Issues returns a copy of the accumulated issues in claim order.
func (a Accumulator) Issues() []essay.Issue {
	cp := make([]essay.Issue, len(a.issues))
	copy(cp, a.issues)
	return cp
}

func (a Accumulator) Covers(o essay.Offsets) bool {
	return IsCovered(o.Start, o.End, a.issues)
}

// Claim returns the accumulator with the issue appended. Empty or already
// covered spans are rejected and the receiver is returned unchanged.
func (a Accumulator) Claim(is essay.Issue) (Accumulator, bool) {
	if is.Offsets.Len() <= 0 || a.Covers(is.Offsets) {
		return a, false
	}
	next := make([]essay.Issue, len(a.issues), len(a.issues)+1)
	copy(next, a.issues)
	return Accumulator{issues: append(next, is)}, true
}

// Pass is one detector in the pipeline.
type Pass struct {
	Name string
	Run  func(doc Document, acc Accumulator) Accumulator
}

// DefaultPasses is the main detector battery in its fixed order.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: "capitalization_i", Run: capitalizeI},
		{Name: "day_names", Run: dayNames},
		{Name: "intro_commas", Run: introCommas},
		{Name: "prepositions", Run: mealPrepositions},
		{Name: "measurements", Run: measurements},
		{Name: "word_order", Run: adverbModalOrder},
		{Name: "spelling", Run: misspellings},
	}
}

// ModalPasses is the separate modal-verb pass, run after DefaultPasses.
func ModalPasses() []Pass {
	return []Pass{
		{Name: "modal_verbs", Run: modalVerbs},
	}
}

// AllPasses is DefaultPasses followed by ModalPasses.
func AllPasses() []Pass {
	return append(DefaultPasses(), ModalPasses()...)
}

// Run threads acc through the passes in order.
func Run(doc Document, acc Accumulator, passes ...Pass) Accumulator {
	for _, p := range passes {
		acc = p.Run(doc, acc)
	}
	return acc
}

// Detect runs every pass over text, seeded with existing issues, and returns
// the seed followed by the non-overlapping deterministic findings.
func Detect(text string, seed []essay.Issue) []essay.Issue {
	return Run(NewDocument(text), NewAccumulator(seed), AllPasses()...).Issues()
}
