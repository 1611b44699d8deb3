package lexical

import "essay-grader/api/internal/util"

// TransitionCategory is one of the eight semantic groups of linking words.
type TransitionCategory string

const (
	TransitionSequence   TransitionCategory = "sequence"
	TransitionAddition   TransitionCategory = "addition"
	TransitionContrast   TransitionCategory = "contrast"
	TransitionCausality  TransitionCategory = "causality"
	TransitionExample    TransitionCategory = "example"
	TransitionConclusion TransitionCategory = "conclusion"
	TransitionComparison TransitionCategory = "comparison"
	TransitionFrequency  TransitionCategory = "frequency"
)

// TransitionGroup is a category with its terms.
type TransitionGroup struct {
	Category TransitionCategory
	Terms    []string
}

// Transitions is the fixed taxonomy. A term belongs to exactly one category.
var Transitions = []TransitionGroup{
	{TransitionSequence, []string{
		"first", "firstly", "second", "secondly", "third", "thirdly", "next", "then",
		"after that", "afterwards", "before that", "later", "meanwhile", "eventually",
		"finally", "lastly", "at first", "in the end",
	}},
	{TransitionAddition, []string{
		"also", "in addition", "moreover", "furthermore", "besides", "additionally",
		"as well as", "what is more",
	}},
	{TransitionContrast, []string{
		"but", "however", "although", "even though", "on the other hand", "nevertheless",
		"whereas", "instead", "unfortunately", "in contrast", "though",
	}},
	{TransitionCausality, []string{
		"because", "so", "therefore", "as a result", "consequently", "since", "thus",
		"because of", "due to",
	}},
	{TransitionExample, []string{
		"for example", "for instance", "such as", "including", "in particular",
	}},
	{TransitionConclusion, []string{
		"in conclusion", "to sum up", "overall", "in summary", "in short", "to conclude",
	}},
	{TransitionComparison, []string{
		"similarly", "likewise", "in the same way", "compared to", "compared with",
		"in comparison",
	}},
	{TransitionFrequency, []string{
		"always", "usually", "often", "sometimes", "never", "rarely", "every day",
		"once a week", "normally",
	}},
}

func transitionTerms() []term {
	var out []term
	for _, g := range Transitions {
		for _, t := range g.Terms {
			out = append(out, term{text: t, category: string(g.Category)})
		}
	}
	return out
}

// FindTransitions scans text for transition words and phrases: an exact pass
// over every term, then a fuzzy pass over single words.
func FindTransitions(text string) []Match {
	idx := util.NewUTF16Index(text)
	terms := transitionTerms()
	set := newMatchSet()

	covered := exactPass(text, idx, terms, set)
	fuzzyPass(tokenize(text, idx), covered, terms, transitionPolicy, set)
	return set.sorted()
}

// CountByCategory tallies matches per transition category.
func CountByCategory(matches []Match) map[TransitionCategory]int {
	out := map[TransitionCategory]int{}
	for _, m := range matches {
		out[TransitionCategory(m.Category)]++
	}
	return out
}
