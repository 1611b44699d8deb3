// Package reconcile turns a raw model completion into the final grading
// document: it parses the JSON, recomputes lexical usage locally, merges the
// deterministic detector findings and applies CEFR leniency to the scores.
package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/detect"
	"essay-grader/api/internal/essay/lexical"
	"essay-grader/api/internal/util"
)

// ErrBadJSON is returned when the completion is not a JSON object after fence stripping.
var ErrBadJSON = errors.New("llm response is not valid JSON")

// Reconciler carries the optional rubric used to fill missing out_of values.
type Reconciler struct {
	Rubric *essay.Rubric
}

// Reconcile is Reconciler{}.Reconcile.
func Reconcile(raw, essayText string, profile essay.ClassProfile) (*essay.GradingResult, error) {
	return Reconciler{}.Reconcile(raw, essayText, profile)
}

func (r Reconciler) Reconcile(raw, essayText string, profile essay.ClassProfile) (*essay.GradingResult, error) {
	res, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	applyLexicalUsage(res, essayText, profile)

	doc := detect.NewDocument(essayText)
	seed := sanitizeIssues(res.InlineIssues, doc.Len())
	acc := detect.Run(doc, detect.NewAccumulator(seed), detect.AllPasses()...)
	res.InlineIssues = acc.Issues()

	r.fillOutOf(res)
	ApplyLeniency(res, profile.CEFRLevel)
	RecomputeTotal(res)

	res.Meta.ClassID = profile.ID
	res.Meta.CEFRLevel = profile.CEFRLevel
	res.Meta.WordCount = len(strings.Fields(essayText))
	return res, nil
}

// Parse strips markdown fences and decodes the model's JSON document.
func Parse(raw string) (*essay.GradingResult, error) {
	body := util.StripCodeFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrBadJSON)
	}
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("%w: expected an object, got %q", ErrBadJSON, util.Truncate(body, 40))
	}
	var res essay.GradingResult
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
	}
	return &res, nil
}

func applyLexicalUsage(res *essay.GradingResult, text string, profile essay.ClassProfile) {
	transitions := lexical.Summarize(lexical.FindTransitions(text))
	res.Meta.TransitionWordsFound = essay.UsageList(lexical.FormatUsage(transitions))

	vocab := lexical.Summarize(lexical.FindVocabulary(text, profile.Vocabulary))
	if len(profile.Vocabulary) == 0 || len(vocab) == 0 {
		res.Meta.ClassVocabularyUsed = essay.UsageList{essay.NoMatchesSentinel}
		return
	}
	res.Meta.ClassVocabularyUsed = essay.UsageList(lexical.FormatUsage(vocab))
}

// sanitizeIssues drops model issues whose offsets cannot be anchored in the text.
func sanitizeIssues(issues []essay.Issue, textLen int) []essay.Issue {
	out := make([]essay.Issue, 0, len(issues))
	for _, is := range issues {
		if !is.Offsets.Valid(textLen) {
			continue
		}
		out = append(out, is)
	}
	return out
}

func (r Reconciler) fillOutOf(res *essay.GradingResult) {
	for i, e := range res.Scores {
		if e.OutOf > 0 {
			continue
		}
		if c, ok := r.Rubric.Category(e.Category); ok {
			res.Scores[i].OutOf = c.Weight
		}
	}
}

// ApplyLeniency multiplies every category's points by the level's multiplier,
// rounds to the nearest integer and clamps to [0, out_of]. A category with no
// known out_of is only floored at 0.
func ApplyLeniency(res *essay.GradingResult, level essay.CEFRLevel) {
	m := level.LeniencyMultiplier()
	for i, e := range res.Scores {
		p := math.Round(e.Points * m)
		if e.OutOf > 0 && p > e.OutOf {
			p = e.OutOf
		}
		if p < 0 {
			p = 0
		}
		res.Scores[i].Points = p
	}
}

// RecomputeTotal sums category points; out_of is summed only when the model left it empty.
func RecomputeTotal(res *essay.GradingResult) {
	var points, outOf float64
	for _, e := range res.Scores {
		points += e.Points
		outOf += e.OutOf
	}
	res.Total.Points = points
	if res.Total.OutOf <= 0 {
		res.Total.OutOf = outOf
	}
}
