package handle

import (
	"net/http"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/detect"
	"essay-grader/api/internal/essay/lexical"
)

type detectReq struct {
	Essay string `json:"essay"`
}

type detectResp struct {
	InlineIssues []essay.Issue `json:"inline_issues"`
}

// Detect: только детерминированные детекторы, без LLM.
func (h *Handle) Detect(w http.ResponseWriter, r *http.Request) {
	var req detectReq
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	issues := detect.Detect(req.Essay, nil)
	if issues == nil {
		issues = []essay.Issue{}
	}
	writeJSON(w, http.StatusOK, detectResp{InlineIssues: issues})
}

type lexicalReq struct {
	Essay      string   `json:"essay"`
	Vocabulary []string `json:"vocabulary"`
}

type lexicalResp struct {
	Transitions          []lexical.Match `json:"transitions"`
	TransitionWordsFound []string        `json:"transition_words_found"`
	ByCategory           map[string]int  `json:"transitions_by_category"`
	Vocabulary           []lexical.Match `json:"vocabulary"`
	ClassVocabularyUsed  []string        `json:"class_vocabulary_used"`
}

func (h *Handle) Lexical(w http.ResponseWriter, r *http.Request) {
	var req lexicalReq
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	tr := lexical.FindTransitions(req.Essay)
	vo := lexical.FindVocabulary(req.Essay, req.Vocabulary)

	byCat := map[string]int{}
	for c, n := range lexical.CountByCategory(tr) {
		byCat[string(c)] = n
	}
	used := lexical.FormatUsage(lexical.Summarize(vo))
	if len(used) == 0 {
		used = []string{essay.NoMatchesSentinel}
	}
	writeJSON(w, http.StatusOK, lexicalResp{
		Transitions:          nonNilMatches(tr),
		TransitionWordsFound: nonNilStrings(lexical.FormatUsage(lexical.Summarize(tr))),
		ByCategory:           byCat,
		Vocabulary:           nonNilMatches(vo),
		ClassVocabularyUsed:  used,
	})
}

func nonNilMatches(m []lexical.Match) []lexical.Match {
	if m == nil {
		return []lexical.Match{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
