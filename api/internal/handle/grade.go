package handle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/grader"
)

const (
	gradeTimeout = 180 * time.Second
	maxBatch     = 50
)

type gradeReq struct {
	LLMName          string `json:"llm_name"`
	ClassID          string `json:"class_id"`
	Essay            string `json:"essay"`
	AssignmentPrompt string `json:"assignment_prompt"`
}

func (h *Handle) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeReq
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ClassID) == "" {
		http.Error(w, "class_id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r, gradeTimeout))
	defer cancel()

	res, err := h.grader.Grade(ctx, grader.Request{
		LLMName:          req.LLMName,
		ClassID:          req.ClassID,
		Essay:            req.Essay,
		AssignmentPrompt: req.AssignmentPrompt,
		RequestID:        r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		h.log.Warn("grade failed", "class_id", req.ClassID, "err", err)
		http.Error(w, "grade error: "+err.Error(), errStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchEssay struct {
	ID               string `json:"id"`
	Essay            string `json:"essay"`
	AssignmentPrompt string `json:"assignment_prompt"`
}

type batchReq struct {
	LLMName     string       `json:"llm_name"`
	ClassID     string       `json:"class_id"`
	Essays      []batchEssay `json:"essays"`
	Concurrency int          `json:"concurrency"`
}

type batchItem struct {
	ID     string               `json:"id"`
	Result *essay.GradingResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
	Status int                  `json:"status"`
}

type batchResp struct {
	Items []batchItem `json:"items"`
}

func (h *Handle) GradeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := decode(w, r, &req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ClassID) == "" {
		http.Error(w, "class_id is required", http.StatusBadRequest)
		return
	}
	if len(req.Essays) == 0 || len(req.Essays) > maxBatch {
		http.Error(w, "essays: want 1..50 items", http.StatusBadRequest)
		return
	}
	conc := req.Concurrency
	if conc <= 0 || conc > h.BatchConcurrency {
		conc = h.BatchConcurrency
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r, gradeTimeout))
	defer cancel()

	reqs := make([]grader.Request, len(req.Essays))
	for i, e := range req.Essays {
		reqs[i] = grader.Request{
			LLMName:          req.LLMName,
			ClassID:          req.ClassID,
			Essay:            e.Essay,
			AssignmentPrompt: e.AssignmentPrompt,
		}
	}
	items := h.grader.GradeBatch(ctx, reqs, conc)

	out := batchResp{Items: make([]batchItem, len(items))}
	for i, it := range items {
		bi := batchItem{ID: req.Essays[it.Index].ID, Result: it.Result, Status: http.StatusOK}
		if it.Err != nil {
			bi.Error = it.Err.Error()
			bi.Status = errStatus(it.Err)
		}
		out.Items[i] = bi
	}
	writeJSON(w, http.StatusOK, out)
}
