package handle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/reconcile"
	"essay-grader/api/internal/grader"
	"essay-grader/api/internal/llm"
	"essay-grader/api/internal/store"
)

type stubGrader struct {
	gradeFn  func(context.Context, grader.Request) (*essay.GradingResult, error)
	lastConc int
}

func (s *stubGrader) Grade(ctx context.Context, req grader.Request) (*essay.GradingResult, error) {
	if s.gradeFn != nil {
		return s.gradeFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (s *stubGrader) GradeBatch(ctx context.Context, reqs []grader.Request, conc int) []grader.BatchItem {
	s.lastConc = conc
	out := make([]grader.BatchItem, len(reqs))
	for i, r := range reqs {
		res, err := s.Grade(ctx, r)
		out[i] = grader.BatchItem{Index: i, Result: res, Err: err}
	}
	return out
}

func newServer(g Grader) (*Handle, http.Handler) {
	h := New(g, store.NewMemoryProfiles(essay.ClassProfile{ID: "7b", CEFRLevel: essay.LevelA2}), nil)
	return h, h.Routes()
}

func do(t *testing.T, srv http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h, srv := newServer(&stubGrader{})
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	h.Ping = func(context.Context) error { return errors.New("down") }
	rec = do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGradeOK(t *testing.T) {
	var got grader.Request
	g := &stubGrader{gradeFn: func(_ context.Context, req grader.Request) (*essay.GradingResult, error) {
		got = req
		return &essay.GradingResult{Total: essay.Total{Points: 80, OutOf: 100}}, nil
	}}
	_, srv := newServer(g)

	rec := do(t, srv, http.MethodPost, "/v1/essays/grade",
		map[string]string{"llm_name": "gemini", "class_id": "7b", "essay": "i like friday", "assignment_prompt": "Week"},
		"X-Request-Id", "abc")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res essay.GradingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 80.0, res.Total.Points)
	assert.Equal(t, grader.Request{LLMName: "gemini", ClassID: "7b", Essay: "i like friday", AssignmentPrompt: "Week", RequestID: "abc"}, got)
}

func TestGradeDeadlineHeader(t *testing.T) {
	var left time.Duration
	g := &stubGrader{gradeFn: func(ctx context.Context, _ grader.Request) (*essay.GradingResult, error) {
		dl, ok := ctx.Deadline()
		require.True(t, ok)
		left = time.Until(dl)
		return &essay.GradingResult{}, nil
	}}
	_, srv := newServer(g)

	rec := do(t, srv, http.MethodPost, "/v1/essays/grade", map[string]string{"class_id": "7b", "essay": "x"}, "X-Request-Timeout", "5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.LessOrEqual(t, left, 5*time.Second)

	rec = do(t, srv, http.MethodPost, "/v1/essays/grade?timeoutSec=7", map[string]string{"class_id": "7b", "essay": "x"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, left, 5*time.Second)
	assert.LessOrEqual(t, left, 7*time.Second)
}

func TestGradeErrorStatuses(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{grader.ErrEmptyEssay, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", llm.ErrUnknownEngine, "x"), http.StatusBadRequest},
		{fmt.Errorf("%w: %q", grader.ErrProfileNotFound, "9a"), http.StatusNotFound},
		{fmt.Errorf("%w: gpt: boom", grader.ErrLLM), http.StatusBadGateway},
		{fmt.Errorf("%w: empty completion", reconcile.ErrBadJSON), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			g := &stubGrader{gradeFn: func(context.Context, grader.Request) (*essay.GradingResult, error) {
				return nil, tc.err
			}}
			_, srv := newServer(g)
			rec := do(t, srv, http.MethodPost, "/v1/essays/grade", map[string]string{"class_id": "7b", "essay": "x"})
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGradeBadInput(t *testing.T) {
	_, srv := newServer(&stubGrader{})

	rec := do(t, srv, http.MethodPost, "/v1/essays/grade", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/v1/essays/grade", map[string]string{"essay": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/v1/essays/grade", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGradeBatch(t *testing.T) {
	g := &stubGrader{gradeFn: func(_ context.Context, req grader.Request) (*essay.GradingResult, error) {
		if req.Essay == "bad" {
			return nil, fmt.Errorf("%w: gpt: boom", grader.ErrLLM)
		}
		return &essay.GradingResult{Total: essay.Total{Points: 50, OutOf: 100}}, nil
	}}
	h, srv := newServer(g)
	h.BatchConcurrency = 3

	rec := do(t, srv, http.MethodPost, "/v1/essays/grade/batch", map[string]any{
		"class_id":    "7b",
		"concurrency": 10,
		"essays": []map[string]string{
			{"id": "a", "essay": "good"},
			{"id": "b", "essay": "bad"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, g.lastConc)

	var resp batchResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "a", resp.Items[0].ID)
	assert.Equal(t, http.StatusOK, resp.Items[0].Status)
	require.NotNil(t, resp.Items[0].Result)
	assert.Equal(t, 50.0, resp.Items[0].Result.Total.Points)
	assert.Equal(t, "b", resp.Items[1].ID)
	assert.Equal(t, http.StatusBadGateway, resp.Items[1].Status)
	assert.Contains(t, resp.Items[1].Error, "boom")
	assert.Nil(t, resp.Items[1].Result)
}

func TestGradeBatchValidation(t *testing.T) {
	_, srv := newServer(&stubGrader{})
	rec := do(t, srv, http.MethodPost, "/v1/essays/grade/batch", map[string]any{"class_id": "7b", "essays": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetect(t *testing.T) {
	_, srv := newServer(&stubGrader{})
	rec := do(t, srv, http.MethodPost, "/v1/essays/detect", map[string]string{"essay": "i went to school on friday then i rest"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp detectResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.InlineIssues)
	assert.Equal(t, essay.Offsets{Start: 0, End: 1}, resp.InlineIssues[0].Offsets)

	rec = do(t, srv, http.MethodPost, "/v1/essays/detect", map[string]string{"essay": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"inline_issues":[]}`, rec.Body.String())
}

func TestLexical(t *testing.T) {
	_, srv := newServer(&stubGrader{})
	rec := do(t, srv, http.MethodPost, "/v1/essays/lexical", map[string]any{
		"essay":      "First I do homework. However, I like the weekend.",
		"vocabulary": []string{"weekend", "holiday"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp lexicalResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.TransitionWordsFound, "however (1 occurrence)")
	assert.Equal(t, []string{"weekend (1 occurrence)"}, resp.ClassVocabularyUsed)
	assert.Equal(t, 1, resp.ByCategory["contrast"])

	rec = do(t, srv, http.MethodPost, "/v1/essays/lexical", map[string]any{"essay": "nothing here"})
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{essay.NoMatchesSentinel}, resp.ClassVocabularyUsed)
}

func TestClasses(t *testing.T) {
	_, srv := newServer(&stubGrader{})

	rec := do(t, srv, http.MethodGet, "/v1/classes/7b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cefr_level":"A2"`)

	rec = do(t, srv, http.MethodGet, "/v1/classes/9a", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/v1/classes/9a", map[string]any{"cefr_level": "b1", "vocabulary": []string{"weekend"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/v1/classes/9a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p essay.ClassProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "9a", p.ID)
	assert.Equal(t, essay.LevelB1, p.CEFRLevel)

	rec = do(t, srv, http.MethodPut, "/v1/classes/9a", map[string]any{"cefr_level": "Z1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPut, "/v1/classes/9a", map[string]any{"id": "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
