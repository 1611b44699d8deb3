package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/reconcile"
	"essay-grader/api/internal/grader"
	"essay-grader/api/internal/llm"
	"essay-grader/api/internal/logger"
)

type Grader interface {
	Grade(ctx context.Context, req grader.Request) (*essay.GradingResult, error)
	GradeBatch(ctx context.Context, reqs []grader.Request, concurrency int) []grader.BatchItem
}

type Profiles interface {
	Find(ctx context.Context, id string) (essay.ClassProfile, error)
	Upsert(ctx context.Context, p essay.ClassProfile) error
}

type Handle struct {
	grader   Grader
	profiles Profiles
	log      *logger.Logger

	// BatchConcurrency: лимит по умолчанию для /grade/batch.
	BatchConcurrency int
	// Ping проверяет зависимости для /healthz; nil: всегда ok.
	Ping func(ctx context.Context) error
}

func New(g Grader, profiles Profiles, log *logger.Logger) *Handle {
	if log == nil {
		log = logger.Nop()
	}
	return &Handle{grader: g, profiles: profiles, log: log, BatchConcurrency: 4}
}

func (h *Handle) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/essays/grade", h.Grade)
		r.Post("/essays/grade/batch", h.GradeBatch)
		r.Post("/essays/detect", h.Detect)
		r.Post("/essays/lexical", h.Lexical)
		r.Get("/classes/{id}", h.GetClass)
		r.Put("/classes/{id}", h.PutClass)
	})
	return r
}

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	return dec.Decode(v)
}

// requestDeadline: X-Request-Timeout (сек) или ?timeoutSec=, иначе def.
func requestDeadline(r *http.Request, def time.Duration) time.Duration {
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, grader.ErrEmptyEssay), errors.Is(err, llm.ErrUnknownEngine):
		return http.StatusBadRequest
	case errors.Is(err, grader.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, grader.ErrLLM), errors.Is(err, reconcile.ErrBadJSON):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
