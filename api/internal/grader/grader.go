// Package grader orchestrates one grading run: class profile, prompt, model call,
// reconciliation and result cache.
package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/prompt"
	"essay-grader/api/internal/essay/reconcile"
	"essay-grader/api/internal/llm"
	"essay-grader/api/internal/logger"
	"essay-grader/api/internal/store"
	"essay-grader/api/internal/util"
)

var (
	ErrEmptyEssay      = errors.New("essay text is empty")
	ErrProfileNotFound = errors.New("class profile not found")
	ErrLLM             = errors.New("llm call failed")
)

type ProfileStore interface {
	Find(ctx context.Context, id string) (essay.ClassProfile, error)
}

type ResultCache interface {
	Find(ctx context.Context, essayHash, engine, model string, maxAge time.Duration) (*essay.GradingResult, error)
	Upsert(ctx context.Context, essayHash, engine, model, classID string, res *essay.GradingResult) error
}

type EngineSource interface {
	GetEngine(name string) (llm.Engine, error)
}

type Grader struct {
	Profiles ProfileStore
	Engines  EngineSource
	Prompts  *prompt.Builder
	Rubric   *essay.Rubric
	Log      *logger.Logger

	// Cache необязателен; nil: без кэша.
	Cache    ResultCache
	CacheTTL time.Duration

	newID func() string
}

func New(profiles ProfileStore, engines EngineSource, prompts *prompt.Builder, rubric *essay.Rubric, log *logger.Logger) *Grader {
	if log == nil {
		log = logger.Nop()
	}
	return &Grader{
		Profiles: profiles,
		Engines:  engines,
		Prompts:  prompts,
		Rubric:   rubric,
		Log:      log,
		newID:    uuid.NewString,
	}
}

type Request struct {
	LLMName          string
	ClassID          string
	Essay            string
	AssignmentPrompt string
	// RequestID: если пусто, генерируется.
	RequestID string
}

func (g *Grader) Grade(ctx context.Context, req Request) (*essay.GradingResult, error) {
	if strings.TrimSpace(req.Essay) == "" {
		return nil, ErrEmptyEssay
	}
	if req.RequestID == "" {
		req.RequestID = g.requestID()
	}
	log := g.Log.With("request_id", req.RequestID, "class_id", req.ClassID)

	// профиль первым: без него LLM не вызываем
	profile, err := g.Profiles.Find(ctx, req.ClassID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, req.ClassID)
	}
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", req.ClassID, err)
	}

	eng, err := g.Engines.GetEngine(req.LLMName)
	if err != nil {
		return nil, err
	}
	log = log.With("engine", eng.Name(), "model", eng.GetModel())

	p, err := g.Prompts.Build(prompt.Input{
		Essay:            req.Essay,
		AssignmentPrompt: req.AssignmentPrompt,
		Profile:          profile,
		Rubric:           g.Rubric,
	})
	if err != nil {
		return nil, err
	}

	hash := essayHash(profile, p)
	if g.Cache != nil {
		if res, err := g.Cache.Find(ctx, hash, eng.Name(), eng.GetModel(), g.CacheTTL); err == nil {
			res.Meta.RequestID = req.RequestID
			log.Info("grade: cache hit", "total", res.Total.Points)
			return res, nil
		} else if !errors.Is(err, store.ErrNotFound) {
			log.Warn("grade: cache lookup failed", "err", err)
		}
	}

	start := time.Now()
	raw, err := eng.Complete(ctx, llm.Request{
		System:      p.System,
		User:        p.User,
		Temperature: profile.Temperature,
		JSON:        true,
	})
	if err != nil {
		log.Error("grade: llm failed", "err", err, "took", time.Since(start))
		return nil, fmt.Errorf("%w: %s: %v", ErrLLM, eng.Name(), err)
	}

	res, err := reconcile.Reconciler{Rubric: g.Rubric}.Reconcile(raw, req.Essay, profile)
	if err != nil {
		log.Warn("grade: bad llm response", "err", err, "raw", raw)
		return nil, err
	}
	res.Meta.Engine = eng.Name()
	res.Meta.Model = eng.GetModel()
	res.Meta.RequestID = req.RequestID

	log.Info("grade: done",
		"took", time.Since(start),
		"total", res.Total.Points,
		"out_of", res.Total.OutOf,
		"issues", len(res.InlineIssues),
	)

	if g.Cache != nil {
		if err := g.Cache.Upsert(ctx, hash, eng.Name(), eng.GetModel(), profile.ID, res); err != nil {
			log.Warn("grade: cache store failed", "err", err)
		}
	}
	return res, nil
}

// BatchItem: результат одного эссе из пакета; Err не останавливает остальные.
type BatchItem struct {
	Index  int
	Result *essay.GradingResult
	Err    error
}

// GradeBatch оценивает эссе параллельно, не больше concurrency одновременно.
// Порядок элементов совпадает с порядком запросов.
func (g *Grader) GradeBatch(ctx context.Context, reqs []Request, concurrency int) []BatchItem {
	if concurrency <= 0 {
		concurrency = 1
	}
	out := make([]BatchItem, len(reqs))
	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i, r := range reqs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = BatchItem{Index: i, Err: err}
				return nil
			}
			res, err := g.Grade(ctx, r)
			out[i] = BatchItem{Index: i, Result: res, Err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func (g *Grader) requestID() string {
	if g.newID != nil {
		return g.newID()
	}
	return uuid.NewString()
}

// essayHash: ключ кэша по готовому промпту. Эссе, задание, профиль, рубрика и
// шаблоны входят в System/User, поэтому любая их правка даёт новый ключ.
func essayHash(profile essay.ClassProfile, p prompt.Prompt) string {
	return util.SHA256Hex(
		profile.ID,
		p.System,
		p.User,
		fmt.Sprintf("%g", profile.Temperature),
	)
}
