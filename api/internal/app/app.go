// Package app wires configuration into a ready Grader: storage, engines,
// prompts and rubric. Both binaries start from here.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"essay-grader/api/internal/config"
	"essay-grader/api/internal/essay"
	"essay-grader/api/internal/essay/prompt"
	"essay-grader/api/internal/grader"
	"essay-grader/api/internal/llm"
	"essay-grader/api/internal/llm/gemini"
	"essay-grader/api/internal/llm/openai"
	"essay-grader/api/internal/logger"
	"essay-grader/api/internal/rubric"
	"essay-grader/api/internal/store"
)

type Profiles interface {
	grader.ProfileStore
	Upsert(ctx context.Context, p essay.ClassProfile) error
}

type App struct {
	Grader   *grader.Grader
	Engines  *llm.Engines
	Profiles Profiles
	DB       *sql.DB
}

func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	rub, err := rubric.Load(cfg.RubricPath)
	if err != nil {
		return nil, err
	}
	prompts, err := prompt.NewBuilder(cfg.PromptDir)
	if err != nil {
		return nil, err
	}

	engines := NewEngines(cfg)
	if _, err := engines.GetEngine(""); err != nil {
		return nil, fmt.Errorf("DEFAULT_LLM: %w", err)
	}

	a := &App{Engines: engines}
	var cache grader.ResultCache
	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("db connected", "dsn", config.SafeDSN(cfg.DatabaseURL))
		a.DB = db
		a.Profiles = store.NewProfileRepo(db)
		cache = store.NewResultRepo(db)
	} else {
		log.Warn("DATABASE_URL is empty: class profiles and results are kept in memory")
		a.Profiles = store.NewMemoryProfiles()
		cache = store.NewMemoryResults()
	}

	if cfg.ProfilesPath != "" {
		ps, err := rubric.LoadProfiles(cfg.ProfilesPath)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			if err := a.Profiles.Upsert(ctx, p); err != nil {
				return nil, fmt.Errorf("seed class %q: %w", p.ID, err)
			}
		}
		log.Info("class profiles seeded", "count", len(ps))
	}

	g := grader.New(a.Profiles, engines, prompts, rub, log)
	g.Cache = cache
	g.CacheTTL = cfg.ResultCacheTTL
	a.Grader = g
	return a, nil
}

// NewEngines собирает только те движки, для которых задан ключ.
func NewEngines(cfg *config.Config) *llm.Engines {
	e := &llm.Engines{Default: cfg.DefaultLLM}
	if cfg.OpenAIAPIKey != "" {
		oa := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIURL != "" {
			oa.BaseURL = cfg.OpenAIURL
		}
		e.OpenAI = oa
	}
	if cfg.GeminiAPIKey != "" {
		e.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return e
}

func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
