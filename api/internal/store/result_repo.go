package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"essay-grader/api/internal/essay"
)

type ResultRepo struct{ DB *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{DB: db} }

// Find возвращает кэш оценки для (essayHash, engine, model).
// Если maxAge > 0 и запись старше, вернёт ErrNotFound (чтобы вызвать LLM заново).
func (r *ResultRepo) Find(ctx context.Context, essayHash, engine, model string, maxAge time.Duration) (*essay.GradingResult, error) {
	const q = `select result_json, created_at
	           from graded_essays
	           where essay_hash=$1 and engine=$2 and model=$3`
	var (
		js []byte
		ts time.Time
	)
	err := r.DB.QueryRowContext(ctx, q, essayHash, engine, model).Scan(&js, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return nil, ErrNotFound
	}
	var res essay.GradingResult
	if err := json.Unmarshal(js, &res); err != nil {
		// битый кэш: считаем, что записи нет
		return nil, ErrNotFound
	}
	return &res, nil
}

// Upsert сохраняет/обновляет оценку. PK: (essay_hash, engine, model).
func (r *ResultRepo) Upsert(ctx context.Context, essayHash, engine, model, classID string, res *essay.GradingResult) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	const q = `
insert into graded_essays(essay_hash, engine, model, class_id, result_json)
values ($1,$2,$3,$4,$5)
on conflict (essay_hash, engine, model)
do update set class_id=excluded.class_id, result_json=excluded.result_json, created_at=now()`
	_, err = r.DB.ExecContext(ctx, q, essayHash, engine, model, classID, js)
	return err
}

// MemoryResults: кэш оценок в памяти. Хранит JSON, чтобы вызывающий не мог
// изменить сохранённое значение.
type MemoryResults struct {
	mu  sync.Mutex
	m   map[string]memoryResult
	now func() time.Time
}

type memoryResult struct {
	js []byte
	ts time.Time
}

func NewMemoryResults() *MemoryResults {
	return &MemoryResults{m: map[string]memoryResult{}, now: time.Now}
}

func resultKey(essayHash, engine, model string) string {
	return essayHash + "\x00" + engine + "\x00" + model
}

func (m *MemoryResults) Find(_ context.Context, essayHash, engine, model string, maxAge time.Duration) (*essay.GradingResult, error) {
	m.mu.Lock()
	e, ok := m.m[resultKey(essayHash, engine, model)]
	m.mu.Unlock()
	if !ok || (maxAge > 0 && m.now().Sub(e.ts) > maxAge) {
		return nil, ErrNotFound
	}
	var res essay.GradingResult
	if err := json.Unmarshal(e.js, &res); err != nil {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (m *MemoryResults) Upsert(_ context.Context, essayHash, engine, model, _ string, res *essay.GradingResult) error {
	js, err := json.Marshal(res)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.m[resultKey(essayHash, engine, model)] = memoryResult{js: js, ts: m.now()}
	m.mu.Unlock()
	return nil
}
