package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"essay-grader/api/internal/essay"
)

type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Find возвращает профиль класса или ErrNotFound.
func (r *ProfileRepo) Find(ctx context.Context, id string) (essay.ClassProfile, error) {
	const q = `select id, name, cefr_level, vocabulary, grammar, temperature
	           from class_profiles where id=$1`
	var (
		p          essay.ClassProfile
		level      string
		vocab, gra []byte
	)
	err := r.DB.QueryRowContext(ctx, q, strings.TrimSpace(id)).
		Scan(&p.ID, &p.Name, &level, &vocab, &gra, &p.Temperature)
	if errors.Is(err, sql.ErrNoRows) {
		return essay.ClassProfile{}, ErrNotFound
	}
	if err != nil {
		return essay.ClassProfile{}, err
	}
	p.CEFRLevel = essay.CEFRLevel(level)
	if err := json.Unmarshal(vocab, &p.Vocabulary); err != nil {
		return essay.ClassProfile{}, err
	}
	if err := json.Unmarshal(gra, &p.Grammar); err != nil {
		return essay.ClassProfile{}, err
	}
	return p, nil
}

// Upsert сохраняет/обновляет профиль. PK: id.
func (r *ProfileRepo) Upsert(ctx context.Context, p essay.ClassProfile) error {
	vocab, err := json.Marshal(nonNil(p.Vocabulary))
	if err != nil {
		return err
	}
	gra, err := json.Marshal(nonNil(p.Grammar))
	if err != nil {
		return err
	}
	const q = `
insert into class_profiles(id, name, cefr_level, vocabulary, grammar, temperature)
values ($1,$2,$3,$4,$5,$6)
on conflict (id)
do update set name=excluded.name, cefr_level=excluded.cefr_level, vocabulary=excluded.vocabulary,
              grammar=excluded.grammar, temperature=excluded.temperature, updated_at=now()`
	_, err = r.DB.ExecContext(ctx, q, p.ID, p.Name, string(p.CEFRLevel), vocab, gra, p.Temperature)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MemoryProfiles: хранилище профилей в памяти (тесты, запуск без БД).
type MemoryProfiles struct {
	mu sync.RWMutex
	m  map[string]essay.ClassProfile
}

func NewMemoryProfiles(seed ...essay.ClassProfile) *MemoryProfiles {
	mp := &MemoryProfiles{m: make(map[string]essay.ClassProfile, len(seed))}
	for _, p := range seed {
		mp.m[p.ID] = p
	}
	return mp
}

func (m *MemoryProfiles) Find(_ context.Context, id string) (essay.ClassProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.m[strings.TrimSpace(id)]
	if !ok {
		return essay.ClassProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryProfiles) Upsert(_ context.Context, p essay.ClassProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[p.ID] = p
	return nil
}
