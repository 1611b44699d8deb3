package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

var ErrNotFound = sql.ErrNoRows

const Schema = `
create table if not exists class_profiles (
    id          text primary key,
    name        text not null default '',
    cefr_level  text not null default '',
    vocabulary  jsonb not null default '[]',
    grammar     jsonb not null default '[]',
    temperature real not null default 0,
    updated_at  timestamptz not null default now()
);

create table if not exists graded_essays (
    essay_hash  text not null,
    engine      text not null,
    model       text not null,
    class_id    text not null,
    result_json jsonb not null,
    created_at  timestamptz not null default now(),
    primary key (essay_hash, engine, model)
);`

// Open открывает пул через pgx stdlib и проверяет соединение.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(1 * time.Hour)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
