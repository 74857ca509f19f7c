// Package postgres persists materials, conversations and generated content
// through database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS materials (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_materials_owner ON materials(owner_id);

CREATE TABLE IF NOT EXISTS attachments (
	id TEXT PRIMARY KEY,
	material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	extract_status TEXT NOT NULL,
	extract_error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attachments_material ON attachments(material_id);

CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
	messages JSONB NOT NULL DEFAULT '[]'::jsonb,
	summary_context TEXT NOT NULL DEFAULT '',
	messages_since_summary INTEGER NOT NULL DEFAULT 0,
	last_summary_at TIMESTAMPTZ,
	legacy_context TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, material_id)
);

CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (material_id, title)
);

CREATE TABLE IF NOT EXISTS flashcard_sets (
	id TEXT PRIMARY KEY,
	material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (material_id, title)
);

CREATE TABLE IF NOT EXISTS flashcards (
	id TEXT PRIMARY KEY,
	set_id TEXT NOT NULL REFERENCES flashcard_sets(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flashcards_set ON flashcards(set_id);

CREATE TABLE IF NOT EXISTS quizzes (
	id TEXT PRIMARY KEY,
	material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (material_id, title)
);

CREATE TABLE IF NOT EXISTS quiz_questions (
	id TEXT PRIMARY KEY,
	quiz_id TEXT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	question_text TEXT NOT NULL,
	choices JSONB NOT NULL DEFAULT '[]'::jsonb,
	correct_answer TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quiz_questions_quiz ON quiz_questions(quiz_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
