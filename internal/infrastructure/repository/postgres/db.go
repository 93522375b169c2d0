package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string, maxOpenConns int) (*sql.DB, error) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS process_types (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS general_processes (
	id BIGSERIAL PRIMARY KEY,
	process_type_id BIGINT NOT NULL REFERENCES process_types(id),
	name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS internal_processes (
	id BIGSERIAL PRIMARY KEY,
	general_process_id BIGINT REFERENCES general_processes(id),
	name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS categories (
	id BIGSERIAL PRIMARY KEY,
	internal_process_id BIGINT NOT NULL REFERENCES internal_processes(id),
	name TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL,
	extension TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	process_type_id BIGINT REFERENCES process_types(id),
	general_process_id BIGINT REFERENCES general_processes(id),
	internal_process_id BIGINT REFERENCES internal_processes(id),
	category_id BIGINT REFERENCES categories(id),
	document_date DATE,
	valid_until DATE,
	confidentiality TEXT NOT NULL DEFAULT 'internal'
		CHECK (confidentiality IN ('public', 'internal', 'restricted')),
	uploaded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	invalidated_at TIMESTAMPTZ,
	search_vector tsvector GENERATED ALWAYS AS (
		setweight(to_tsvector('simple', title), 'A') ||
		setweight(to_tsvector('simple', original_filename), 'B') ||
		setweight(to_tsvector('simple', description), 'C') ||
		setweight(jsonb_to_tsvector('simple', tags, '["string"]'), 'C')
	) STORED
);

CREATE INDEX IF NOT EXISTS idx_general_processes_parent ON general_processes(process_type_id);
CREATE INDEX IF NOT EXISTS idx_internal_processes_parent ON internal_processes(general_process_id);
CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(internal_process_id);

CREATE INDEX IF NOT EXISTS idx_documents_search_vector ON documents USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags jsonb_path_ops);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC, id DESC) WHERE invalidated_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_documents_extension ON documents(extension) WHERE invalidated_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_documents_process_type ON documents(process_type_id) WHERE invalidated_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_documents_general_process ON documents(general_process_id) WHERE invalidated_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_documents_internal_process ON documents(internal_process_id) WHERE invalidated_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category_id) WHERE invalidated_at IS NULL;
`

// EnsureSchema creates the catalog tables when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
