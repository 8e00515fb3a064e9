package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
	"github.com/kirillkom/eval-tree-viewer/internal/infrastructure/loader"
)

// DocumentRepository keeps processed model documents in the model_documents
// table. It is both a document source for the viewer and a sink for the
// worker.
type DocumentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

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

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
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

	const query = `
CREATE TABLE IF NOT EXISTS model_documents (
	name TEXT PRIMARY KEY,
	body JSON NOT NULL,
	position BIGSERIAL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Kind() string { return "postgres" }

// List returns the stored models in insertion order.
func (r *DocumentRepository) List(ctx context.Context, _ string) ([]loader.Ref, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM model_documents ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list model documents: %w", err)
	}
	defer rows.Close()

	var refs []loader.Ref
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan model document: %w", err)
		}
		refs = append(refs, loader.Ref{Name: name, Location: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model documents: %w", err)
	}
	return refs, nil
}

// Fetch returns the stored body verbatim. The column is json rather than
// jsonb so that key order survives.
func (r *DocumentRepository) Fetch(ctx context.Context, _ string, ref loader.Ref) ([]byte, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body::text FROM model_documents WHERE name = $1`, ref.Location).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrModelNotFound, "fetch model document", fmt.Errorf("model %q", ref.Name))
	}
	if err != nil {
		return nil, fmt.Errorf("fetch model document: %w", err)
	}
	return []byte(body), nil
}

// Save upserts the document stored under key, which is the model name with
// the .json extension.
func (r *DocumentRepository) Save(ctx context.Context, key string, data io.Reader) error {
	name, ok := loader.ModelName(key)
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "save model document", fmt.Errorf("key %q is not a .json name", key))
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read model document: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO model_documents (name, body, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		name, string(body), r.now())
	if err != nil {
		return fmt.Errorf("upsert model document: %w", err)
	}
	return nil
}
