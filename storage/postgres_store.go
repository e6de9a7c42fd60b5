package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"villa-importer/utils"
)

// PostgresStore persists documents as JSONB rows keyed by (collection, id).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := NewPostgresStoreFromDB(db)
	if err := ps.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

// NewPostgresStoreFromDB wraps an existing handle without migrating.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the documents table if it does not exist.
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection  TEXT        NOT NULL,
			id          TEXT        NOT NULL,
			data        JSONB       NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data);
	`)
	return err
}

func (ps *PostgresStore) NewBatch(collection string) WriteBatch {
	return &postgresBatch{db: ps.db, collection: collection}
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

type postgresBatch struct {
	db         *sql.DB
	collection string
	ids        []string
	docs       []map[string]any
}

func (b *postgresBatch) Set(id string, fields map[string]any) {
	b.ids = append(b.ids, id)
	b.docs = append(b.docs, fields)
}

// Commit upserts every staged document in one multi-row statement inside a
// transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	if len(b.ids) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(b.ids))
	valueArgs := make([]interface{}, 0, len(b.ids)*4)

	now := time.Now().UTC()
	for idx := range b.ids {
		data, err := json.Marshal(b.docs[idx])
		if err != nil {
			return fmt.Errorf("postgres: marshal %q: %w", b.ids[idx], err)
		}
		base := idx * 4
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		valueArgs = append(valueArgs, b.collection, b.ids[idx], string(data), now)
	}

	query := fmt.Sprintf(`
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES %s
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`, strings.Join(valueStrings, ","))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("postgres: upsert batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}
