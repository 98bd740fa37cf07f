package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore keeps one jsonb row per written path in the documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store. The documents table is
// created by database.Migrate.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	clean := Join(segs...)

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT path, body::text
		 FROM documents
		 WHERE path = ANY($1::text[])
		    OR path LIKE $2 ESCAPE '\'`,
		append(ancestors(segs), clean),
		escapeLike(clean)+"/%",
	)
	if err != nil {
		return nil, unavailable("GET", clean, err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		var body string
		if err := rows.Scan(&e.path, &body); err != nil {
			return nil, unavailable("GET", clean, fmt.Errorf("scan document: %w", err))
		}
		e.body = []byte(body)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("GET", clean, fmt.Errorf("iterate documents: %w", err))
	}

	return assemble(clean, entries)
}

func (s *PostgresStore) Put(ctx context.Context, path string, doc json.RawMessage) error {
	clean, err := Clean(path)
	if err != nil {
		return err
	}
	if !json.Valid(doc) {
		return fmt.Errorf("document for %s is not valid JSON", clean)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM documents WHERE path = $1 OR path LIKE $2 ESCAPE '\'`,
			clean,
			escapeLike(clean)+"/%",
		); err != nil {
			return fmt.Errorf("delete subtree: %w", err)
		}
		if isNull(doc) {
			return nil
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (path, body, updated_at) VALUES ($1, $2::jsonb, NOW())`,
			clean,
			string(doc),
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	})
	if err != nil {
		return unavailable("PUT", clean, err)
	}
	return nil
}

func (s *PostgresStore) Post(ctx context.Context, path string, doc json.RawMessage) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, Join(path, key), doc); err != nil {
		return "", err
	}
	return key, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to the caller.
func (s *PostgresStore) Close() error { return nil }

func isNull(doc json.RawMessage) bool {
	v, err := decode(doc)
	return err == nil && v == nil
}
