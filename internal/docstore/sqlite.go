package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);`

// SQLiteStore is an embedded single-file backend, handy for local runs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := Split(path)
	if err != nil {
		return nil, err
	}
	clean := Join(segs...)

	exact := append(ancestors(segs), clean)
	args := make([]any, 0, len(exact)+1)
	for _, p := range exact {
		args = append(args, p)
	}
	args = append(args, escapeLike(clean)+"/%")
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(exact)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, body FROM documents
		 WHERE path IN (`+placeholders+`) OR path LIKE ? ESCAPE '\'`,
		args...,
	)
	if err != nil {
		return nil, unavailable("GET", clean, err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *SQLiteStore) Put(ctx context.Context, path string, doc json.RawMessage) error {
	clean, err := Clean(path)
	if err != nil {
		return err
	}
	if !json.Valid(doc) {
		return fmt.Errorf("document for %s is not valid JSON", clean)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("PUT", clean, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		clean, escapeLike(clean)+"/%",
	); err != nil {
		return unavailable("PUT", clean, fmt.Errorf("delete subtree: %w", err))
	}
	if !isNull(doc) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (path, body) VALUES (?, ?)`,
			clean, string(doc),
		); err != nil {
			return unavailable("PUT", clean, fmt.Errorf("insert document: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("PUT", clean, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *SQLiteStore) Post(ctx context.Context, path string, doc json.RawMessage) (string, error) {
	key, err := NewKey()
	if err != nil {
		return "", err
	}
	if err := s.Put(ctx, Join(path, key), doc); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
