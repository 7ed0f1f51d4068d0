package ml

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// keptArtifacts is how many superseded artifacts SQLiteStore retains.
const keptArtifacts = 5

// SQLiteStore keeps both halves of an artifact in one row, written and
// marked current inside a single transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS artifacts (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			model      BLOB NOT NULL,
			encoders   BLOB NOT NULL,
			is_current INTEGER NOT NULL DEFAULT 0
		)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
	}
	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Describe() string { return "sqlite:" + s.path }

func (s *SQLiteStore) Save(ctx context.Context, a *Artifact) error {
	model, encoders, err := encodeArtifact(a)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE artifacts SET is_current = 0 WHERE is_current = 1"); err != nil {
		return fmt.Errorf("sqlite: clear current: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO artifacts (id, created_at, model, encoders, is_current) VALUES (?, ?, ?, ?, 1)",
		a.ID, time.Now().UTC().Format(time.RFC3339Nano), model, encoders,
	); err != nil {
		return fmt.Errorf("sqlite: insert artifact: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM artifacts WHERE is_current = 0 AND id NOT IN (
			SELECT id FROM artifacts WHERE is_current = 0 ORDER BY created_at DESC LIMIT ?
		)`, keptArtifacts); err != nil {
		return fmt.Errorf("sqlite: prune artifacts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*Artifact, error) {
	var model, encoders []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT model, encoders FROM artifacts WHERE is_current = 1 LIMIT 1",
	).Scan(&model, &encoders)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: load artifact: %w", err)
	}
	return decodeArtifact(model, encoders)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
