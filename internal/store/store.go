// Package store keeps small local state for the terminal board in a SQLite
// file under the config dir. Everything in it is best effort: callers treat a
// missing or unreadable store as empty.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const dbFileName = "ui_state.sqlite"

type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) Path() string {
	return filepath.Join(s.Dir, dbFileName)
}

// Enabled reports whether the store has somewhere to live.
func (s Store) Enabled() bool {
	return strings.TrimSpace(s.Dir) != ""
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		return nil, err
	}
	// A TUI and CLI runs may share the file; busy_timeout avoids "database is locked".
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ui_state (
			project_id TEXT PRIMARY KEY,
			selected_status TEXT NOT NULL DEFAULT '',
			selected_task_id INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}
