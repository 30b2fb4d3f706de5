package store

import (
	"context"
	"database/sql"
)

var schemaV1 = []string{
	`
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  companies INTEGER NOT NULL,
  succeeded INTEGER NOT NULL,
  failed INTEGER NOT NULL,
  timed_out INTEGER NOT NULL,
  cancelled INTEGER NOT NULL,
  matches INTEGER NOT NULL,
  new_matches INTEGER NOT NULL DEFAULT 0
);`,
	`
CREATE TABLE IF NOT EXISTS outcomes (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  company TEXT NOT NULL,
  adapter TEXT NOT NULL,
  status TEXT NOT NULL,
  error_kind TEXT NOT NULL DEFAULT '',
  error_message TEXT NOT NULL DEFAULT '',
  elapsed_ms INTEGER NOT NULL,
  fetched INTEGER NOT NULL,
  duplicates INTEGER NOT NULL,
  PRIMARY KEY (run_id, position)
);`,
	`
CREATE TABLE IF NOT EXISTS matches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL,
  url TEXT NOT NULL,
  target TEXT NOT NULL,
  is_new INTEGER NOT NULL DEFAULT 0
);`,
	`
CREATE TABLE IF NOT EXISTS seen (
  company TEXT NOT NULL,
  posting_key TEXT NOT NULL,
  first_run_id TEXT NOT NULL,
  first_seen_at TEXT NOT NULL,
  last_seen_at TEXT NOT NULL,
  PRIMARY KEY (company, posting_key)
);`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	`CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id, position);`,
	`CREATE INDEX IF NOT EXISTS idx_seen_last_seen ON seen(last_seen_at);`,
}

// Migrate brings the schema to the latest version, tracked in
// PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	for _, stmt := range schemaV1 {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
	return v, err
}
