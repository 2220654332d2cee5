// Package store is the Database Journal: the narrow persistence interface
// the Job Manager depends on for job/task lifecycle rows and for resolving
// referenced repository/config rows at submit time (spec §4.E).
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite connection with journal-specific operations.
type Store struct {
	conn *sql.DB
}

// Open creates or opens a SQLite database at path, enabling WAL mode and
// foreign keys, and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: run migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS repositories (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL UNIQUE,
    path                 TEXT NOT NULL UNIQUE,
    passphrase_encrypted BLOB
);

CREATE TABLE IF NOT EXISTS schedules (
    id              TEXT PRIMARY KEY,
    cron_expr       TEXT NOT NULL,
    repository_id   TEXT NOT NULL REFERENCES repositories(id),
    enabled         INTEGER NOT NULL DEFAULT 1,
    tasks_json      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
    id                  TEXT PRIMARY KEY,
    kind                TEXT NOT NULL,
    status              TEXT NOT NULL,
    start_time          DATETIME,
    finish_time         DATETIME,
    return_code         INTEGER,
    error               TEXT,
    repository_id       TEXT REFERENCES repositories(id),
    schedule_id         TEXT REFERENCES schedules(id),
    composite           INTEGER NOT NULL DEFAULT 0,
    current_task_index  INTEGER NOT NULL DEFAULT 0,
    created_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
    job_id      TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    task_index  INTEGER NOT NULL,
    kind        TEXT NOT NULL,
    name        TEXT NOT NULL,
    status      TEXT NOT NULL,
    params_json TEXT,
    start_time  DATETIME,
    finish_time DATETIME,
    return_code INTEGER,
    error       TEXT,
    PRIMARY KEY (job_id, task_index)
);

CREATE TABLE IF NOT EXISTS configs (
    kind        TEXT NOT NULL,
    id          TEXT NOT NULL,
    fields_json TEXT NOT NULL,
    enabled     INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (kind, id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_schedule_id ON jobs(schedule_id);
CREATE INDEX IF NOT EXISTS idx_tasks_job_id ON tasks(job_id);
`

func (s *Store) migrate() error {
	_, err := s.conn.Exec(schema)
	return err
}
