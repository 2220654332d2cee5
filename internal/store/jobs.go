package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/domain"
)

// JobSnapshot is the subset of a domain.Job persisted on creation; later
// mutations go through UpdateJobStatus and UpsertTaskRow.
type JobSnapshot struct {
	ID               string
	Kind             domain.Kind
	Status           domain.Status
	StartTime        time.Time
	RepositoryID     string
	ScheduleID       string
	Composite        bool
	CurrentTaskIndex int
	CreatedAt        time.Time
}

// CreateJobRow inserts a new job row (spec §4.E, create_job_row).
func (s *Store) CreateJobRow(j JobSnapshot) error {
	_, err := s.conn.Exec(`
		INSERT INTO jobs (id, kind, status, start_time, repository_id, schedule_id,
		                   composite, current_task_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, string(j.Kind), string(j.Status), nullTime(&j.StartTime),
		nullString(j.RepositoryID), nullString(j.ScheduleID),
		boolToInt(j.Composite), j.CurrentTaskIndex, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: create job row: %w", err)
	}
	return nil
}

// UpdateJobStatus updates a job's terminal/progress fields in place
// (spec §4.E, update_job_status). finishTime, returnCode, and errMsg may be
// nil/empty when not yet known.
func (s *Store) UpdateJobStatus(jobID string, status domain.Status, finishTime *time.Time, returnCode *int, errMsg string) error {
	_, err := s.conn.Exec(`
		UPDATE jobs SET status = ?, finish_time = ?, return_code = ?, error = ?
		WHERE id = ?`,
		string(status), nullTime(finishTime), nullInt(returnCode), nullString(errMsg), jobID,
	)
	if err != nil {
		return fmt.Errorf("store: update job status: %w", err)
	}
	return nil
}

// UpdateCurrentTaskIndex persists which task a running composite job is on.
func (s *Store) UpdateCurrentTaskIndex(jobID string, index int) error {
	_, err := s.conn.Exec(`UPDATE jobs SET current_task_index = ? WHERE id = ?`, index, jobID)
	if err != nil {
		return fmt.Errorf("store: update current task index: %w", err)
	}
	return nil
}

// TaskSnapshot is the persisted shape of one task row.
type TaskSnapshot struct {
	Kind       domain.TaskKind
	Name       string
	Status     domain.Status
	Params     map[string]any
	StartTime  *time.Time
	FinishTime *time.Time
	ReturnCode *int
	Error      string
}

// UpsertTaskRow writes or replaces the row for (jobID, taskIndex)
// (spec §4.E, upsert_task_row).
func (s *Store) UpsertTaskRow(jobID string, taskIndex int, t TaskSnapshot) error {
	paramsJSON, err := json.Marshal(t.Params)
	if err != nil {
		return fmt.Errorf("store: marshal task params: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO tasks (job_id, task_index, kind, name, status, params_json,
		                    start_time, finish_time, return_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, task_index) DO UPDATE SET
			status = excluded.status,
			start_time = excluded.start_time,
			finish_time = excluded.finish_time,
			return_code = excluded.return_code,
			error = excluded.error`,
		jobID, taskIndex, string(t.Kind), t.Name, string(t.Status), string(paramsJSON),
		nullTime(t.StartTime), nullTime(t.FinishTime), nullInt(t.ReturnCode), nullString(t.Error),
	)
	if err != nil {
		return fmt.Errorf("store: upsert task row: %w", err)
	}
	return nil
}

// ConfigFields is an opaque bag of config values loaded by kind+id and
// expanded into task parameters at submit time (spec §4.E, load_config).
type ConfigFields map[string]any

// LoadConfig looks up a reusable pipeline-step config by kind and id.
// Returns domain.ErrNotFound if it doesn't exist or is disabled.
func (s *Store) LoadConfig(kind, id string) (ConfigFields, error) {
	var fieldsJSON string
	var enabled int
	err := s.conn.QueryRow(`SELECT fields_json, enabled FROM configs WHERE kind = ? AND id = ?`, kind, id).
		Scan(&fieldsJSON, &enabled)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load config: %w", err)
	}
	if enabled == 0 {
		return nil, domain.ErrNotFound
	}
	var fields ConfigFields
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("store: unmarshal config fields: %w", err)
	}
	return fields, nil
}

// RepositoryRecord is what load_repository hands back: the repository's
// identity plus its passphrase in clear form.
type RepositoryRecord struct {
	Name            string
	Path            string
	PassphraseClear string
}

// LoadRepository resolves a repository id to its name, path, and decrypted
// passphrase (spec §4.E, load_repository). Actual encryption-at-rest is an
// external collaborator's concern (spec §1, out of scope); this store
// treats the blob as opaque bytes already suitable for direct use as the
// passphrase, deferring to whatever wrote the row to have encoded it.
func (s *Store) LoadRepository(id string) (*RepositoryRecord, error) {
	var name, path string
	var blob []byte
	err := s.conn.QueryRow(`SELECT name, path, passphrase_encrypted FROM repositories WHERE id = ?`, id).
		Scan(&name, &path, &blob)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: load repository: %w", err)
	}
	return &RepositoryRecord{Name: name, Path: path, PassphraseClear: string(blob)}, nil
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
