package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mlapaglia/borgitory-go/internal/domain"
)

// CreateRepository inserts a new repository row. passphrase is stored as
// the opaque blob LoadRepository later hands back verbatim; encrypting it
// at rest is an external collaborator's concern (spec §1, out of scope).
func (s *Store) CreateRepository(id, name, path, passphrase string) error {
	_, err := s.conn.Exec(`
		INSERT INTO repositories (id, name, path, passphrase_encrypted)
		VALUES (?, ?, ?, ?)`,
		id, name, path, []byte(passphrase),
	)
	if err != nil {
		return fmt.Errorf("store: create repository: %w", err)
	}
	return nil
}

// RepositoryRow is one listed repository, without the decrypted passphrase
// (spec §4.H debug surface: operators list repositories without needing to
// see their secrets).
type RepositoryRow struct {
	ID   string
	Name string
	Path string
}

// ListRepositories returns every registered repository ordered by name.
func (s *Store) ListRepositories() ([]RepositoryRow, error) {
	rows, err := s.conn.Query(`SELECT id, name, path FROM repositories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list repositories: %w", err)
	}
	defer rows.Close()

	var out []RepositoryRow
	for rows.Next() {
		var r RepositoryRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Path); err != nil {
			return nil, fmt.Errorf("store: scan repository row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateSchedule inserts a new schedule row. tasks is the pipeline
// template fired on each trigger, persisted as JSON (spec §3, Schedule).
func (s *Store) CreateSchedule(id, cronExpr, repositoryID string, enabled bool, tasks []domain.TaskTemplate) error {
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("store: marshal schedule tasks: %w", err)
	}
	_, err = s.conn.Exec(`
		INSERT INTO schedules (id, cron_expr, repository_id, enabled, tasks_json)
		VALUES (?, ?, ?, ?, ?)`,
		id, cronExpr, repositoryID, boolToInt(enabled), string(tasksJSON),
	)
	if err != nil {
		return fmt.Errorf("store: create schedule: %w", err)
	}
	return nil
}

// ScheduleRow is one persisted Schedule.
type ScheduleRow struct {
	ID           string
	CronExpr     string
	RepositoryID string
	Enabled      bool
	Tasks        []domain.TaskTemplate
}

// ListSchedules returns every schedule ordered by id.
func (s *Store) ListSchedules() ([]ScheduleRow, error) {
	rows, err := s.conn.Query(`SELECT id, cron_expr, repository_id, enabled, tasks_json FROM schedules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: list schedules: %w", err)
	}
	defer rows.Close()

	var out []ScheduleRow
	for rows.Next() {
		var r ScheduleRow
		var enabled int
		var tasksJSON string
		if err := rows.Scan(&r.ID, &r.CronExpr, &r.RepositoryID, &enabled, &tasksJSON); err != nil {
			return nil, fmt.Errorf("store: scan schedule row: %w", err)
		}
		r.Enabled = enabled != 0
		if err := json.Unmarshal([]byte(tasksJSON), &r.Tasks); err != nil {
			return nil, fmt.Errorf("store: unmarshal schedule tasks: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DueSchedules returns every enabled schedule, for the daemon's trigger
// loop to evaluate against the cron expression itself (spec §1: the cron
// engine is an external collaborator; this is the narrow read it needs).
func (s *Store) DueSchedules() ([]ScheduleRow, error) {
	all, err := s.ListSchedules()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out, nil
}

// JobRow is a job's persisted lifecycle row, read back across process
// boundaries (spec §4.E): unlike Manager.Get, this works for jobs
// submitted by a different borgctl/borgitoryd invocation since it reads
// the journal directly instead of in-memory state.
type JobRow struct {
	ID               string
	Kind             domain.Kind
	Status           domain.Status
	RepositoryID     string
	ScheduleID       string
	Composite        bool
	CurrentTaskIndex int
	ReturnCode       *int
	Error            string
}

// ListJobRows returns jobs ordered newest-first, optionally filtered to
// the given statuses (spec §8 debug CLI: "jobs --status=...").
func (s *Store) ListJobRows(statuses []domain.Status) ([]JobRow, error) {
	query := `SELECT id, kind, status, repository_id, schedule_id, composite,
	                 current_task_index, return_code, error
	          FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := ""
		for i, st := range statuses {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += "?"
			args = append(args, string(st))
		}
		query += " WHERE status IN (" + placeholders + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list job rows: %w", err)
	}
	defer rows.Close()

	var out []JobRow
	for rows.Next() {
		var r JobRow
		var kind, status string
		var repositoryID, scheduleID sql.NullString
		var composite int
		var returnCode sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &kind, &status, &repositoryID, &scheduleID,
			&composite, &r.CurrentTaskIndex, &returnCode, &errMsg); err != nil {
			return nil, fmt.Errorf("store: scan job row: %w", err)
		}
		r.Kind = domain.Kind(kind)
		r.Status = domain.Status(status)
		r.RepositoryID = repositoryID.String
		r.ScheduleID = scheduleID.String
		r.Composite = composite != 0
		if returnCode.Valid {
			rc := int(returnCode.Int64)
			r.ReturnCode = &rc
		}
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// TaskRow is a task's persisted lifecycle row.
type TaskRow struct {
	TaskIndex  int
	Kind       domain.TaskKind
	Name       string
	Status     domain.Status
	ReturnCode *int
	Error      string
}

// ListTaskRows returns jobID's tasks ordered by index.
func (s *Store) ListTaskRows(jobID string) ([]TaskRow, error) {
	rows, err := s.conn.Query(`
		SELECT task_index, kind, name, status, return_code, error
		FROM tasks WHERE job_id = ? ORDER BY task_index`, jobID)
	if err != nil {
		return nil, fmt.Errorf("store: list task rows: %w", err)
	}
	defer rows.Close()

	var out []TaskRow
	for rows.Next() {
		var r TaskRow
		var kind, name, status string
		var returnCode sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&r.TaskIndex, &kind, &name, &status, &returnCode, &errMsg); err != nil {
			return nil, fmt.Errorf("store: scan task row: %w", err)
		}
		r.Kind = domain.TaskKind(kind)
		r.Name = name
		r.Status = domain.Status(status)
		if returnCode.Valid {
			rc := int(returnCode.Int64)
			r.ReturnCode = &rc
		}
		r.Error = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}
