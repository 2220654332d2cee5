package store

import (
	"testing"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedRepository(t *testing.T, s *Store, id string) {
	t.Helper()
	_, err := s.conn.Exec(`INSERT INTO repositories (id, name, path, passphrase_encrypted) VALUES (?, ?, ?, ?)`,
		id, "repo-"+id, "/data/"+id, []byte("hunter2"))
	require.NoError(t, err)
}

func TestStore_CreateJobRowThenUpdateStatus(t *testing.T) {
	s := openTestStore(t)
	seedRepository(t, s, "repo-1")

	now := time.Now().UTC().Truncate(time.Second)
	err := s.CreateJobRow(JobSnapshot{
		ID:           "job-1",
		Kind:         domain.KindManualBackup,
		Status:       domain.StatusRunning,
		StartTime:    now,
		RepositoryID: "repo-1",
		CreatedAt:    now,
	})
	require.NoError(t, err)

	finish := now.Add(time.Minute)
	rc := 0
	err = s.UpdateJobStatus("job-1", domain.StatusCompleted, &finish, &rc, "")
	assert.NoError(t, err)
}

func TestStore_UpsertTaskRow_InsertThenUpdate(t *testing.T) {
	s := openTestStore(t)
	seedRepository(t, s, "repo-1")
	require.NoError(t, s.CreateJobRow(JobSnapshot{ID: "job-1", RepositoryID: "repo-1", CreatedAt: time.Now()}))

	err := s.UpsertTaskRow("job-1", 0, TaskSnapshot{
		Kind:   domain.TaskBackup,
		Name:   "backup source",
		Status: domain.StatusRunning,
		Params: map[string]any{"source_path": "/data"},
	})
	require.NoError(t, err)

	rc := 0
	err = s.UpsertTaskRow("job-1", 0, TaskSnapshot{
		Kind:       domain.TaskBackup,
		Name:       "backup source",
		Status:     domain.StatusCompleted,
		Params:     map[string]any{"source_path": "/data"},
		ReturnCode: &rc,
	})
	assert.NoError(t, err)
}

func TestStore_LoadRepository_Found(t *testing.T) {
	s := openTestStore(t)
	seedRepository(t, s, "repo-1")

	rec, err := s.LoadRepository("repo-1")
	require.NoError(t, err)
	assert.Equal(t, "repo-repo-1", rec.Name)
	assert.Equal(t, "/data/repo-1", rec.Path)
	assert.Equal(t, "hunter2", rec.PassphraseClear)
}

func TestStore_LoadRepository_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.LoadRepository("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LoadConfig_DisabledIsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.conn.Exec(`INSERT INTO configs (kind, id, fields_json, enabled) VALUES (?, ?, ?, ?)`,
		"cloud_sync", "cfg-1", `{"bucket":"backups"}`, 0)
	require.NoError(t, err)

	_, err = s.LoadConfig("cloud_sync", "cfg-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_LoadConfig_Enabled(t *testing.T) {
	s := openTestStore(t)
	_, err := s.conn.Exec(`INSERT INTO configs (kind, id, fields_json, enabled) VALUES (?, ?, ?, ?)`,
		"cloud_sync", "cfg-1", `{"bucket":"backups"}`, 1)
	require.NoError(t, err)

	fields, err := s.LoadConfig("cloud_sync", "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "backups", fields["bucket"])
}
