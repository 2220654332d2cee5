package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTaskParams_Backup_OK(t *testing.T) {
	err := ValidateTaskParams(TaskBackup, map[string]any{
		"source_path": "/data",
		"compression": "zstd",
	})
	assert.NoError(t, err)
}

func TestValidateTaskParams_Backup_Missing(t *testing.T) {
	err := ValidateTaskParams(TaskBackup, map[string]any{"source_path": "/data"})
	assert.ErrorIs(t, err, ErrSubmit)
}

func TestValidateTaskParams_Prune_NoRetention(t *testing.T) {
	err := ValidateTaskParams(TaskPrune, map[string]any{"dry_run": true})
	assert.ErrorIs(t, err, ErrSubmit)
}

func TestValidateTaskParams_Prune_KeepWithinDays(t *testing.T) {
	err := ValidateTaskParams(TaskPrune, map[string]any{"keep_within_days": 7})
	assert.NoError(t, err)
}

func TestValidateTaskParams_Prune_KeepDaily(t *testing.T) {
	err := ValidateTaskParams(TaskPrune, map[string]any{"keep_daily": 7})
	assert.NoError(t, err)
}

func TestValidateTaskParams_UnknownKind(t *testing.T) {
	err := ValidateTaskParams(TaskKind("bogus"), nil)
	assert.ErrorIs(t, err, ErrSubmit)
}

func TestValidateTaskParams_Notification_OK(t *testing.T) {
	err := ValidateTaskParams(TaskNotification, map[string]any{
		"notification_config_id": "cfg-1",
		"notify_on_success":      true,
		"notify_on_failure":      false,
	})
	assert.NoError(t, err)
}
