package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesSpecValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1000, cfg.OutputBufferLines)
	assert.Equal(t, 100, cfg.SubscriberQueueSize)
	assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.QueuePollInterval)
	assert.Equal(t, 30*time.Second, cfg.AutoCleanupDelay)
	assert.Equal(t, 120*time.Second, cfg.ArchiveListTimeout)
	assert.Equal(t, time.Duration(0), cfg.JournalRetention)
}

func TestLoadFromPath_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromPath_OverlaysProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "max_concurrent_backups: 5\nkeepalive_interval: 45s\nborg_binary: /usr/local/bin/borg\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxConcurrentBackups)
	assert.Equal(t, 45*time.Second, cfg.KeepaliveInterval)
	assert.Equal(t, "/usr/local/bin/borg", cfg.BorgBinary)
	// Unset fields keep their defaults.
	assert.Equal(t, 1000, cfg.OutputBufferLines)
	assert.Equal(t, 4, cfg.MaxConcurrentOperations)
}

func TestLoadFromPath_InvalidDurationErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keepalive_interval: not-a-duration\n"), 0o644))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}
