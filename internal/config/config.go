// Package config is the ambient, YAML-backed configuration for the core:
// queue caps, buffer sizes, cleanup delays, keepalive interval, and the
// borg/rclone binary paths (SPEC_FULL.md §1).
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the core reads at construction time.
// Immutable after Load returns (spec §5, "Configuration is immutable
// after construction").
type Config struct {
	// OutputBufferLines bounds the Output Buffer ring per job (spec §4.B).
	OutputBufferLines int `yaml:"output_buffer_lines"`

	// SubscriberQueueSize bounds each Broadcaster subscriber's channel
	// (spec §4.C).
	SubscriberQueueSize int `yaml:"subscriber_queue_size"`

	// KeepaliveInterval is how often the Broadcaster pushes a KEEPALIVE
	// event to an idle subscriber (spec §4.C).
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`

	// MaxConcurrentBackups and MaxConcurrentOperations are the Queue's
	// per-class concurrency caps (spec §4.D).
	MaxConcurrentBackups    int `yaml:"max_concurrent_backups"`
	MaxConcurrentOperations int `yaml:"max_concurrent_operations"`

	// QueuePollInterval is how often the Queue's poll loop checks for a
	// free slot (spec §4.D, default 100ms).
	QueuePollInterval time.Duration `yaml:"queue_poll_interval"`

	// AutoCleanupDelay is how long a terminal job stays in the in-memory
	// map before eviction (spec §3, Job lifecycle).
	AutoCleanupDelay time.Duration `yaml:"auto_cleanup_delay"`

	// ArchiveListTimeout bounds archive-listing helper calls (spec §5).
	ArchiveListTimeout time.Duration `yaml:"archive_list_timeout"`

	// JournalRetention is the configured lifetime of terminal job rows in
	// the journal; zero means keep forever. No sweep reads it, so rows are
	// kept whatever its value (spec §9 Open Questions — decision recorded
	// in DESIGN.md).
	JournalRetention time.Duration `yaml:"journal_retention"`

	// TerminateGrace is how long Terminate waits after a polite signal
	// before force-killing a child process (spec §4.A).
	TerminateGrace time.Duration `yaml:"terminate_grace"`

	// BorgBinary and RcloneBinary allow overriding the binary names
	// looked up on PATH.
	BorgBinary   string `yaml:"borg_binary"`
	RcloneBinary string `yaml:"rclone_binary"`

	// DatabasePath is where the SQLite journal file lives.
	DatabasePath string `yaml:"database_path"`
}

// Default returns a Config with every field set to the value named in
// SPEC_FULL.md §1.
func Default() *Config {
	return &Config{
		OutputBufferLines:       1000,
		SubscriberQueueSize:     100,
		KeepaliveInterval:       30 * time.Second,
		MaxConcurrentBackups:    2,
		MaxConcurrentOperations: 4,
		QueuePollInterval:       100 * time.Millisecond,
		AutoCleanupDelay:        30 * time.Second,
		ArchiveListTimeout:      120 * time.Second,
		JournalRetention:        0,
		TerminateGrace:          10 * time.Second,
		BorgBinary:              "borg",
		RcloneBinary:            "rclone",
		DatabasePath:            "~/.borgitory/borgitory.db",
	}
}

// Load reads configuration from ~/.borgitory/config.yaml, falling back to
// Default() if the file does not exist.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	return LoadFromPath(filepath.Join(homeDir, ".borgitory", "config.yaml"))
}

// LoadFromPath reads configuration from a specific path, overlaying it on
// top of Default(). A missing file is not an error.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rawConfig mirrors Config but with duration fields as strings, since
// yaml.v3 has no built-in notion of time.Duration (it would otherwise
// expect a bare integer nanosecond count, which defeats the point of a
// human-editable "30s" config file).
type rawConfig struct {
	OutputBufferLines      int    `yaml:"output_buffer_lines"`
	SubscriberQueueSize    int    `yaml:"subscriber_queue_size"`
	KeepaliveInterval      string `yaml:"keepalive_interval"`
	MaxConcurrentBackups   int    `yaml:"max_concurrent_backups"`
	MaxConcurrentOperations int   `yaml:"max_concurrent_operations"`
	QueuePollInterval      string `yaml:"queue_poll_interval"`
	AutoCleanupDelay       string `yaml:"auto_cleanup_delay"`
	ArchiveListTimeout     string `yaml:"archive_list_timeout"`
	JournalRetention       string `yaml:"journal_retention"`
	TerminateGrace         string `yaml:"terminate_grace"`
	BorgBinary             string `yaml:"borg_binary"`
	RcloneBinary           string `yaml:"rclone_binary"`
	DatabasePath           string `yaml:"database_path"`
}

// UnmarshalYAML lets Config be written in YAML with duration fields as
// plain strings ("30s", "2m") while keeping the in-memory type a proper
// time.Duration everywhere else in the core.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	raw := rawConfig{
		OutputBufferLines:       c.OutputBufferLines,
		SubscriberQueueSize:     c.SubscriberQueueSize,
		KeepaliveInterval:       c.KeepaliveInterval.String(),
		MaxConcurrentBackups:    c.MaxConcurrentBackups,
		MaxConcurrentOperations: c.MaxConcurrentOperations,
		QueuePollInterval:       c.QueuePollInterval.String(),
		AutoCleanupDelay:        c.AutoCleanupDelay.String(),
		ArchiveListTimeout:      c.ArchiveListTimeout.String(),
		JournalRetention:        c.JournalRetention.String(),
		TerminateGrace:          c.TerminateGrace.String(),
		BorgBinary:              c.BorgBinary,
		RcloneBinary:            c.RcloneBinary,
		DatabasePath:            c.DatabasePath,
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	c.OutputBufferLines = raw.OutputBufferLines
	c.SubscriberQueueSize = raw.SubscriberQueueSize
	c.MaxConcurrentBackups = raw.MaxConcurrentBackups
	c.MaxConcurrentOperations = raw.MaxConcurrentOperations
	c.BorgBinary = raw.BorgBinary
	c.RcloneBinary = raw.RcloneBinary
	c.DatabasePath = raw.DatabasePath

	var err error
	if c.KeepaliveInterval, err = parseDuration(raw.KeepaliveInterval, c.KeepaliveInterval); err != nil {
		return err
	}
	if c.QueuePollInterval, err = parseDuration(raw.QueuePollInterval, c.QueuePollInterval); err != nil {
		return err
	}
	if c.AutoCleanupDelay, err = parseDuration(raw.AutoCleanupDelay, c.AutoCleanupDelay); err != nil {
		return err
	}
	if c.ArchiveListTimeout, err = parseDuration(raw.ArchiveListTimeout, c.ArchiveListTimeout); err != nil {
		return err
	}
	if c.JournalRetention, err = parseDuration(raw.JournalRetention, c.JournalRetention); err != nil {
		return err
	}
	if c.TerminateGrace, err = parseDuration(raw.TerminateGrace, c.TerminateGrace); err != nil {
		return err
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
