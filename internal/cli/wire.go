package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlapaglia/borgitory-go/internal/archivetree"
	"github.com/mlapaglia/borgitory-go/internal/buffer"
	"github.com/mlapaglia/borgitory-go/internal/config"
	"github.com/mlapaglia/borgitory-go/internal/events"
	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/mlapaglia/borgitory-go/internal/manager"
	"github.com/mlapaglia/borgitory-go/internal/queue"
	"github.com/mlapaglia/borgitory-go/internal/store"
)

// Core holds every wired component of the Job Execution Core, the same
// set cmd/borgitoryd assembles, so borgctl exercises production wiring
// rather than a stand-in (SPEC_FULL.md §9, "replace global singletons").
type Core struct {
	Config       *config.Config
	Store        *store.Store
	Buffers      *buffer.Store
	Registry     *events.Registry
	Queue        *queue.Queue
	Manager      *manager.Manager
	Runner       executor.Runner
	ArchiveTrees *archivetree.Cache
}

// WireCore assembles a Core against cfg, opening (and migrating, if
// necessary) the SQLite journal at cfg.DatabasePath and starting the
// Queue's poll loop.
func WireCore(cfg *config.Config) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	dbPath, err := ExpandHome(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	bufs := buffer.NewStore(cfg.OutputBufferLines)
	registry := events.NewRegistry(cfg.SubscriberQueueSize, cfg.KeepaliveInterval)
	q := queue.New(queue.Config{
		BackupSlots:    cfg.MaxConcurrentBackups,
		OperationSlots: cfg.MaxConcurrentOperations,
		PollInterval:   cfg.QueuePollInterval,
	})
	runner := executor.OSRunner{}
	mgr := manager.New(cfg, s, q, bufs, registry, runner)
	q.Run()
	trees := archivetree.NewCache(runner)

	return &Core{
		Config:       cfg,
		Store:        s,
		Buffers:      bufs,
		Registry:     registry,
		Queue:        q,
		Manager:      mgr,
		Runner:       runner,
		ArchiveTrees: trees,
	}, nil
}

// Close stops the Queue's poll loop and closes the database connection.
func (c *Core) Close() error {
	c.Queue.Close()
	return c.Store.Close()
}

// ExpandHome resolves a leading "~" to the user's home directory, since
// config.Default's DatabasePath ships as "~/.borgitory/borgitory.db" and
// database/sql has no notion of shell tilde expansion.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
