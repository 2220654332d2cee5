// Command borgitoryd is the daemon entrypoint: it wires a single Core
// (the Job Execution Core's Manager/Queue/Store/Buffer/Registry stack)
// and the cron-backed schedule Trigger loop, then blocks until SIGINT or
// SIGTERM. It exposes no HTTP or gRPC surface — operators inspect and
// drive it through borgctl against the same database file (SPEC_FULL.md
// §1, "borgitoryd ... no HTTP/gRPC surface (out of scope)").
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/cli"
	"github.com/mlapaglia/borgitory-go/internal/config"
	"github.com/mlapaglia/borgitory-go/internal/pidfile"
	"github.com/mlapaglia/borgitory-go/internal/trigger"
	"github.com/mlapaglia/borgitory-go/internal/xlog"
)

var logger = xlog.New("borgitoryd")

// scheduleRefreshInterval bounds how stale the Trigger's view of the
// journal's enabled schedules can get; schedule add/remove/disable made
// through borgctl is picked up within this window.
const scheduleRefreshInterval = 30 * time.Second

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "borgitoryd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger.Printf("%s (%s, %s) starting", version, commit, date)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath, err := cli.ExpandHome(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	pidPath := filepath.Join(filepath.Dir(dbPath), "borgitoryd.pid")
	if dir := filepath.Dir(pidPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	pf := pidfile.New(pidPath)
	if err := pf.Acquire(); err != nil {
		return err
	}
	defer pf.Release()

	core, err := cli.WireCore(cfg)
	if err != nil {
		return fmt.Errorf("wire core: %w", err)
	}
	defer core.Close()

	trig := trigger.New(core.Store, core.Manager, scheduleRefreshInterval)
	go trig.Run()

	_, cancel := context.WithCancel(context.Background())
	handler := cli.NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		trig.Stop()
	})
	handler.Start()
	defer handler.Stop()

	logger.Printf("ready, database %s", dbPath)
	handler.Wait()
	logger.Println("shutting down")
	return nil
}
