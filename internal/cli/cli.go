// Package cli implements borgctl: an operator debug CLI that wires its own
// in-process Core (the same Manager/Queue/Store/Buffer/Registry stack the
// daemon runs) against the configured database and issues one-shot
// operations against it — submit, cancel, status, watch, repository and
// schedule management (SPEC_FULL.md, cmd/borgctl).
package cli

import (
	"fmt"

	"github.com/mlapaglia/borgitory-go/internal/config"
	"github.com/spf13/cobra"
)

// App holds the root cobra command plus the few cross-cutting flags every
// subcommand reads (verbosity, the database path to wire against).
type App struct {
	rootCmd *cobra.Command

	dbPath  string
	verbose bool

	version, commit, date string
}

// New constructs the borgctl command tree.
func New() *App {
	a := &App{}
	a.setupRootCmd()
	return a
}

// Execute runs the CLI, dispatching to whichever subcommand the operator
// invoked.
func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetVersion records build-time version metadata shown by the version
// command.
func (a *App) SetVersion(version, commit, date string) {
	a.version, a.commit, a.date = version, commit, date
}

func (a *App) setupRootCmd() {
	a.rootCmd = &cobra.Command{
		Use:   "borgctl",
		Short: "Operator debug CLI for the Borgitory job execution core",
		Long: `borgctl submits, watches, and cancels backup/prune/check/cloud-sync
jobs against a Borgitory database, and manages the repositories and
schedules it references.

Each invocation wires its own in-process core against --db; it does not
speak to a separately running borgitoryd over a network or IPC socket, so
"watch", "events", and "cancel" only see jobs submitted by the same
invocation (use "jobs" and "status" to inspect the journal across process
boundaries).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	a.rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Path to the Borgitory SQLite database (default: config default)")
	a.rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	a.rootCmd.AddCommand(
		NewSubmitCmd(a),
		NewJobsCmd(a),
		NewStatusCmd(a),
		NewWatchCmd(a),
		NewEventsCmd(a),
		NewCancelCmd(a),
		NewQueueStatsCmd(a),
		NewRepoCmd(a),
		NewScheduleCmd(a),
		NewVersionCmd(a),
	)
}

// loadConfig resolves the Config this invocation wires its core against,
// overriding DatabasePath with --db when set.
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.DatabasePath = a.dbPath
	}
	return cfg, nil
}
