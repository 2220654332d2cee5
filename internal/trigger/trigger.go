// Package trigger is the external collaborator internal/schedule's doc
// comment refers to: it owns a robfig/cron scheduler, refreshes it from
// the journal's enabled schedules, and fires each one into the Manager as
// a composite submission of kind scheduled_backup.
package trigger

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/mlapaglia/borgitory-go/internal/xlog"
)

var logger = xlog.New("trigger")

// Submitter is the narrow seam into the Manager this package depends on.
type Submitter interface {
	SubmitComposite(kind domain.Kind, repositoryID, scheduleID string, tasks []domain.TaskTemplate) (string, error)
}

// Journal is the narrow seam into the store this package depends on.
type Journal interface {
	DueSchedules() ([]store.ScheduleRow, error)
}

// Trigger owns a cron.Cron instance and keeps it in sync with the
// journal's enabled schedules, polling for additions/removals/edits on
// RefreshInterval since cron.Cron itself has no notion of "reload".
type Trigger struct {
	journal   Journal
	submitter Submitter
	interval  time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	stop    chan struct{}
	stopped chan struct{}
}

// New builds a Trigger that checks for schedule changes every interval.
func New(journal Journal, submitter Submitter, interval time.Duration) *Trigger {
	return &Trigger{
		journal:   journal,
		submitter: submitter,
		interval:  interval,
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Run rebuilds the cron schedule immediately, then again every interval,
// until Stop is called. Intended to run in its own goroutine.
func (t *Trigger) Run() {
	defer close(t.stopped)

	t.refresh()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.refresh()
		case <-t.stop:
			t.mu.Lock()
			if t.cron != nil {
				t.cron.Stop()
			}
			t.mu.Unlock()
			return
		}
	}
}

// Stop halts the Trigger and blocks until its goroutine has exited.
func (t *Trigger) Stop() {
	close(t.stop)
	<-t.stopped
}

// refresh replaces the running cron.Cron with a fresh one built from the
// journal's current enabled schedules. Rebuilding wholesale (rather than
// diffing entries) keeps this in step with schedule.ValidateCronExpr's
// contract: a row already in the journal is assumed to have a parseable
// expression, since that was checked at create time.
func (t *Trigger) refresh() {
	rows, err := t.journal.DueSchedules()
	if err != nil {
		logger.Printf("failed to load due schedules: %v", err)
		return
	}

	c := cron.New()
	for _, row := range rows {
		row := row
		if _, err := c.AddFunc(row.CronExpr, func() { t.fire(row) }); err != nil {
			logger.Printf("schedule %s has an unparseable cron expression %q: %v", row.ID, row.CronExpr, err)
		}
	}

	t.mu.Lock()
	old := t.cron
	t.cron = c
	t.mu.Unlock()
	c.Start()

	if old != nil {
		old.Stop()
	}
}

// fire submits row's task pipeline as a composite job (spec §3,
// "scheduled_backup" jobs come from a schedule's trigger).
func (t *Trigger) fire(row store.ScheduleRow) {
	jobID, err := t.submitter.SubmitComposite(domain.KindScheduledBackup, row.RepositoryID, row.ID, row.Tasks)
	if err != nil {
		logger.Printf("schedule %s failed to submit: %v", row.ID, err)
		return
	}
	logger.Printf("schedule %s fired job %s", row.ID, jobID)
}
