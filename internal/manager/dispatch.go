package manager

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mlapaglia/borgitory-go/internal/borgcmd"
	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/events"
	"github.com/mlapaglia/borgitory-go/internal/executor"
	"github.com/mlapaglia/borgitory-go/internal/queue"
	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/mlapaglia/borgitory-go/internal/xlog"
)

var logger = xlog.New("manager")

// onQueueStart is the Queue's StartCallback: it flips jobID from queued to
// running and launches the goroutine that drives its task pipeline to
// completion (spec §4.D wiring, §4.F "one goroutine per running job").
func (m *Manager) onQueueStart(jobID string, class queue.Class) {
	m.mu.Lock()
	rj, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if rj.cancelled {
		m.mu.Unlock()
		m.finishTerminal(jobID, domain.StatusCancelled, nil, "cancelled before start")
		m.queue.Release(jobID, class, false)
		return
	}
	now := time.Now()
	rj.job.Status = domain.StatusRunning
	rj.job.StartTime = now
	ctx, cancel := context.WithCancel(context.Background())
	rj.cancel = cancel
	m.mu.Unlock()

	_ = m.journal.UpdateJobStatus(jobID, domain.StatusRunning, nil, nil, "")
	rj.broadcaster.Publish(events.New(events.JobStarted, jobID).WithStatus(string(domain.StatusRunning)))

	go m.runJob(ctx, jobID)
}

// onQueueComplete is the Queue's CompleteCallback; the Manager only uses it
// to know a slot has been freed, which is already implied by Release's
// caller — kept as a no-op seam for future metrics.
func (m *Manager) onQueueComplete(jobID string, class queue.Class, success bool) {}

// runJob executes every task of jobID in order, stopping at the first
// failure (spec §3, "composite short-circuit"), then records the job's
// final status and schedules cleanup.
func (m *Manager) runJob(ctx context.Context, jobID string) {
	m.mu.RLock()
	rj := m.jobs[jobID]
	m.mu.RUnlock()
	job := rj.job

	finalStatus := domain.StatusCompleted
	failIdx := -1

	for i, task := range job.Tasks {
		select {
		case <-ctx.Done():
			m.markRemainingSkipped(jobID, i, true)
			finalStatus = domain.StatusCancelled
			goto done
		default:
		}

		m.mu.Lock()
		job.CurrentTaskIndex = i
		task.Status = domain.StatusRunning
		started := time.Now()
		task.StartTime = &started
		m.mu.Unlock()
		_ = m.journal.UpdateCurrentTaskIndex(jobID, i)
		_ = m.journal.UpsertTaskRow(jobID, i, taskSnapshot(task))
		rj.broadcaster.Publish(events.New(events.TaskStarted, jobID).WithTask(i))

		rc, taskErr := m.executeTask(ctx, jobID, i, rj, job, task)

		finished := time.Now()
		m.mu.Lock()
		task.FinishTime = &finished
		task.ReturnCode = &rc
		if taskErr != nil {
			task.Error = taskErr.Error()
		}
		switch {
		case ctx.Err() == context.Canceled:
			task.Status = domain.StatusCancelled
		case taskErr != nil || rc != 0:
			task.Status = domain.StatusFailed
		default:
			task.Status = domain.StatusCompleted
		}
		status := task.Status
		m.mu.Unlock()
		_ = m.journal.UpsertTaskRow(jobID, i, taskSnapshot(task))

		if status == domain.StatusFailed {
			logger.Printf("job %s task %d (%s) failed: %v", jobID, i, task.Name, taskErr)
			rj.broadcaster.Publish(events.New(events.TaskFailed, jobID).WithTask(i).WithError(taskErr))
			failIdx = i
			finalStatus = domain.StatusFailed
			m.markRemainingSkipped(jobID, i+1, false)
			goto done
		}
		if status == domain.StatusCancelled {
			finalStatus = domain.StatusCancelled
			m.markRemainingSkipped(jobID, i+1, true)
			goto done
		}
		rj.broadcaster.Publish(events.New(events.TaskCompleted, jobID).WithTask(i))
	}

done:
	var rc *int
	var errMsg string
	if failIdx >= 0 {
		failed := job.Tasks[failIdx]
		rc = failed.ReturnCode
		errMsg = fmt.Sprintf("task %d (%s) failed: %s", failIdx, failed.Name, failed.Error)
	}
	m.finishTerminal(jobID, finalStatus, rc, errMsg)
	m.queue.Release(jobID, classFor(job.Kind), finalStatus == domain.StatusCompleted)
}

// markRemainingSkipped flips every task from startIdx onward to Skipped
// (spec §3, "remaining tasks after a failure become skipped"). cancelled
// is not used: a cancel-triggered skip and a failure-triggered one are
// recorded identically, in memory and in the journal row.
func (m *Manager) markRemainingSkipped(jobID string, startIdx int, cancelled bool) {
	m.mu.Lock()
	rj, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}
	tasks := rj.job.Tasks
	toSkip := make([]int, 0, len(tasks)-startIdx)
	for i := startIdx; i < len(tasks); i++ {
		if tasks[i].Status == domain.StatusPending {
			tasks[i].Status = domain.StatusSkipped
			toSkip = append(toSkip, i)
		}
	}
	m.mu.Unlock()
	for _, i := range toSkip {
		_ = m.journal.UpsertTaskRow(jobID, i, store.TaskSnapshot{Kind: tasks[i].Kind, Name: tasks[i].Name, Status: domain.StatusSkipped, Params: tasks[i].Params})
	}
}

func taskSnapshot(t *domain.Task) store.TaskSnapshot {
	var rc *int
	if t.ReturnCode != nil {
		v := *t.ReturnCode
		rc = &v
	}
	return store.TaskSnapshot{
		Kind: t.Kind, Name: t.Name, Status: t.Status, Params: t.Params,
		StartTime: t.StartTime, FinishTime: t.FinishTime, ReturnCode: rc, Error: t.Error,
	}
}

// finishTerminal records jobID's terminal status in memory and the
// journal, publishes the matching lifecycle event, and schedules the
// in-memory map eviction after the configured delay (spec §3, §4.F).
func (m *Manager) finishTerminal(jobID string, status domain.Status, returnCode *int, errMsg string) {
	m.mu.Lock()
	rj, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return
	}
	now := time.Now()
	rj.job.Status = status
	rj.job.FinishTime = &now
	rj.job.ReturnCode = returnCode
	rj.job.Error = errMsg
	m.mu.Unlock()

	_ = m.journal.UpdateJobStatus(jobID, status, &now, returnCode, errMsg)

	var evtType events.Type
	switch status {
	case domain.StatusCompleted:
		evtType = events.JobCompleted
	case domain.StatusCancelled:
		evtType = events.JobCancelled
	default:
		evtType = events.JobFailed
	}
	rj.broadcaster.Publish(events.New(evtType, jobID).WithStatus(string(status)))

	logger.Printf("job %s finished: %s", jobID, status)
	time.AfterFunc(m.cfg.AutoCleanupDelay, func() { m.cleanup(jobID) })
}

// cleanup evicts jobID from the in-memory map, releases its Output Buffer
// and tears down its Broadcaster, once the caller no longer needs live
// status (spec §3, "auto-cleanup after AutoCleanupDelay").
func (m *Manager) cleanup(jobID string) {
	m.mu.Lock()
	delete(m.jobs, jobID)
	m.mu.Unlock()
	m.buffers.Clear(jobID)
	m.registry.Close(jobID)
}

// executeTask dispatches a single task to its command builder, streams
// output into the buffer and broadcaster, and returns the child's exit
// code. A borg-flavoured task that fails because of a stale lock is
// retried exactly once after `borg break-lock` (supplemented from the
// original implementation's lock-recovery path).
func (m *Manager) executeTask(ctx context.Context, jobID string, idx int, rj *runningJob, job *domain.Job, task *domain.Task) (int, error) {
	repo, err := m.repoFor(job.RepositoryID)
	if err != nil {
		return -1, err
	}

	argv, env, err := m.buildCommand(task, repo)
	if err != nil {
		return -1, err
	}

	rc, runErr := m.runAndStream(ctx, jobID, idx, rj, argv, env)
	if runErr == nil && rc != 0 && isLockableTask(task.Kind) && isStaleLockExit(rc) {
		breakArgv := borgcmd.Builder{}.BreakLock(repo.Path)
		_, _ = m.runAndStream(ctx, jobID, idx, rj, breakArgv, borgcmd.Builder{}.Env(repo.PassphraseClear))
		rc, runErr = m.runAndStream(ctx, jobID, idx, rj, argv, env)
	}
	return rc, runErr
}

func isLockableTask(k domain.TaskKind) bool {
	switch k {
	case domain.TaskBackup, domain.TaskPrune, domain.TaskCheck:
		return true
	default:
		return false
	}
}

// isStaleLockExit reports whether rc is Borg's "repository already locked"
// exit code (2 is Borg's generic error status; the lock message itself is
// only visible in the output stream, so the retry is attempted for any
// generic failure of a lockable task and costs nothing if the repository
// wasn't actually locked).
func isStaleLockExit(rc int) bool { return rc == 2 }

func (m *Manager) repoFor(repositoryID string) (*store.RepositoryRecord, error) {
	if repositoryID == "" {
		return &store.RepositoryRecord{}, nil
	}
	return m.journal.LoadRepository(repositoryID)
}

func (m *Manager) buildCommand(task *domain.Task, repo *store.RepositoryRecord) (argv []string, env map[string]string, err error) {
	b := borgcmd.Builder{}
	switch task.Kind {
	case domain.TaskBackup:
		archive, _ := task.Params["archive_name"].(string)
		if archive == "" {
			archive = borgcmd.ArchiveName(time.Now())
		}
		source, _ := task.Params["source_path"].(string)
		compression, _ := task.Params["compression"].(string)
		dryRun, _ := task.Params["dry_run"].(bool)
		return b.Backup(borgcmd.BackupOptions{
			RepoPath: repo.Path, ArchiveName: archive, SourcePath: source,
			Compression: compression, DryRun: dryRun,
		}), b.Env(repo.PassphraseClear), nil

	case domain.TaskPrune:
		// show_list/show_stats default true, matching Borg's own prune
		// defaults, and can be suppressed per-task.
		opts := borgcmd.PruneOptions{RepoPath: repo.Path, Stats: true, List: true}
		if v, ok := task.Params["keep_within_days"].(int); ok {
			opts.KeepWithinDays = v
		}
		if v, ok := task.Params["keep_daily"].(int); ok {
			opts.KeepDaily = v
		}
		if v, ok := task.Params["keep_weekly"].(int); ok {
			opts.KeepWeekly = v
		}
		if v, ok := task.Params["keep_monthly"].(int); ok {
			opts.KeepMonthly = v
		}
		if v, ok := task.Params["keep_yearly"].(int); ok {
			opts.KeepYearly = v
		}
		if v, ok := task.Params["show_list"].(bool); ok {
			opts.List = v
		}
		if v, ok := task.Params["show_stats"].(bool); ok {
			opts.Stats = v
		}
		if v, ok := task.Params["save_space"].(bool); ok {
			opts.SaveSpace = v
		}
		if v, ok := task.Params["force_prune"].(bool); ok {
			opts.Force = v
		}
		if v, ok := task.Params["dry_run"].(bool); ok {
			opts.DryRun = v
		}
		return b.Prune(opts), b.Env(repo.PassphraseClear), nil

	case domain.TaskCheck:
		checkType, _ := task.Params["check_type"].(string)
		opts := borgcmd.CheckOptions{RepoPath: repo.Path}
		switch checkType {
		case "repository_only":
			opts.RepositoryOnly = true
		case "archives_only":
			opts.ArchivesOnly = true
		}
		if v, ok := task.Params["verify_data"].(bool); ok {
			opts.VerifyData = v
		}
		if v, ok := task.Params["repair_mode"].(bool); ok {
			opts.Repair = v
		}
		if v, ok := task.Params["save_space"].(bool); ok {
			opts.SaveSpace = v
		}
		if v, ok := task.Params["max_duration_secs"].(int); ok {
			opts.MaxDurationSecs = v
		}
		if v, ok := task.Params["archive_prefix"].(string); ok {
			opts.Prefix = v
		}
		if v, ok := task.Params["archive_glob"].(string); ok {
			opts.GlobArchives = v
		}
		if v, ok := task.Params["first_n_archives"].(int); ok {
			opts.First = v
		}
		if v, ok := task.Params["last_n_archives"].(int); ok {
			opts.Last = v
		}
		return b.Check(opts), b.Env(repo.PassphraseClear), nil

	case domain.TaskCloudSync:
		remote, _ := task.Params["remote_path"].(string)
		source, _ := task.Params["source_path"].(string)
		if source == "" {
			source = repo.Path
		}
		dryRun, _ := task.Params["dry_run"].(bool)
		return (borgcmd.RcloneBuilder{}).Sync(borgcmd.SyncOptions{
			SourcePath: source, RemotePath: remote, DryRun: dryRun,
		}), nil, nil

	case domain.TaskNotification:
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("manager: unsupported task kind %q", task.Kind)
	}
}

// runAndStream spawns argv, pipes its output into the job's buffer and
// event broadcaster line-by-line, and returns its exit code. A nil argv
// (the notification task has nothing to execute) is treated as an
// immediate success. ctx is consulted only to skip starting a process
// that was already cancelled; it is deliberately not handed to the
// Process Executor as the spawning context, since exec.CommandContext's
// default response to ctx cancellation is an immediate SIGKILL, bypassing
// the grace period Cancel's Terminate call is supposed to give the child.
func (m *Manager) runAndStream(ctx context.Context, jobID string, idx int, rj *runningJob, argv []string, env map[string]string) (int, error) {
	if len(argv) == 0 {
		return 0, nil
	}
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	h, err := m.runner.Start(context.Background(), argv, env, "")
	if err != nil {
		return -1, err
	}

	m.mu.Lock()
	rj.handle = h
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		rj.handle = nil
		m.mu.Unlock()
	}()

	onLine := func(line, tag string) {
		m.buffers.Append(jobID, line, tag, nil)
		rj.broadcaster.Publish(events.New(events.JobOutput, jobID).WithTask(idx).WithLine(line, tag))
	}
	onProgress := func(p *executor.Progress) {
		ep := &events.Progress{
			OriginalBytes: p.OriginalBytes, CompressedBytes: p.CompressedBytes,
			DeduplicatedBytes: p.DeduplicatedBytes, NumFiles: p.NumFiles, CurrentPath: p.CurrentPath,
			ArchiveName: p.ArchiveName, ArchiveFingerprint: p.ArchiveFingerprint,
			TimeStart: p.TimeStart, TimeEnd: p.TimeEnd,
		}
		m.buffers.SetProgress(jobID, p)
		rj.broadcaster.Publish(events.New(events.TaskProgress, jobID).WithTask(idx).WithProgress(ep))
	}

	res := m.runner.Monitor(h, onLine, onProgress)
	return res.ReturnCode, res.Err
}

// ExtractFile streams a single path out of archive via `borg extract
// --stdout`, without buffering the whole file in memory (spec §4.F,
// supplemented operation). The returned reader's Close terminates the
// underlying child process if the caller stops reading early.
func (m *Manager) ExtractFile(ctx context.Context, repositoryID, archive, path string) (io.ReadCloser, error) {
	repo, err := m.repoFor(repositoryID)
	if err != nil {
		return nil, err
	}
	argv := borgcmd.Builder{}.ExtractStream(repo.Path, archive, path)
	env := borgcmd.Builder{}.Env(repo.PassphraseClear)

	h, err := m.runner.Start(ctx, argv, env, "")
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	go func() {
		res := m.runner.Monitor(h, func(line, tag string) {
			if tag == "stdout" {
				_, _ = pw.Write([]byte(line + "\n"))
			}
		}, nil)
		if res.ReturnCode != 0 {
			_ = pw.CloseWithError(fmt.Errorf("manager: extract exited %d: %w", res.ReturnCode, res.Err))
			return
		}
		_ = pw.Close()
	}()

	return &extractReader{PipeReader: pr, handle: h, runner: m.runner, grace: m.cfg.TerminateGrace}, nil
}

type extractReader struct {
	*io.PipeReader
	handle *executor.Handle
	runner executor.Runner
	grace  time.Duration
}

func (r *extractReader) Close() error {
	r.runner.Terminate(r.handle, r.grace)
	return r.PipeReader.Close()
}
