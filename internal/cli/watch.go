package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlapaglia/borgitory-go/internal/cli/tui"
	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the 'watch' command: submit a job from the same
// --task flags 'submit composite' takes (a single --task is submitted as a
// simple job of the matching kind, two or more as a composite job), then
// attach a live bubbletea view to its event and output streams until it
// reaches a terminal status.
//
// Unlike 'jobs'/'status', which read the durable journal and so work
// against any borgitoryd's database, watch can only observe the
// in-memory Manager of the process that submitted the job — which, for
// borgctl, is only ever this invocation. That is why watch submits the
// job itself rather than taking an existing job id.
func NewWatchCmd(a *App) *cobra.Command {
	var repo, scheduleID string
	var taskSpecs []string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Submit a job and watch its progress live",
		Long: `Submit a job from --task flags (same shape as 'submit composite')
and attach a live view of its task progress and output until it finishes.
A single --task is submitted as a simple job; two or more as a composite job.

Each --task is shaped "kind:key=value,key=value", e.g.:
  --task backup:source_path=/data,compression=zstd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := parseTaskSpecs(taskSpecs)
			if err != nil {
				return err
			}
			return withCore(a, func(core *Core) error {
				var jobID string
				var err error
				if len(templates) == 1 {
					t := templates[0]
					jobID, err = core.Manager.SubmitSimple(simpleKindFor(t.Kind), repo, t.Kind, t.Params)
				} else {
					jobID, err = core.Manager.SubmitComposite(domain.KindComposite, repo, scheduleID, templates)
				}
				if err != nil {
					return err
				}
				return runWatchTUI(core, jobID, templates)
			})
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Schedule id that triggered this job, if any")
	cmd.Flags().StringArrayVar(&taskSpecs, "task", nil, "A pipeline task, kind:key=value,... (repeatable)")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("task")

	return cmd
}

// simpleKindFor maps a lone task kind to the matching job Kind
// (spec §3's simple-job taxonomy), since a one-task submission still
// needs a job Kind distinct from "composite".
func simpleKindFor(kind domain.TaskKind) domain.Kind {
	switch kind {
	case domain.TaskBackup:
		return domain.KindManualBackup
	case domain.TaskPrune:
		return domain.KindPrune
	case domain.TaskCheck:
		return domain.KindCheck
	case domain.TaskCloudSync:
		return domain.KindCloudSync
	default:
		return domain.KindComposite
	}
}

// runWatchTUI drives a bubbletea program fed by jobID's event and output
// streams, blocking until the job reaches a terminal status or the
// operator quits early.
func runWatchTUI(core *Core, jobID string, templates []domain.TaskTemplate) error {
	tasks := make([]tui.TaskInfo, len(templates))
	for i, t := range templates {
		tasks[i] = tui.TaskInfo{Kind: t.Kind, Name: t.Name, Status: domain.StatusPending}
	}

	model := tui.NewModel(map[string]*tui.JobState{
		jobID: {ID: jobID, Status: domain.StatusQueued, Tasks: tasks, CurrentTaskIndex: -1},
	})
	program := tea.NewProgram(model)

	events, cancelEvents, ok := core.Manager.FollowEvents(jobID)
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	defer cancelEvents()

	lines, _, cancelOutput, ok := core.Manager.FollowOutput(jobID)
	if ok {
		defer cancelOutput()
		go func() {
			for line := range lines {
				program.Send(tui.LogMsg{Line: line.Text})
			}
		}()
	}

	bridge := tui.NewBridge(program)
	go func() {
		for evt := range events {
			bridge.Handler()(evt)
		}
		bridge.SendDone()
	}()

	_, err := program.Run()
	return err
}
