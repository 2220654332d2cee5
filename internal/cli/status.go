package cli

import (
	"fmt"

	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the 'status' command for showing one job's
// persisted lifecycle row and task breakdown.
func NewStatusCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status and task breakdown from the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			core, err := WireCore(cfg)
			if err != nil {
				return err
			}
			defer core.Close()

			rows, err := core.Store.ListJobRows(nil)
			if err != nil {
				return err
			}
			var job *store.JobRow
			for i := range rows {
				if rows[i].ID == jobID {
					job = &rows[i]
					break
				}
			}
			if job == nil {
				return fmt.Errorf("job %s not found in journal", jobID)
			}

			tasks, err := core.Store.ListTaskRows(jobID)
			if err != nil {
				return err
			}

			displayJobStatus(cmd, *job, tasks)
			return nil
		},
	}

	return cmd
}

func displayJobStatus(cmd *cobra.Command, job store.JobRow, tasks []store.TaskRow) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Job:        %s\n", job.ID)
	fmt.Fprintf(w, "Kind:       %s\n", job.Kind)
	fmt.Fprintf(w, "Status:     %s\n", job.Status)
	if job.RepositoryID != "" {
		fmt.Fprintf(w, "Repository: %s\n", job.RepositoryID)
	}
	if job.ScheduleID != "" {
		fmt.Fprintf(w, "Schedule:   %s\n", job.ScheduleID)
	}
	if job.ReturnCode != nil {
		fmt.Fprintf(w, "Return code: %d\n", *job.ReturnCode)
	}
	if job.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", job.Error)
	}

	if !job.Composite || len(tasks) == 0 {
		return
	}
	fmt.Fprintln(w, "\nTasks:")
	for _, t := range tasks {
		marker := "  "
		if t.TaskIndex == job.CurrentTaskIndex && job.Status == "running" {
			marker = "> "
		}
		rc := "-"
		if t.ReturnCode != nil {
			rc = fmt.Sprintf("%d", *t.ReturnCode)
		}
		fmt.Fprintf(w, "%s#%d %-12s %-10s rc=%-4s %s\n", marker, t.TaskIndex, t.Kind, t.Status, rc, t.Error)
	}
}
