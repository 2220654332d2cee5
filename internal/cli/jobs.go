package cli

import (
	"fmt"
	"strings"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/spf13/cobra"
)

// NewJobsCmd creates the 'jobs' command for listing jobs from the journal.
// Flags: --status (string, comma-separated filter)
func NewJobsCmd(a *App) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs recorded in the database journal",
		Long: `List jobs from the database journal, newest first.

Use --status to filter by job status (comma-separated values).
Valid statuses: pending, queued, running, completed, failed, cancelled`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			core, err := WireCore(cfg)
			if err != nil {
				return err
			}
			defer core.Close()

			var statuses []domain.Status
			if statusFilter != "" {
				for _, s := range parseStatusFilter(statusFilter) {
					statuses = append(statuses, domain.Status(s))
				}
			}

			rows, err := core.Store.ListJobRows(statuses)
			if err != nil {
				return err
			}

			displayJobRows(cmd, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (comma-separated)")

	return cmd
}

// parseStatusFilter splits comma-separated status values and trims whitespace.
func parseStatusFilter(filter string) []string {
	parts := strings.Split(filter, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func displayJobRows(cmd *cobra.Command, rows []store.JobRow) {
	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return
	}
	fmt.Fprintf(w, "%-28s %-18s %-10s %-8s %s\n", "ID", "KIND", "STATUS", "RC", "ERROR")
	for _, r := range rows {
		rc := "-"
		if r.ReturnCode != nil {
			rc = fmt.Sprintf("%d", *r.ReturnCode)
		}
		fmt.Fprintf(w, "%-28s %-18s %-10s %-8s %s\n", r.ID, r.Kind, r.Status, rc, r.Error)
	}
}
