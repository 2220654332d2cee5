package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewEventsCmd creates the 'events' command: the job_id-less form of
// follow_events, printing every event crossing any job in this invocation's
// in-process Manager until interrupted (spec §4.C, "a global, all-jobs
// event stream"). Like 'watch', it only sees jobs submitted by this same
// invocation, since the Event Broadcaster is in-memory.
func NewEventsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream every job's events as they happen, across all jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				ch, unsubscribe := core.Manager.FollowAllEvents()
				defer unsubscribe()

				ctx, cancel := context.WithCancel(cmd.Context())
				handler := NewSignalHandler(cancel)
				handler.Start()
				defer handler.Stop()

				w := cmd.OutOrStdout()
				for {
					select {
					case e, ok := <-ch:
						if !ok {
							return nil
						}
						fmt.Fprintf(w, "%s job=%s type=%s status=%s error=%s\n",
							e.Time.Format("15:04:05.000"), e.JobID, e.Type, e.Status, e.Error)
					case <-ctx.Done():
						return nil
					}
				}
			})
		},
	}
}
