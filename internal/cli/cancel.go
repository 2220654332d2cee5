package cli

import (
	"errors"
	"fmt"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/spf13/cobra"
)

// NewCancelCmd creates the 'cancel' command. Cancel only affects jobs
// tracked in this invocation's in-memory Manager, so it is only useful
// chained after a 'submit' in the same process (e.g. a script holding the
// job id returned by submit and racing a signal against it); a job
// submitted by a separately running borgitoryd is untouched.
func NewCancelCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job tracked by this invocation's in-memory core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID := args[0]
			return withCore(a, func(core *Core) error {
				cancelled, err := core.Manager.Cancel(jobID)
				if errors.Is(err, domain.ErrJobNotCancellable) {
					fmt.Fprintf(cmd.OutOrStdout(), "job %s is already terminal; nothing to cancel\n", jobID)
					return nil
				}
				if err != nil {
					return err
				}
				if !cancelled {
					fmt.Fprintf(cmd.OutOrStdout(), "job %s was not running in this process; nothing to cancel\n", jobID)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cancel requested for job %s\n", jobID)
				return nil
			})
		},
	}
}
