package cli

import (
	"fmt"
	"sort"

	"github.com/mlapaglia/borgitory-go/internal/queue"
	"github.com/spf13/cobra"
)

// NewQueueStatsCmd creates the 'queue-stats' command, reporting this
// invocation's own Queue depth and free capacity per class. Since each
// borgctl invocation wires a fresh Queue, this only reflects jobs that
// were submitted and are still pending within the same process run; the
// queue-stats command itself submits nothing, so it reports an empty queue
// and every class's configured slot count.
func NewQueueStatsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "queue-stats",
		Short: "Show queue depth and available slots per class",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				stats := core.Manager.QueueStats()
				displayQueueStats(cmd, stats)
				return nil
			})
		},
	}
}

func displayQueueStats(cmd *cobra.Command, stats queue.Stats) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total queued: %d\n\n", stats.TotalQueued)
	classes := make([]string, 0, len(stats.AvailableSlots))
	for c := range stats.AvailableSlots {
		classes = append(classes, string(c))
	}
	sort.Strings(classes)
	fmt.Fprintf(w, "%-12s %-8s %s\n", "CLASS", "QUEUED", "FREE SLOTS")
	for _, c := range classes {
		class := queue.Class(c)
		fmt.Fprintf(w, "%-12s %-8d %d\n", c, stats.QueueSizeByClass[class], stats.AvailableSlots[class])
	}
}
