// Package schedule validates the cron expression carried by a
// domain.Schedule (spec §3). The trigger engine itself — whatever calls
// back into the Manager's fire(schedule_id) on each tick — is an external
// collaborator out of this core's scope (spec §1); this package only
// enforces the parse-time invariant.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateCronExpr parses expr and returns an error describing why it is
// invalid, or nil if it parses cleanly.
func ValidateCronExpr(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("schedule: invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextFireTimes returns the next n fire times for expr after `after`,
// assuming expr has already been validated. Used by the debug CLI to show
// an operator what a schedule will actually do.
func NextFireTimes(expr string, after time.Time, n int) ([]time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid cron expression %q: %w", expr, err)
	}
	out := make([]time.Time, 0, n)
	cur := after
	for i := 0; i < n; i++ {
		cur = sched.Next(cur)
		out = append(out, cur)
	}
	return out, nil
}
