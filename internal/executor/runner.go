package executor

import (
	"context"
	"time"
)

// Runner is the seam the Manager depends on instead of calling Start,
// Monitor, and Terminate directly, so tests can substitute a fake without
// spawning real processes (mirrors the Runner interface pattern used
// throughout this codebase for other external-process boundaries).
type Runner interface {
	Start(ctx context.Context, command []string, envOverlay map[string]string, cwd string) (*Handle, error)
	Monitor(h *Handle, onLine LineFunc, onProgress ProgressFunc) Result
	Terminate(h *Handle, grace time.Duration)
}

// OSRunner is the production Runner, backed by real child processes.
type OSRunner struct{}

func (OSRunner) Start(ctx context.Context, command []string, envOverlay map[string]string, cwd string) (*Handle, error) {
	return Start(ctx, command, envOverlay, cwd)
}

func (OSRunner) Monitor(h *Handle, onLine LineFunc, onProgress ProgressFunc) Result {
	return Monitor(h, onLine, onProgress)
}

func (OSRunner) Terminate(h *Handle, grace time.Duration) {
	Terminate(h, grace)
}
