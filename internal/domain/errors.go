package domain

import "errors"

// Error taxonomy for the Job Execution Core (spec §7).
//
// SubmitError is a type rather than a bare sentinel because the caller
// needs the human-readable reason (missing param, unknown config, ...);
// it unwraps to ErrSubmit, so callers compare with errors.Is(err, ErrSubmit).
var (
	// ErrSubmit marks any validation failure at submission time: invalid
	// kind, missing required params, unknown/disabled referenced config,
	// unknown repository. A job is never created when this is returned.
	ErrSubmit = errors.New("submit: invalid job request")

	// ErrSpawn marks a child process that could not be launched at all.
	ErrSpawn = errors.New("executor: failed to spawn child process")

	// ErrVerify marks a repository-access verification failure (§4.H).
	// The caller must discard any on-disk artefacts created during import.
	ErrVerify = errors.New("reposcan: access verification failed")

	// ErrNotFound marks a lookup against a job, task or queue entry id
	// that is unknown to the in-memory state (may already be cleaned up).
	ErrNotFound = errors.New("not found")

	// ErrJobNotCancellable marks an attempt to cancel a job already in a
	// terminal state; Cancel treats this as a no-op, not a caller error.
	ErrJobNotCancellable = errors.New("job is already terminal")
)

// SubmitError wraps ErrSubmit with a specific reason, preserving
// errors.Is(err, ErrSubmit) compatibility.
type SubmitError struct {
	Reason string
}

func (e *SubmitError) Error() string { return "submit: " + e.Reason }

func (e *SubmitError) Unwrap() error { return ErrSubmit }

// NewSubmitError builds a SubmitError with the given reason text.
func NewSubmitError(reason string) error {
	return &SubmitError{Reason: reason}
}
