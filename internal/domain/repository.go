package domain

// EncryptionMode classifies how a Borg repository is encrypted (spec §4.H).
type EncryptionMode string

const (
	EncryptionRepokey EncryptionMode = "repokey"
	EncryptionKeyfile EncryptionMode = "keyfile"
	EncryptionNone    EncryptionMode = "none"
	EncryptionUnknown EncryptionMode = "unknown"
)

// Repository is the identity of a Borg repository (spec §3).
type Repository struct {
	ID                string
	Name              string
	Path              string
	PassphraseEncrypted []byte
}

// Schedule binds a cron expression, a target repository, and a pipeline
// template (spec §3). The cron engine itself is an external collaborator
// (spec §1); this entity only carries the data and the invariant that the
// expression parses (enforced by internal/schedule at create/update time).
type Schedule struct {
	ID           string
	CronExpr     string
	RepositoryID string
	Enabled      bool

	// Tasks is the pipeline template fired on each trigger; shape matches
	// the composite-job submission payload (spec §6, "Queued submission
	// shape").
	Tasks []TaskTemplate
}

// TaskTemplate is the unexecuted form of a Task: kind + name + params, as
// carried by a Schedule or a submission payload before the Manager expands
// referenced configs into it.
type TaskTemplate struct {
	Kind   TaskKind
	Name   string
	Params map[string]any
}
