package borgcmd

// RcloneBuilder constructs rclone command vectors for cloud_sync tasks
// (spec §6). Provider-specific configuration (bucket, remote name,
// credentials) is materialised from a config row by the caller and handed
// in already resolved; this builder only shapes the argv.
type RcloneBuilder struct{}

// SyncOptions configures a Sync invocation.
type SyncOptions struct {
	SourcePath string
	RemotePath string // e.g. "myremote:bucket/prefix"
	DryRun     bool
}

// Sync builds `rclone sync --use-json-log [--dry-run] <source> <remote>`.
// --use-json-log is always passed since the executor's line parser expects
// the {type, stream, message, status} record shape (spec §6).
func (RcloneBuilder) Sync(o SyncOptions) []string {
	argv := []string{"rclone", "sync", "--use-json-log"}
	if o.DryRun {
		argv = append(argv, "--dry-run")
	}
	argv = append(argv, o.SourcePath, o.RemotePath)
	return argv
}
