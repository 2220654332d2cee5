// Package borgcmd builds the exact argv/env for every borg and rclone
// invocation the core issues (spec §6). Building returns a plain argv
// slice — never a shell string — so the executor always spawns the binary
// directly with no intervening shell.
package borgcmd

import (
	"fmt"
	"time"
)

// EncryptionMode names the --encryption value for a new repository.
type EncryptionMode string

const (
	EncryptionRepokey EncryptionMode = "repokey"
	EncryptionKeyfile EncryptionMode = "keyfile"
	EncryptionNone    EncryptionMode = "none"
)

// Builder constructs borg command vectors. It carries no state; it exists
// as a type so call sites read `borgcmd.Builder{}.Backup(...)` instead of a
// bag of free functions, matching how other command-building packages in
// this codebase group related operations.
type Builder struct{}

// Env returns the environment overlay for a passphrase-bearing operation.
// BORG_RELOCATED_REPO_ACCESS_IS_OK is always set because repositories
// moved or rsynced to a new path are a routine occurrence for this core's
// users, not an exceptional one.
func (Builder) Env(passphrase string) map[string]string {
	return map[string]string{
		"BORG_PASSPHRASE":                  passphrase,
		"BORG_RELOCATED_REPO_ACCESS_IS_OK": "yes",
	}
}

// Init builds `borg init --encryption <mode> <repo_path>`.
func (Builder) Init(repoPath string, mode EncryptionMode) []string {
	return []string{"borg", "init", "--encryption", string(mode), repoPath}
}

// BackupOptions configures a Backup invocation.
type BackupOptions struct {
	RepoPath    string
	ArchiveName string
	SourcePath  string
	Compression string
	DryRun      bool
}

// ArchiveName formats the default archive name: backup-YYYYMMDD-HHMMSS,
// using t as the naming instant (spec §6).
func ArchiveName(t time.Time) string {
	return "backup-" + t.UTC().Format("20060102-150405")
}

// Backup builds `borg create --stats --progress --json --compression=<comp>
// [--dry-run] <repo>::<archive> <source>`.
func (Builder) Backup(o BackupOptions) []string {
	argv := []string{"borg", "create", "--stats", "--progress", "--json",
		"--compression=" + o.Compression}
	if o.DryRun {
		argv = append(argv, "--dry-run")
	}
	argv = append(argv, o.RepoPath+"::"+o.ArchiveName, o.SourcePath)
	return argv
}

// ListArchives builds `borg list --json <repo>`.
func (Builder) ListArchives(repoPath string) []string {
	return []string{"borg", "list", "--json", repoPath}
}

// ListArchiveContents builds `borg list --json-lines <repo>::<archive>`,
// optionally restricted to the immediate children of dirPath via the
// pattern trick described in spec §6 ("Targeted directory list").
func (Builder) ListArchiveContents(repoPath, archive, dirPath string) []string {
	argv := []string{"borg", "list", "--json-lines", repoPath + "::" + archive}
	if dirPath != "" {
		pattern := "+ re:^" + escapeRegex(dirPath) + "/[^/]+/?$"
		argv = append(argv, "--pattern", pattern, "--pattern", "- *")
	}
	return argv
}

// Info builds `borg info --json <repo>`.
func (Builder) Info(repoPath string) []string {
	return []string{"borg", "info", "--json", repoPath}
}

// PruneOptions configures a Prune invocation. A zero value for any Keep*
// field omits that flag entirely.
type PruneOptions struct {
	RepoPath    string
	KeepWithinDays int
	KeepDaily      int
	KeepWeekly     int
	KeepMonthly    int
	KeepYearly     int
	Stats     bool
	List      bool
	SaveSpace bool
	Force     bool
	DryRun    bool
}

// Prune builds the `borg prune` argv per spec §6.
func (Builder) Prune(o PruneOptions) []string {
	argv := []string{"borg", "prune"}
	if o.KeepWithinDays > 0 {
		argv = append(argv, "--keep-within", fmt.Sprintf("%dd", o.KeepWithinDays))
	}
	if o.KeepDaily > 0 {
		argv = append(argv, "--keep-daily", fmt.Sprint(o.KeepDaily))
	}
	if o.KeepWeekly > 0 {
		argv = append(argv, "--keep-weekly", fmt.Sprint(o.KeepWeekly))
	}
	if o.KeepMonthly > 0 {
		argv = append(argv, "--keep-monthly", fmt.Sprint(o.KeepMonthly))
	}
	if o.KeepYearly > 0 {
		argv = append(argv, "--keep-yearly", fmt.Sprint(o.KeepYearly))
	}
	if o.Stats {
		argv = append(argv, "--stats")
	}
	if o.List {
		argv = append(argv, "--list")
	}
	if o.SaveSpace {
		argv = append(argv, "--save-space")
	}
	if o.Force {
		argv = append(argv, "--force")
	}
	if o.DryRun {
		argv = append(argv, "--dry-run")
	}
	argv = append(argv, o.RepoPath)
	return argv
}

// CheckOptions configures a Check invocation.
type CheckOptions struct {
	RepoPath        string
	RepositoryOnly  bool
	ArchivesOnly    bool
	VerifyData      bool
	Repair          bool
	SaveSpace       bool
	MaxDurationSecs int
	Prefix          string
	GlobArchives    string
	First           int
	Last            int
}

// Check builds the `borg check` argv per spec §6.
func (Builder) Check(o CheckOptions) []string {
	argv := []string{"borg", "check"}
	if o.RepositoryOnly {
		argv = append(argv, "--repository-only")
	}
	if o.ArchivesOnly {
		argv = append(argv, "--archives-only")
	}
	if o.VerifyData {
		argv = append(argv, "--verify-data")
	}
	if o.Repair {
		argv = append(argv, "--repair")
	}
	if o.SaveSpace {
		argv = append(argv, "--save-space")
	}
	if o.MaxDurationSecs > 0 {
		argv = append(argv, "--max-duration", fmt.Sprint(o.MaxDurationSecs))
	}
	if o.Prefix != "" {
		argv = append(argv, "--prefix", o.Prefix)
	}
	if o.GlobArchives != "" {
		argv = append(argv, "--glob-archives", o.GlobArchives)
	}
	if o.First > 0 {
		argv = append(argv, "--first", fmt.Sprint(o.First))
	}
	if o.Last > 0 {
		argv = append(argv, "--last", fmt.Sprint(o.Last))
	}
	argv = append(argv, o.RepoPath)
	return argv
}

// ExtractStream builds `borg extract --stdout <repo>::<archive> <path>`.
func (Builder) ExtractStream(repoPath, archive, path string) []string {
	return []string{"borg", "extract", "--stdout", repoPath + "::" + archive, path}
}

// BreakLock builds `borg break-lock <repo>`, used once as a retry step
// when a prior run left a stale lock (supplemented from the original
// implementation's lock-recovery path).
func (Builder) BreakLock(repoPath string) []string {
	return []string{"borg", "break-lock", repoPath}
}

func escapeRegex(path string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(path)*2)
	for i := 0; i < len(path); i++ {
		c := path[i]
		if containsByte(special, c) {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}
