package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/spf13/cobra"
)

// NewSubmitCmd creates the 'submit' command group: one simple-job
// subcommand per task kind, plus a generic 'composite' subcommand reading
// a pipeline of --task flags.
func NewSubmitCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a job to the core and print its id",
	}

	cmd.AddCommand(
		newSubmitBackupCmd(a),
		newSubmitPruneCmd(a),
		newSubmitCheckCmd(a),
		newSubmitCloudSyncCmd(a),
		newSubmitCompositeCmd(a),
	)
	return cmd
}

func newSubmitBackupCmd(a *App) *cobra.Command {
	var repo, source, compression string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Submit a manual_backup job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				id, err := core.Manager.SubmitSimple(domain.KindManualBackup, repo, domain.TaskBackup, map[string]any{
					"source_path": source,
					"compression": compression,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().StringVar(&source, "source", "", "Source path to archive (required)")
	cmd.Flags().StringVar(&compression, "compression", "zstd", "Borg compression algorithm")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newSubmitPruneCmd(a *App) *cobra.Command {
	var repo string
	var keepDaily, keepWeekly, keepMonthly, keepYearly int
	var keepWithinDays int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Submit a prune job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				params := map[string]any{}
				if keepWithinDays > 0 {
					params["keep_within_days"] = keepWithinDays
				}
				if keepDaily > 0 {
					params["keep_daily"] = keepDaily
				}
				if keepWeekly > 0 {
					params["keep_weekly"] = keepWeekly
				}
				if keepMonthly > 0 {
					params["keep_monthly"] = keepMonthly
				}
				if keepYearly > 0 {
					params["keep_yearly"] = keepYearly
				}
				id, err := core.Manager.SubmitSimple(domain.KindPrune, repo, domain.TaskPrune, params)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().IntVar(&keepWithinDays, "keep-within-days", 0, "Keep all archives within N days")
	cmd.Flags().IntVar(&keepDaily, "keep-daily", 0, "Number of daily archives to keep")
	cmd.Flags().IntVar(&keepWeekly, "keep-weekly", 0, "Number of weekly archives to keep")
	cmd.Flags().IntVar(&keepMonthly, "keep-monthly", 0, "Number of monthly archives to keep")
	cmd.Flags().IntVar(&keepYearly, "keep-yearly", 0, "Number of yearly archives to keep")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func newSubmitCheckCmd(a *App) *cobra.Command {
	var repo, checkType string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Submit a check job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				id, err := core.Manager.SubmitSimple(domain.KindCheck, repo, domain.TaskCheck, map[string]any{
					"check_type": checkType,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().StringVar(&checkType, "check-type", "repository_only", "Check type (repository_only|archives_only|full)")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}

func newSubmitCloudSyncCmd(a *App) *cobra.Command {
	var repo, configID string
	cmd := &cobra.Command{
		Use:   "cloud-sync",
		Short: "Submit a cloud_sync job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				id, err := core.Manager.SubmitSimple(domain.KindCloudSync, repo, domain.TaskCloudSync, map[string]any{
					"cloud_sync_config_id": configID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().StringVar(&configID, "cloud-sync-config", "", "Cloud sync config id (required)")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("cloud-sync-config")
	return cmd
}

// newSubmitCompositeCmd submits an ordered pipeline from repeated --task
// flags, each shaped "kind:key=value,key=value" (e.g.
// "backup:source_path=/data,compression=zstd").
func newSubmitCompositeCmd(a *App) *cobra.Command {
	var repo, scheduleID string
	var taskSpecs []string
	cmd := &cobra.Command{
		Use:   "composite",
		Short: "Submit a composite (multi-task) job",
		Long: `Submit a composite job from an ordered list of --task flags.

Each --task is shaped "kind:key=value,key=value", e.g.:
  --task backup:source_path=/data,compression=zstd
  --task prune:keep_daily=7,keep_weekly=4
  --task check:check_type=repository_only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := parseTaskSpecs(taskSpecs)
			if err != nil {
				return err
			}
			return withCore(a, func(core *Core) error {
				id, err := core.Manager.SubmitComposite(domain.KindComposite, repo, scheduleID, templates)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "Repository id (required)")
	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Schedule id that triggered this job, if any")
	cmd.Flags().StringArrayVar(&taskSpecs, "task", nil, "A pipeline task, kind:key=value,... (repeatable)")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func parseTaskSpecs(specs []string) ([]domain.TaskTemplate, error) {
	templates := make([]domain.TaskTemplate, 0, len(specs))
	for _, spec := range specs {
		kind, rest, _ := strings.Cut(spec, ":")
		kind = strings.TrimSpace(kind)
		if kind == "" {
			return nil, fmt.Errorf("invalid --task %q: missing kind", spec)
		}
		params := map[string]any{}
		if rest != "" {
			for _, pair := range strings.Split(rest, ",") {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return nil, fmt.Errorf("invalid --task %q: malformed param %q", spec, pair)
				}
				params[strings.TrimSpace(k)] = coerceParam(strings.TrimSpace(v))
			}
		}
		templates = append(templates, domain.TaskTemplate{
			Kind:   domain.TaskKind(kind),
			Name:   kind,
			Params: params,
		})
	}
	return templates, nil
}

// coerceParam turns "true"/"false" into bool and decimal integers into
// int, mirroring the shapes domain.ValidateTaskParams expects, since
// every value arrives from the command line as a string otherwise.
func coerceParam(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

// withCore wires a Core against a.loadConfig and runs fn against it,
// closing the Core afterward regardless of outcome.
func withCore(a *App, fn func(*Core) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	core, err := WireCore(cfg)
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(core)
}
