package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mlapaglia/borgitory-go/internal/reposcan"
	"github.com/mlapaglia/borgitory-go/internal/store"
	"github.com/spf13/cobra"
)

// NewRepoCmd creates the 'repo' command group: scan, add, list.
func NewRepoCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Discover, register, and list Borg repositories",
	}
	cmd.AddCommand(newRepoScanCmd(), newRepoAddCmd(a), newRepoListCmd(a), newRepoBrowseCmd(a), newRepoExtractCmd(a))
	return cmd
}

// newRepoScanCmd wraps the Repository Probe's Scan, independent of any
// Core since it only walks the filesystem.
func newRepoScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a directory for Borg repository candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := reposcan.Scan(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(candidates) == 0 {
				fmt.Fprintln(w, "No repository candidates found")
				return nil
			}
			fmt.Fprintf(w, "%-50s %-12s %s\n", "PATH", "ENCRYPTION", "REQUIRES KEYFILE")
			for _, c := range candidates {
				fmt.Fprintf(w, "%-50s %-12s %v\n", c.Path, c.EncryptionMode, c.RequiresKeyfile)
			}
			return nil
		},
	}
}

// newRepoAddCmd verifies access to a candidate repository and, only on
// success, registers it in the journal (spec §4.H "verify before
// persist"). There is no on-disk artefact for borgctl to clean up on
// failure (unlike an import flow that writes a keyfile first), so
// onDiscard is a no-op.
func newRepoAddCmd(a *App) *cobra.Command {
	var name, passphrase string
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Verify and register a Borg repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return withCore(a, func(core *Core) error {
				id := uuid.NewString()
				persist := func() (string, error) {
					if err := core.Store.CreateRepository(id, name, path, passphrase); err != nil {
						return "", err
					}
					return id, nil
				}
				registeredID, err := reposcan.VerifyAndDiscard(context.Background(), core.Runner, path, passphrase, persist, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), registeredID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the repository (required)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "Repository passphrase")
	_ = cmd.MarkFlagRequired("name")
	if envPass := os.Getenv("BORG_PASSPHRASE"); envPass != "" {
		passphrase = envPass
	}
	return cmd
}

func newRepoListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(a, func(core *Core) error {
				rows, err := core.Store.ListRepositories()
				if err != nil {
					return err
				}
				displayRepositoryRows(cmd, rows)
				return nil
			})
		},
	}
}

func displayRepositoryRows(cmd *cobra.Command, rows []store.RepositoryRow) {
	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No repositories registered")
		return
	}
	fmt.Fprintf(w, "%-38s %-20s %s\n", "ID", "NAME", "PATH")
	for _, r := range rows {
		fmt.Fprintf(w, "%-38s %-20s %s\n", r.ID, r.Name, r.Path)
	}
}
