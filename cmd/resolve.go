package cmd

import (
	"fmt"
	"time"

	"backpub/internal/backfill"
	"backpub/internal/config"
	"backpub/internal/git"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <YYYY-MM-DD>",
	Short: "Show which commit a calendar day resolves to",
	Long: `Resolve a date against the configured reference and print the commit the
backfill would build that day from: the last commit at or before the start
of the day (a commit made exactly at midnight counts).

Example:
  backpub resolve 2023-10-05`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if config.RepoURL() == "" {
		return fmt.Errorf("repo.url is not configured")
	}
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", args[0], err)
	}

	logger := &backfill.Logger{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr(), Verbosity: verbosity}

	workdir, ephemeral := provisionWorkdir()
	repo, err := git.EnsureClone(config.RepoURL(), workdir)
	if err != nil {
		return err
	}
	if ephemeral {
		defer func() {
			if err := repo.Remove(); err != nil {
				logger.Warnf("%v", err)
			}
		}()
	}

	if err := repo.Fetch(); err != nil {
		return err
	}
	commit, err := repo.ResolveAtDate(config.Reference(), day)
	if err != nil {
		return err
	}

	logger.Printf("%s on %s resolves to:", config.Reference(), args[0])
	logger.Printf("  commit:   %s", commit.Hash)
	logger.Printf("  short:    %s", commit.Short)
	logger.Printf("  authored: %s", commit.AuthoredAt.Format(time.RFC3339))
	return nil
}
