package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"backpub/internal/backfill"
	"backpub/internal/config"
	"backpub/internal/models"
	"backpub/internal/npm"
	"backpub/internal/registry"
	"backpub/internal/snapshot"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	backfillDryRun   bool
	backfillContinue bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Build and publish one snapshot per day since the start date",
	Long: `Walk every calendar day from the configured start date through today,
materialize the repository state at the end of each day, and publish it as a
versioned package.

Publishing is a dry run by default; pass --dry-run=false to write to the
registry. A day whose date stamp or commit hash already appears in a
published version aborts the run unless --continue is set, in which case it
is skipped.

Examples:
  backpub backfill                    # rehearse every decision, publish nothing
  backpub backfill --dry-run=false    # publish for real
  backpub backfill --continue -v      # resume past already-published days`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().BoolVarP(&backfillDryRun, "dry-run", "n", true, "run every step except the registry write")
	backfillCmd.Flags().BoolVar(&backfillContinue, "continue", false, "skip already-published days instead of aborting")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	if config.RepoURL() == "" {
		return fmt.Errorf("repo.url is not configured")
	}
	pkg := config.PackageName()
	if pkg == "" {
		return fmt.Errorf("package.name is not configured")
	}
	start, err := config.StartDate()
	if err != nil {
		return err
	}

	logger := &backfill.Logger{Out: os.Stdout, Err: os.Stderr, Verbosity: verbosity}

	workdir, ephemeral := provisionWorkdir()
	materializer := &snapshot.Materializer{
		RemoteURL:       config.RepoURL(),
		Reference:       config.Reference(),
		Workdir:         workdir,
		RedirectsFile:   config.RedirectsFile(),
		BuildScript:     config.BuildScript(),
		DescriptorFile:  config.DescriptorFile(),
		MetadataFile:    config.MetadataFile(),
		MetadataHashKey: config.MetadataHashKey(),
		Logf:            logger.Verbosef,
	}
	if ephemeral {
		defer func() {
			if err := materializer.CleanUp(); err != nil {
				logger.Warnf("%v", err)
			}
		}()
	}

	driver := &backfill.Driver{
		Start:    start,
		Continue: backfillContinue,
		DryRun:   backfillDryRun,
		Build:    materializer.Materialize,
		Ledger: func() map[string]time.Time {
			return registry.ListPublished(npm.ViewPublishTimes, pkg)
		},
		Publish: func(artifact *models.Artifact, dryRun bool) error {
			script := config.PublishScript()
			if dryRun {
				script = config.DryRunPublishScript()
			}
			return npm.RunScript(workdir, script)
		},
		Teardown: materializer.Reset,
		Log:      logger,
	}

	if backfillDryRun {
		logger.Printf("Dry-run mode: no registry writes will be issued")
	}
	if err := driver.Run(); err != nil {
		return err
	}

	logger.Printf("✓ Backfill complete")
	return nil
}

// provisionWorkdir returns the configured working-copy path, or a unique
// throwaway one when none is configured. The second result reports whether
// the caller should remove it afterwards.
func provisionWorkdir() (string, bool) {
	if dir := config.Workdir(); dir != "" {
		return dir, false
	}
	return filepath.Join(os.TempDir(), "backpub-"+uuid.NewString()), true
}
