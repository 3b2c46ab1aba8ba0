package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"backpub/internal/config"
	"backpub/internal/npm"
	"backpub/internal/registry"

	"github.com/spf13/cobra"
)

var publishedDate string

var publishedCmd = &cobra.Command{
	Use:   "published",
	Short: "List the versions already in the registry",
	Long: `Query the registry for the package's published versions, exactly the way
the backfill's duplicate check sees them. With --date, also report whether
that day would be considered already published.

Examples:
  backpub published
  backpub published --date 2023-10-05`,
	RunE: runPublished,
}

func init() {
	rootCmd.AddCommand(publishedCmd)

	publishedCmd.Flags().StringVar(&publishedDate, "date", "", "check whether this day (YYYY-MM-DD) would match")
}

func runPublished(cmd *cobra.Command, args []string) error {
	pkg := config.PackageName()
	if pkg == "" {
		return fmt.Errorf("package.name is not configured")
	}

	published := registry.ListPublished(npm.ViewPublishTimes, pkg)
	if len(published) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No published versions found (or the registry could not be queried)")
		return nil
	}

	versions := make([]string, 0, len(published))
	for version := range published {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool {
		return published[versions[i]].Before(published[versions[j]])
	})

	fmt.Fprintf(cmd.OutOrStdout(), "%d published version(s) of %s:\n", len(versions), pkg)
	for _, version := range versions {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", published[version].Format(time.RFC3339), version)
	}

	if publishedDate != "" {
		day, err := time.Parse("2006-01-02", publishedDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q (use YYYY-MM-DD): %w", publishedDate, err)
		}
		stamp := day.Format("20060102")
		match := ""
		for _, version := range versions {
			if strings.Contains(version, stamp) {
				match = version
				break
			}
		}
		if match != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s is already published as %s\n", publishedDate, match)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s is not published yet\n", publishedDate)
		}
	}
	return nil
}
