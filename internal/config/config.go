// Package config exposes typed getters over the viper-backed configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// RepoURL returns the content repository's clone URL.
func RepoURL() string {
	return viper.GetString("repo.url")
}

// Reference returns the branch or tag resolved against, as seen from the
// working copy (a remote-tracking name after fetch).
func Reference() string {
	return viper.GetString("repo.reference")
}

// Workdir returns the working-copy path. Empty means a throwaway directory
// is provisioned per run.
func Workdir() string {
	return viper.GetString("repo.workdir")
}

// PackageName returns the published package's registry name.
func PackageName() string {
	return viper.GetString("package.name")
}

// StartDate returns the first calendar day of the backfill.
func StartDate() (time.Time, error) {
	raw := viper.GetString("backfill.start_date")
	start, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid backfill.start_date %q (use YYYY-MM-DD): %w", raw, err)
	}
	return start.UTC(), nil
}

// BuildScript returns the extraction script name.
func BuildScript() string {
	return viper.GetString("build.script")
}

// RedirectsFile returns the redirect source path inside the working copy.
func RedirectsFile() string {
	return viper.GetString("build.redirects_file")
}

// DescriptorFile returns the build-output package descriptor path.
func DescriptorFile() string {
	return viper.GetString("build.descriptor_file")
}

// MetadataFile returns the build-output metadata file path.
func MetadataFile() string {
	return viper.GetString("build.metadata_file")
}

// MetadataHashKey returns the dotted key path of the short commit hash
// inside the build metadata file.
func MetadataHashKey() string {
	return viper.GetString("build.metadata_hash_key")
}

// PublishScript returns the script that performs the registry write.
func PublishScript() string {
	return viper.GetString("publish.script")
}

// DryRunPublishScript returns the script run instead of PublishScript in
// dry-run mode.
func DryRunPublishScript() string {
	return viper.GetString("publish.dry_run_script")
}
