package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   "backpub",
	Short: "Backfill one published package version per day of a repository's history",
	Long: `backpub reconstructs historical snapshots of a content repository, one per
calendar day since a fixed start date, and publishes each snapshot as a
uniquely versioned npm package.

Each day it resolves the commit the repository ended that day on, checks it
out, runs the extraction build, and compares the candidate's date stamp and
short commit hash against the versions already in the registry. Days that
were already published are detected and never published twice, so an
interrupted run can simply be re-invoked.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/backpub/config.toml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "raise log detail (repeatable)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "backpub")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("repo.url", "")
	viper.SetDefault("repo.reference", "origin/main")
	viper.SetDefault("repo.workdir", "")
	viper.SetDefault("package.name", "")
	viper.SetDefault("backfill.start_date", "2023-10-01")
	viper.SetDefault("build.script", "build")
	viper.SetDefault("build.redirects_file", "_redirects")
	viper.SetDefault("build.descriptor_file", "package.json")
	viper.SetDefault("build.metadata_file", "dist/metadata.json")
	viper.SetDefault("build.metadata_hash_key", "build.commit")
	viper.SetDefault("publish.script", "release")
	viper.SetDefault("publish.dry_run_script", "release:dry")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
