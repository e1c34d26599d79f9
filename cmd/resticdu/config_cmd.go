package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resticdu/internal/app"
	"resticdu/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the resticdu configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("resolving defaults: %w", err)
		}

		repo, _ := cmd.Flags().GetString("repository")
		cfg := config.NewConfig(repo)

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", defaults["config_path"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "repository:        %s\n", cfg.Repository.Repo)
		fmt.Fprintf(out, "repository_file:   %s\n", cfg.Repository.RepositoryFile)
		fmt.Fprintf(out, "concurrency:       %d\n", cfg.Concurrency)
		fmt.Fprintf(out, "verbosity:         %d\n", cfg.Verbosity)
		fmt.Fprintf(out, "non_interactive:   %t\n", cfg.NonInteractive)
		fmt.Fprintf(out, "cache.dir:         %s\n", cfg.Cache.Dir)
		fmt.Fprintf(out, "mirror.type:       %s\n", cfg.Mirror.Type)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
}
