package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"resticdu/internal/app"
	"resticdu/internal/config"
	"resticdu/internal/duc"
	"resticdu/internal/reporter"
)

var rootCmd = &cobra.Command{
	Use:   "resticdu",
	Short: "Interactive disk-usage analyzer over a restic repository",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("repository", "r", "", "restic repository (overrides RESTIC_REPOSITORY / config file)")
	flags.String("repository-file", "", "file containing the repository location")
	flags.String("password-command", "", "shell command that prints the repository password")
	flags.String("password-file", "", "file containing the repository password")
	flags.Bool("non-interactive", false, "disable interactive progress output")
	flags.CountP("verbose", "v", "increase verbosity (repeatable, caps at 2)")
	flags.IntP("jobs", "j", 0, "ingestion concurrency (default 4, or config's concurrency)")
	flags.String("binary", "", "restic executable name or path (development/testing only)")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(markCmd)
	rootCmd.AddCommand(unmarkCmd)
	rootCmd.AddCommand(marksCmd)
	rootCmd.AddCommand(clearMarksCmd)
	rootCmd.AddCommand(excludeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mirrorCmd)
}

// resolveConfig loads the config file (if any) and layers the command's
// flags on top, per spec.md §6's flag/environment precedence.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("resolving defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		cfg = config.NewConfig("")
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("repository"); v != "" {
		cfg.Repository.Repo = v
	}
	if v, _ := flags.GetString("repository-file"); v != "" {
		cfg.Repository.RepositoryFile = v
	}
	if v, _ := flags.GetString("password-command"); v != "" {
		cfg.Repository.PasswordCommand = v
	}
	if v, _ := flags.GetString("password-file"); v != "" {
		cfg.Repository.PasswordFile = v
	}
	if v, _ := flags.GetBool("non-interactive"); v {
		cfg.NonInteractive = true
	}
	if v, _ := flags.GetCount("verbose"); v > 0 {
		if v > 2 {
			v = 2
		}
		cfg.Verbosity = v
	}
	if v, _ := flags.GetInt("jobs"); v > 0 {
		cfg.Concurrency = v
	}
	if v, _ := flags.GetString("binary"); v != "" {
		cfg.Repository.Binary = v
	}

	if cfg.Repository.Repo == "" && cfg.Repository.RepositoryFile == "" {
		if v := os.Getenv("RESTIC_REPOSITORY"); v != "" {
			cfg.Repository.Repo = v
		} else if v := os.Getenv("RESTIC_REPOSITORY_FILE"); v != "" {
			cfg.Repository.RepositoryFile = v
		}
	}
	if cfg.Repository.PasswordCommand == "" && cfg.Repository.PasswordFile == "" {
		if v := os.Getenv("RESTIC_PASSWORD_COMMAND"); v != "" {
			cfg.Repository.PasswordCommand = v
		} else if v := os.Getenv("RESTIC_PASSWORD_FILE"); v != "" {
			cfg.Repository.PasswordFile = v
		}
	}

	return cfg, nil
}

// newApp resolves config from flags/file/environment and builds a fully
// wired app.App. cmd.Context() carries the interrupt-aware cancellation
// wired in main(), so the "restic cat config" call New makes to learn the
// repository id is itself cancellable. The caller must defer a.Close().
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	var rep duc.Reporter
	if cfg.NonInteractive {
		rep = duc.NullReporter{}
	} else {
		rep = reporter.NewTerm(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
	}

	return app.New(cmd.Context(), cfg, rep)
}
