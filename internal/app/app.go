// Package app wires resticdu's config, cache, restic adapter, syncer,
// optional mirror, and logger into the single object the CLI drives.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"resticdu/internal/cache"
	"resticdu/internal/config"
	"resticdu/internal/duc"
	"resticdu/internal/mirror"
	"resticdu/internal/restic"
)

// App is the application layer between the CLI and the core duc package.
// It constructs every dependency from a config.Config and exposes the
// operations the CLI commands call directly.
type App struct {
	cfg      *config.Config
	Cache    *cache.SQLiteCache
	Repo     duc.Repository
	Mirror   mirror.Mirror // nil when disabled
	Reporter duc.Reporter
	RunID    string
	logger   *slogAdapter
	logFile  *os.File
}

// New builds a fully wired App from cfg. reporter may be nil, in which
// case duc.NullReporter is used (non-interactive runs, tests). ctx bounds
// the "restic cat config" call New makes to learn the repository's stable
// identifier. The caller must call Close when done.
func New(ctx context.Context, cfg *config.Config, reporter duc.Reporter) (*App, error) {
	if reporter == nil {
		reporter = duc.NullReporter{}
	}

	cacheDir := cfg.Cache.Dir
	if cacheDir == "" {
		defaults, err := GetDefaults()
		if err != nil {
			return nil, fmt.Errorf("resolving default cache directory: %w", err)
		}
		cacheDir = defaults["cache_dir"]
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	repo := &restic.Restic{
		Repository: restic.Repository{
			Repo: cfg.Repository.Repo,
			File: cfg.Repository.RepositoryFile,
		},
		Password: restic.Password{
			Command: cfg.Repository.PasswordCommand,
			File:    cfg.Repository.PasswordFile,
		},
		Binary: cfg.Repository.Binary,
	}

	repoID, err := repo.RepositoryID(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying repository id: %w", err)
	}
	artifactName := repoID + ".db"

	c, err := cache.Open(filepath.Join(cacheDir, artifactName))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	var m mirror.Mirror
	if cfg.Mirror.Type != "" {
		m, err = mirror.NewFromConfig(ctx, cfg.Mirror, cacheDir, artifactName)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("creating mirror: %w", err)
		}
	}

	runID := uuid.New().String()
	logDir := filepath.Join(cacheDir, "log")
	slogger, logFile, err := newLogger(logDir, runID)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:      cfg,
		Cache:    c,
		Repo:     repo,
		Mirror:   m,
		Reporter: reporter,
		RunID:    runID,
		logger:   &slogAdapter{l: slogger},
		logFile:  logFile,
	}, nil
}

// Logger exposes the wired duc.Logger for direct use by callers that need
// it outside of Sync (e.g. mirror push/pull commands).
func (a *App) Logger() duc.Logger { return a.logger }

// Sync runs one reconcile-then-ingest cycle against the repository.
func (a *App) Sync(ctx context.Context) (duc.SyncResult, error) {
	s := &duc.Syncer{
		Cache:       a.Cache,
		Repository:  a.Repo,
		Concurrency: a.cfg.Concurrency,
		Logger:      a.logger,
		Reporter:    a.Reporter,
		IDGen:       staticIDGenerator{a.RunID},
	}
	return s.Sync(ctx)
}

// staticIDGenerator hands out the App's single run-id for every call, so
// every log line and reporter event from one invocation shares it,
// instead of duc.UUIDGenerator minting a fresh one per Sync call.
type staticIDGenerator struct{ id string }

func (g staticIDGenerator) New() string { return g.id }

// Close releases the cache connection and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.Cache.Close(); err != nil {
		firstErr = fmt.Errorf("closing cache: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
