// Package migrations embeds and applies resticdu's cache schema
// migrations.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"resticdu/internal/duc"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// CheckAndMigrate brings db to the latest schema version, per spec.md
// §4.3: create the current schema from scratch on an empty file, apply
// pending migrations in ascending order otherwise, and fail with
// duc.ErrUnsupportedFutureVersion if the stored version is newer than this
// binary knows about.
func CheckAndMigrate(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("preparing migrator: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return &duc.MigrationError{FromVersion: int(version), Err: fmt.Errorf("schema is dirty (a previous migration failed partway)")}
	}
	// The schema's own metadata_integer.version row also counts for the
	// future-version check; a missing table (fresh or legacy cache) reads
	// as version 0.
	var stored uint
	if err := db.QueryRow(`SELECT value FROM metadata_integer WHERE key = 'version'`).Scan(&stored); err == nil && stored > version {
		version = stored
	}

	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return fmt.Errorf("reading embedded migration files: %w", err)
	}
	defer sourceDriver.Close()

	latest, err := getLatestVersion(sourceDriver)
	if err != nil {
		return fmt.Errorf("determining latest schema version: %w", err)
	}
	if version > latest {
		return duc.ErrUnsupportedFutureVersion
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return &duc.MigrationError{FromVersion: int(version), Err: err}
	}
	return nil
}

// newMigrate wires an embedded iofs source to a sqlite3 database driver
// over an already-open connection.
func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("creating source driver: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("creating database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// getLatestVersion returns the highest version number available in src.
func getLatestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}
	latest := version
	for {
		next, err := src.Next(latest)
		if err != nil {
			break
		}
		latest = next
	}
	return latest, nil
}
