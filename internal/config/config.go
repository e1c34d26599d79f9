// Package config handles resticdu's TOML configuration file: the
// repository connection, ingestion concurrency, verbosity, and the
// optional shared-cache mirror.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level, decoded shape of a resticdu config file.
type Config struct {
	Repository     RepositoryConfig `toml:"repository"`
	Concurrency    int              `toml:"concurrency"`
	Verbosity      int              `toml:"verbosity"`
	NonInteractive bool             `toml:"non_interactive"`
	Cache          CacheConfig      `toml:"cache"`
	Mirror         MirrorConfig     `toml:"mirror"`
}

// RepositoryConfig mirrors spec.md §6's flags and environment variables.
type RepositoryConfig struct {
	Repo            string `toml:"repo,omitempty"`
	RepositoryFile  string `toml:"repository_file,omitempty"`
	PasswordCommand string `toml:"password_command,omitempty"`
	PasswordFile    string `toml:"password_file,omitempty"`

	// Binary overrides the restic executable name or path. Empty means
	// "restic" on $PATH; only useful in development and tests.
	Binary string `toml:"binary,omitempty"`
}

// CacheConfig overrides where the aggregation cache file lives. An empty
// Dir means the OS per-user cache directory (internal/app/defaults.go).
type CacheConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// MirrorConfig configures the optional shared-cache mirror. A zero value
// disables the feature.
type MirrorConfig struct {
	Type             string `toml:"type,omitempty"` // "filesystem" or "s3"
	Encrypt          bool   `toml:"encrypt"`
	EncryptRecipient string `toml:"encrypt_recipient,omitempty"`
	IdentityFile     string `toml:"identity_file,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// S3AccessKey/S3SecretKey pin static credentials for the mirror
	// bucket. Leave both empty to use the SDK's normal credential chain
	// (environment, shared config, instance profile).
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// NewConfig returns a Config with spec.md §6's default concurrency and
// the given repository connection string.
func NewConfig(repo string) *Config {
	return &Config{
		Repository:  RepositoryConfig{Repo: repo},
		Concurrency: 4,
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init creates a new config file at path, refusing to overwrite an
// existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
