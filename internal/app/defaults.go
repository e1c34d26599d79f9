package app

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetDefaults returns resticdu's default paths, checking environment
// variables first and otherwise resolving against the OS's per-user
// config/cache/state directories via adrg/xdg (spec.md §6: the cache
// defaults to "the OS per-user cache directory").
//
// Environment variables:
//   - RESTICDU_CONFIG_PATH: config file location (default: xdg.ConfigHome/resticdu/config.toml)
//   - RESTICDU_CACHE_DIR: aggregation cache directory (default: xdg.CacheHome/resticdu)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	cacheDir, err := getCacheDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"cache_dir":   cacheDir,
		"log_dir":     filepath.Join(xdg.StateHome, "resticdu", "log"),
	}, nil
}

// getConfigPath returns the config file path, checking RESTICDU_CONFIG_PATH
// first, then falling back to the XDG config directory.
func getConfigPath() (string, error) {
	if path := os.Getenv("RESTICDU_CONFIG_PATH"); path != "" {
		return path, nil
	}
	return filepath.Join(xdg.ConfigHome, "resticdu", "config.toml"), nil
}

// getCacheDir returns the aggregation cache directory, checking
// RESTICDU_CACHE_DIR first, then falling back to the XDG cache directory.
func getCacheDir() (string, error) {
	if path := os.Getenv("RESTICDU_CACHE_DIR"); path != "" {
		return path, nil
	}
	return filepath.Join(xdg.CacheHome, "resticdu"), nil
}
