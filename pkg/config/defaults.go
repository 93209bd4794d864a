package config

import (
	"os"
	"path/filepath"
)

// configDir returns ~/.config/flightops, or "." without a home directory.
func configDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "flightops")
}

// defaultDataDir returns the default JSONL record directory.
//
// Returns: ~/.config/flightops/data/.
func defaultDataDir() string {
	return filepath.Join(configDir(), "data")
}

// defaultCacheDBPath returns the default report cache file.
//
// Returns: ~/.config/flightops/cache.db.
func defaultCacheDBPath() string {
	return filepath.Join(configDir(), "cache.db")
}

// DefaultConfigPath returns the default configuration file path.
//
// Returns: ~/.config/flightops/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}
