package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader.
const (
	EnvConfig   = "FLIGHTOPS_CONFIG"
	EnvDataDir  = "FLIGHTOPS_DATA_DIR"
	EnvDSN      = "FLIGHTOPS_DB_DSN"
	EnvCacheDB  = "FLIGHTOPS_CACHE_DB"
	EnvLogLevel = "FLIGHTOPS_LOG_LEVEL"
	EnvTimezone = "FLIGHTOPS_TIMEZONE"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)

	// Path returns the configuration file Load reads, or "" if none exists.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, FLIGHTOPS_CONFIG is used, then the first existing
// file of:
// 1. ./flightops.yaml (current directory)
// 2. ~/.config/flightops/config.yaml.
func NewLoader(configPath string) Loader {
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	if configPath := l.Path(); configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly named file must load; a discovered one may not exist.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}

	candidates := []string{
		"./flightops.yaml",
		DefaultConfigPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero. Route
// labels are merged key by key.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Airport.Code != "" {
		result.Airport.Code = override.Airport.Code
	}
	if override.Airport.Timezone != "" {
		result.Airport.Timezone = override.Airport.Timezone
	}

	if override.Store.Driver != "" {
		result.Store.Driver = override.Store.Driver
	}
	if override.Store.DataDir != "" {
		result.Store.DataDir = override.Store.DataDir
	}
	if override.Store.DSN != "" {
		result.Store.DSN = override.Store.DSN
	}
	if override.Store.Table != "" {
		result.Store.Table = override.Store.Table
	}
	if override.Store.MaxRetries > 0 {
		result.Store.MaxRetries = override.Store.MaxRetries
	}
	if override.Store.RetryDelay > 0 {
		result.Store.RetryDelay = override.Store.RetryDelay
	}

	if override.Cache.Driver != "" {
		result.Cache.Driver = override.Cache.Driver
	}
	if override.Cache.DBPath != "" {
		result.Cache.DBPath = override.Cache.DBPath
	}
	if override.Cache.LiveTTL > 0 {
		result.Cache.LiveTTL = override.Cache.LiveTTL
	}
	if override.Cache.HistoricalTTL > 0 {
		result.Cache.HistoricalTTL = override.Cache.HistoricalTTL
	}

	if override.Reporting.TopN > 0 {
		result.Reporting.TopN = override.Reporting.TopN
	}
	if override.Reporting.MinRouteFlights > 0 {
		result.Reporting.MinRouteFlights = override.Reporting.MinRouteFlights
	}
	if override.Reporting.Granularity != "" {
		result.Reporting.Granularity = override.Reporting.Granularity
	}
	if override.Reporting.AutoDailyMaxDays > 0 {
		result.Reporting.AutoDailyMaxDays = override.Reporting.AutoDailyMaxDays
	}
	// TrackDelayPercentiles is a bool, so we always take the override value
	result.Reporting.TrackDelayPercentiles = override.Reporting.TrackDelayPercentiles

	routes := make(map[string]string, len(base.Routes)+len(override.Routes))
	for k, v := range base.Routes {
		routes[k] = v
	}
	for k, v := range override.Routes {
		routes[k] = v
	}
	result.Routes = routes

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - FLIGHTOPS_DATA_DIR: JSONL record directory
//   - FLIGHTOPS_DB_DSN: Postgres DSN; also selects the postgres driver
//   - FLIGHTOPS_CACHE_DB: Path to the bolt cache file
//   - FLIGHTOPS_LOG_LEVEL: Log level
//   - FLIGHTOPS_TIMEZONE: Airport time zone
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		result.Store.DataDir = dataDir
	}

	if dsn := os.Getenv(EnvDSN); dsn != "" {
		result.Store.DSN = dsn
		result.Store.Driver = StorePostgres
	}

	if dbPath := os.Getenv(EnvCacheDB); dbPath != "" {
		result.Cache.DBPath = dbPath
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if tz := os.Getenv(EnvTimezone); tz != "" {
		result.Airport.Timezone = tz
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
