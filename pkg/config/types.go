// Package config provides configuration management for flightops.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Airport: %s (%s)\n", cfg.Airport.Code, cfg.Airport.Timezone)
package config

import (
	"time"
	_ "time/tzdata"
)

// Store drivers.
const (
	StoreJSONL    = "jsonl"
	StorePostgres = "postgres"
)

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheBolt   = "bolt"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Airport.Timezone must load with time.LoadLocation
// - Store.DataDir must be set for the jsonl driver
// - Store.DSN must be set for the postgres driver
// - Cache TTLs must be > 0 unless the cache driver is none
// - Reporting.TopN and Reporting.MinRouteFlights must be > 0.
type Config struct {
	// Airport the records belong to
	Airport AirportConfig `yaml:"airport"`

	// Record store settings
	Store StoreConfig `yaml:"store"`

	// Report cache settings
	Cache CacheConfig `yaml:"cache"`

	// Report shaping settings
	Reporting ReportingConfig `yaml:"reporting"`

	// Route label directory, route -> destination name
	Routes map[string]string `yaml:"routes"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// AirportConfig identifies the reporting airport.
type AirportConfig struct {
	// IATA code, informational
	Code string `yaml:"code"`

	// IANA zone used for hour-of-day peaks and for "today"
	Timezone string `yaml:"timezone"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	// Driver (jsonl, postgres)
	Driver string `yaml:"driver"`

	// Directory of *.jsonl record files
	DataDir string `yaml:"data_dir"`

	// Postgres connection string
	DSN string `yaml:"dsn"`

	// Postgres table holding flight legs
	Table string `yaml:"table"`

	// Read attempts for transient file errors
	MaxRetries int `yaml:"max_retries"`

	// Initial retry delay, doubled per attempt
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	// Driver (none, memory, bolt)
	Driver string `yaml:"driver"`

	// Path to BoltDB database file
	DBPath string `yaml:"db_path"`

	// TTL for reports whose range reaches today
	LiveTTL time.Duration `yaml:"live_ttl"`

	// TTL for reports over past ranges
	HistoricalTTL time.Duration `yaml:"historical_ttl"`
}

// ReportingConfig contains report builder settings.
type ReportingConfig struct {
	TopN             int    `yaml:"top_n"`
	MinRouteFlights  int    `yaml:"min_route_flights"`
	Granularity      string `yaml:"granularity"`
	AutoDailyMaxDays int    `yaml:"auto_daily_max_days"`

	// Keep per-leg delays for P50/P95
	TrackDelayPercentiles bool `yaml:"track_delay_percentiles"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Location returns the airport time zone.
//
// Callers are expected to have run Validate; an unloadable zone yields UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Airport.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns the first violated invariant as one of the package's sentinel
// errors.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Airport.Timezone); err != nil {
		return ErrInvalidTimezone
	}

	switch c.Store.Driver {
	case StoreJSONL:
		if c.Store.DataDir == "" {
			return ErrNoDataDir
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return ErrNoDSN
		}
	default:
		return ErrInvalidStoreDriver
	}
	if c.Store.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.Store.RetryDelay <= 0 {
		return ErrInvalidRetryDelay
	}

	switch c.Cache.Driver {
	case CacheNone:
	case CacheMemory, CacheBolt:
		if c.Cache.LiveTTL <= 0 || c.Cache.HistoricalTTL <= 0 {
			return ErrInvalidCacheTTL
		}
		if c.Cache.Driver == CacheBolt && c.Cache.DBPath == "" {
			return ErrNoCacheDBPath
		}
	default:
		return ErrInvalidCacheDriver
	}

	if c.Reporting.TopN <= 0 {
		return ErrInvalidTopN
	}
	if c.Reporting.MinRouteFlights <= 0 {
		return ErrInvalidMinRouteFlights
	}
	if c.Reporting.AutoDailyMaxDays <= 0 {
		return ErrInvalidAutoDailyMaxDays
	}
	validGranularities := map[string]bool{
		"day":   true,
		"month": true,
		"auto":  true,
	}
	if !validGranularities[c.Reporting.Granularity] {
		return ErrInvalidGranularity
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Airport: AirportConfig{
			Timezone: "UTC",
		},
		Store: StoreConfig{
			Driver:     StoreJSONL,
			DataDir:    defaultDataDir(),
			Table:      "flight_legs",
			MaxRetries: 3,
			RetryDelay: 100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Driver:        CacheBolt,
			DBPath:        defaultCacheDBPath(),
			LiveTTL:       5 * time.Minute,
			HistoricalTTL: time.Hour,
		},
		Reporting: ReportingConfig{
			TopN:             10,
			MinRouteFlights:  3,
			Granularity:      "auto",
			AutoDailyMaxDays: 62,
		},
		Routes: map[string]string{},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
