package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidTimezone is returned when the airport zone cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid airport timezone")

	// ErrInvalidStoreDriver is returned when the store driver is not recognized.
	ErrInvalidStoreDriver = errors.New("invalid store driver: must be jsonl or postgres")

	// ErrNoDataDir is returned when the jsonl store has no data directory.
	ErrNoDataDir = errors.New("no data directory specified")

	// ErrNoDSN is returned when the postgres store has no DSN.
	ErrNoDSN = errors.New("no postgres DSN specified")

	// ErrInvalidMaxRetries is returned when max retries is <= 0.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be > 0")

	// ErrInvalidRetryDelay is returned when retry delay is <= 0.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be > 0")

	// ErrInvalidCacheDriver is returned when the cache driver is not recognized.
	ErrInvalidCacheDriver = errors.New("invalid cache driver: must be none, memory, or bolt")

	// ErrInvalidCacheTTL is returned when a cache TTL is <= 0.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL: must be > 0")

	// ErrNoCacheDBPath is returned when the bolt cache has no file.
	ErrNoCacheDBPath = errors.New("no cache database path specified")

	// ErrInvalidTopN is returned when top_n is <= 0.
	ErrInvalidTopN = errors.New("invalid top_n: must be > 0")

	// ErrInvalidMinRouteFlights is returned when min_route_flights is <= 0.
	ErrInvalidMinRouteFlights = errors.New("invalid min_route_flights: must be > 0")

	// ErrInvalidAutoDailyMaxDays is returned when auto_daily_max_days is <= 0.
	ErrInvalidAutoDailyMaxDays = errors.New("invalid auto_daily_max_days: must be > 0")

	// ErrInvalidGranularity is returned when granularity is not recognized.
	ErrInvalidGranularity = errors.New("invalid granularity: must be day, month, or auto")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
