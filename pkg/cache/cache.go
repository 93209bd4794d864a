// Package cache stores finished reports under normalized request keys with
// a time-to-live.
//
// Two implementations are provided: an in-memory map for a single process,
// and a bbolt file that survives restarts of the CLI.
package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/period"
)

// Cache is a key-value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. ok is false when the key is missing
	// or expired.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl. A non-positive ttl stores nothing.
	Set(key string, value []byte, ttl time.Duration) error

	// Purge removes every entry.
	Purge() error

	// Close releases resources.
	Close() error
}

// Clock returns the current time.
type Clock func() time.Time

// Common errors returned by caches.
var (
	// ErrEmptyKey is returned for an empty cache key.
	ErrEmptyKey = errors.New("cache key cannot be empty")

	// ErrCacheClosed is returned when using a closed cache.
	ErrCacheClosed = errors.New("cache is closed")
)

// Key builds the cache key of a request.
//
// The filter is normalized first, so requests that select the same records
// share a key regardless of list order or letter case.
func Key(kind string, periods []period.Period, f flight.Filter, groupBy string) string {
	f = f.Normalize()

	parts := []string{
		kind,
		strings.Join(lo.Map(periods, func(p period.Period, _ int) string { return p.String() }), ","),
		"airlines=" + strings.Join(f.AirlineCodes, ","),
		"routes=" + strings.Join(f.Routes, ","),
		"op=" + strings.ToUpper(f.OperationTypeID),
		"group=" + strings.ToLower(strings.TrimSpace(groupBy)),
	}
	return strings.Join(parts, "|")
}
