package analytics

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/0xmhha/flightops/pkg/cache"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
	"github.com/0xmhha/flightops/pkg/report"
)

// Default cache lifetimes.
const (
	DefaultLiveTTL       = 5 * time.Minute
	DefaultHistoricalTTL = time.Hour
)

// CacheConfig contains report cache configuration.
type CacheConfig struct {
	// LiveTTL applies when a requested range reaches today or later.
	// Default: 5m.
	LiveTTL time.Duration

	// HistoricalTTL applies when every requested range ended before today.
	// Default: 1h.
	HistoricalTTL time.Duration

	// Location decides what "today" is.
	// Default: UTC.
	Location *time.Location

	// Now overrides time.Now.
	Now func() time.Time

	// Scope prefixes every key. Wrap reporters built with different
	// settings under different scopes, e.g. Config.Fingerprint.
	Scope string
}

// cachedReporter memoizes another Reporter.
type cachedReporter struct {
	next   Reporter
	cache  cache.Cache
	config CacheConfig
	logger logger.Logger
	group  singleflight.Group
}

// WithCache wraps next so finished results are stored in c.
//
// Concurrent identical requests share one computation. Cache failures are
// logged and the request is served by next.
func WithCache(next Reporter, c cache.Cache, cfg CacheConfig, log logger.Logger) Reporter {
	if cfg.LiveTTL == 0 {
		cfg.LiveTTL = DefaultLiveTTL
	}
	if cfg.HistoricalTTL == 0 {
		cfg.HistoricalTTL = DefaultHistoricalTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &cachedReporter{
		next:   next,
		cache:  c,
		config: cfg,
		logger: log.Component("report-cache"),
	}
}

// Report implements Reporter.Report.
func (c *cachedReporter) Report(ctx context.Context, req Request) (*report.PeriodReport, error) {
	key, ttl, ok := c.plan("report", req)
	if !ok {
		return c.next.Report(ctx, req)
	}
	return memoize(c, key, ttl, func() (*report.PeriodReport, error) {
		return c.next.Report(ctx, req)
	})
}

// Compare implements Reporter.Compare.
func (c *cachedReporter) Compare(ctx context.Context, current, previous Request) (*comparison.Comparison, error) {
	key, ttl, ok := c.plan("compare", current, previous)
	if !ok {
		return c.next.Compare(ctx, current, previous)
	}
	return memoize(c, key, ttl, func() (*comparison.Comparison, error) {
		return c.next.Compare(ctx, current, previous)
	})
}

// CompareMany implements Reporter.CompareMany.
func (c *cachedReporter) CompareMany(ctx context.Context, reqs ...Request) (*comparison.MultiComparison, error) {
	key, ttl, ok := c.plan("compare_many", reqs...)
	if !ok || len(reqs) < 2 {
		return c.next.CompareMany(ctx, reqs...)
	}
	return memoize(c, key, ttl, func() (*comparison.MultiComparison, error) {
		return c.next.CompareMany(ctx, reqs...)
	})
}

// Custom implements Reporter.Custom.
func (c *cachedReporter) Custom(ctx context.Context, req Request) (*CustomReport, error) {
	key, ttl, ok := c.plan("custom", req)
	if !ok || req.GroupBy == "" {
		return c.next.Custom(ctx, req)
	}
	return memoize(c, key, ttl, func() (*CustomReport, error) {
		return c.next.Custom(ctx, req)
	})
}

// plan returns the cache key and TTL for a set of requests. ok is false
// when a request does not validate; such requests go straight to next,
// which reports the error.
func (c *cachedReporter) plan(kind string, reqs ...Request) (key string, ttl time.Duration, ok bool) {
	today := period.Date(c.config.Now().In(c.config.Location))
	ttl = c.config.HistoricalTTL

	keys := make([]string, 0, len(reqs))
	for _, req := range reqs {
		p, err := req.Period()
		if err != nil {
			return "", 0, false
		}
		if !p.To.Before(today) {
			ttl = c.config.LiveTTL
		}
		keys = append(keys, cache.Key(kind, []period.Period{p}, req.Filter, req.GroupBy))
	}

	key = strings.Join(keys, "||")
	if c.config.Scope != "" {
		key = "scope=" + c.config.Scope + "|" + key
	}
	return key, ttl, true
}

// memoize serves key from the cache or computes, stores and returns it.
func memoize[T any](c *cachedReporter, key string, ttl time.Duration, compute func() (*T, error)) (*T, error) {
	data, hit, err := c.cache.Get(key)
	switch {
	case err != nil:
		c.logger.Warn("cache read failed, bypassing", "key", key, "error", err)
	case hit:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.logger.Debug("cache hit", "key", key)
			return &v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		res, err := compute()
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(res)
		if err != nil {
			c.logger.Warn("failed to encode result for cache", "key", key, "error", err)
			return res, nil
		}
		if err := c.cache.Set(key, payload, ttl); err != nil {
			c.logger.Warn("cache write failed", "key", key, "error", err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cache miss", "key", key, "ttl", ttl, "shared", shared)
	return v.(*T), nil
}
