package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/cache"
	"github.com/0xmhha/flightops/pkg/config"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/report"
	"github.com/0xmhha/flightops/pkg/store"
)

// runtime is everything a report command needs, built from configuration.
type runtime struct {
	cfg      *config.Config
	log      logger.Logger
	reporter analytics.Reporter

	// cache is nil when caching is disabled.
	cache cache.Cache

	// files is nil unless records come from JSONL files.
	files *store.FileStore

	closers []func() error
}

func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(a.configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// open wires store, cache and service from configuration.
func (a *app) open(ctx context.Context) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	rt := &runtime{cfg: cfg, log: log}

	st, err := rt.openStore(ctx)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	granularity, err := report.ParseGranularity(cfg.Reporting.Granularity)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	svcCfg := analytics.Config{
		Report: report.Config{
			TopN:             cfg.Reporting.TopN,
			MinRouteFlights:  cfg.Reporting.MinRouteFlights,
			Granularity:      granularity,
			AutoDailyMaxDays: cfg.Reporting.AutoDailyMaxDays,
			Routes:           report.RouteDirectory(cfg.Routes),
		},
		Location:              cfg.Location(),
		TrackDelayPercentiles: cfg.Reporting.TrackDelayPercentiles,
	}
	var reporter analytics.Reporter = analytics.NewService(st, svcCfg, log)

	if err := rt.openCache(); err != nil {
		_ = rt.Close()
		return nil, err
	}
	if rt.cache != nil {
		reporter = analytics.WithCache(reporter, rt.cache, analytics.CacheConfig{
			LiveTTL:       cfg.Cache.LiveTTL,
			HistoricalTTL: cfg.Cache.HistoricalTTL,
			Location:      cfg.Location(),
			Scope:         svcCfg.Fingerprint(),
		}, log)
	}

	rt.reporter = reporter
	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) (store.RecordStore, error) {
	switch rt.cfg.Store.Driver {
	case config.StorePostgres:
		db, err := store.OpenPostgres(ctx, rt.cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		pg, err := store.NewPostgres(db, rt.cfg.Store.Table, rt.log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pg.Close)
		return pg, nil

	default:
		fs, err := store.NewFileStore(store.FileConfig{
			DataDir:    rt.cfg.Store.DataDir,
			MaxRetries: rt.cfg.Store.MaxRetries,
			RetryDelay: rt.cfg.Store.RetryDelay,
		}, rt.log)
		if err != nil {
			return nil, err
		}
		rt.files = fs
		rt.closers = append(rt.closers, fs.Close)
		return fs, nil
	}
}

func (rt *runtime) openCache() error {
	switch rt.cfg.Cache.Driver {
	case config.CacheBolt:
		b, err := cache.NewBolt(cache.BoltConfig{DBPath: rt.cfg.Cache.DBPath}, rt.log)
		if err != nil {
			return err
		}
		rt.cache = b
	case config.CacheMemory:
		rt.cache = cache.NewMemory(nil)
	default:
		return nil
	}
	rt.closers = append(rt.closers, rt.cache.Close)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
