package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"

	cache "github.com/krisalay/weather-cache"
	"github.com/krisalay/weather-cache/config"
	"github.com/krisalay/weather-cache/engine"
	"github.com/krisalay/weather-cache/fetch"
	"github.com/krisalay/weather-cache/location"
	"github.com/krisalay/weather-cache/metrics"
	"github.com/krisalay/weather-cache/syncer"
	"github.com/krisalay/weather-cache/tier"
	"github.com/krisalay/weather-cache/tiered"
	"github.com/krisalay/weather-cache/weather"
	"github.com/krisalay/weather-cache/writepolicy"
)

// app is everything a command needs, built from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *tier.SQLite
	root     *cache.PartitionedCache
	weather  *weather.Service
	registry *location.Registry
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "weathercache",
	})
	return slog.New(handler), nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	wcfg, err := weather.ConfigFromEnv()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	db, err := tier.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Opened durable store", slog.String("path", cfg.Storage.Path))

	var hot tier.Store = tier.NewMemory()
	if cfg.Cache.MemoryCapacity > 0 {
		hot = tier.NewBounded(cfg.Cache.MemoryCapacity)
	}
	var policy writepolicy.Policy = writepolicy.Lazy{}
	if cfg.Cache.WarmOnSet {
		policy = writepolicy.NewWarm(hot)
	}

	rec, err := metrics.New(otel.Meter("github.com/krisalay/weather-cache"), cfg.Cache.Prefix)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ns := tiered.NewNamespace(hot, db, policy, cfg.Cache.LockStripes)
	root := cache.New(ns, cache.Config{
		KeyPrefix:  cfg.Cache.Prefix,
		TTLSeconds: cfg.Cache.RootTTL(),
	}, engine.NewCacheEngine(nil, rec, logger, nil))

	fetchOpts := []fetch.Option{fetch.WithLogger(logger)}
	if cfg.Cache.Coalesce {
		fetchOpts = append(fetchOpts, fetch.WithCoalescing())
	}
	svc := weather.NewService(weather.NewClient(wcfg, nil), root, weather.PartitionTTLs{
		Conditions: cfg.Cache.ConditionsTTL(),
		Forecasts:  cfg.Cache.ForecastTTL(),
	}, fetchOpts...)

	reg, err := location.NewRegistry(ctx, db, location.WithLogger(logger))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		root:     root,
		weather:  svc,
		registry: reg,
	}, nil
}

func (a *app) controller() *syncer.Controller[weather.CurrentConditions] {
	opts := []syncer.Option{
		syncer.WithLogger(a.logger),
		syncer.WithConcurrency(a.cfg.Sync.Concurrency),
	}
	if a.cfg.Sync.EvictOnRemove {
		opts = append(opts, syncer.WithEvictOnRemove())
	}
	return syncer.New(a.registry, a.weather.Conditions(), a.weather.ConditionsProducer, opts...)
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp runs fn with an app opened for the command and closes it after.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.logger.Warn("Closing durable store", slog.Any("error", cerr))
		}
	}()
	return fn(a)
}
