// Package app assembles the registry, aggregator and cache from
// configuration. The server and the CLI share it.
package app

import (
	"context"
	"net/http"

	"ats-aggregator/internal/aggregator"
	"ats-aggregator/internal/cache"
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/metrics"
	"ats-aggregator/internal/search"
	"ats-aggregator/internal/sources"
	"ats-aggregator/internal/sources/builtin"
)

// App holds the long-lived services built from one configuration
type App struct {
	Config     *config.Config
	Logger     logging.Logger
	Limiter    *sources.RateLimiter
	Registry   *sources.Registry
	Aggregator *aggregator.Aggregator
	Search     *search.Service

	redis *cache.RedisCache
}

// New builds the services. A Redis cache that cannot be reached is replaced
// by the in-process cache rather than failing startup.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	a := &App{Config: cfg, Logger: logger}
	a.Limiter = sources.NewRateLimiter(sources.LimiterConfig{}, logger)
	a.Registry = builtin.NewRegistry(cfg, sources.Deps{
		Config:     cfg,
		Logger:     logger,
		Limiter:    a.Limiter,
		HTTPClient: &http.Client{Timeout: cfg.Scraper.RequestTimeout},
		Observer:   metrics.ObserveAttempt,
	})

	for _, s := range a.Registry.Statuses() {
		if s.Status != sources.StatusReady {
			logger.Warn("source enabled but misconfigured", map[string]interface{}{"source": s.ID, "reason": s.Reason})
		}
	}
	enabled := a.Registry.ListEnabled()
	metrics.EnabledSources.Set(float64(len(enabled)))
	logger.Info("sources registered", map[string]interface{}{"enabled": enabled, "supported": a.Registry.Supported()})

	opts := []aggregator.Option{
		aggregator.WithLogger(logger),
		aggregator.WithRecorder(metrics.Recorder{}),
		aggregator.WithSourceTimeout(cfg.Aggregator.SourceTimeout),
	}
	if c := a.resultCache(ctx); c != nil {
		opts = append(opts, aggregator.WithCache(c, cfg.Aggregator.CacheTTL))
	}

	a.Aggregator = aggregator.New(a.Registry, opts...)
	a.Search = search.NewService(a.Aggregator)
	return a, nil
}

func (a *App) resultCache(ctx context.Context) aggregator.Cache {
	if a.Config.Aggregator.CacheTTL <= 0 {
		return nil
	}
	if !a.Config.Redis.Enabled {
		return cache.NewMemory()
	}

	rc := cache.NewRedisCache(a.Config, a.Logger)
	if err := rc.Ping(ctx); err != nil {
		a.Logger.Warn("redis unavailable, using in-process cache", map[string]interface{}{"error": err.Error()})
		_ = rc.Close()
		return cache.NewMemory()
	}
	a.redis = rc
	return rc
}

// Close releases the Redis connection, if any
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
