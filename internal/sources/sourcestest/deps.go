// Package sourcestest provides adapter dependencies for tests: an in-memory
// logger, a limiter that never throttles and executors that do not sleep.
package sourcestest

import (
	"context"
	"time"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/logging/adapters"
	"ats-aggregator/internal/retry"
	"ats-aggregator/internal/sources"
)

// Deps returns adapter deps backed by cfg, or config.Default() when nil,
// together with the memory sink the logger writes to.
func Deps(cfg *config.Config) (sources.Deps, *adapters.MemoryAdapter) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger, memory := logging.NewMemoryLogger()
	return sources.Deps{
		Config:       cfg,
		Logger:       logger,
		Limiter:      sources.NewRateLimiter(sources.LimiterConfig{DefaultPerMinute: 600000, Burst: 1000, MaxFailures: 1000}, logger),
		RetryOptions: []retry.Option{retry.WithSleeper(NoSleep)},
	}, memory
}

// NoSleep skips retry delays.
func NoSleep(context.Context, time.Duration) error { return nil }
