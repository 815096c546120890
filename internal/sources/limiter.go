package sources

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
)

// ErrCircuitOpen is returned while a host's circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// hostState is the token bucket and breaker for one upstream host.
type hostState struct {
	limiter      *rate.Limiter
	state        CircuitState
	failureCount int
	lastFailure  time.Time
	requests     int64
	failures     int64
}

// LimiterConfig tunes the outbound limiter.
type LimiterConfig struct {
	DefaultPerMinute int
	Burst            int
	MaxFailures      int
	ResetTimeout     time.Duration
}

// RateLimiter throttles outbound requests per upstream host and trips a
// circuit breaker after consecutive failures. It is safe for concurrent use.
type RateLimiter struct {
	cfg    LimiterConfig
	hosts  map[string]*hostState
	mu     sync.Mutex
	now    func() time.Time
	logger logging.Logger
}

// NewRateLimiter creates a limiter. Zero config fields take the defaults of
// 60 requests per minute, burst 5, 5 failures and a 30s reset.
func NewRateLimiter(cfg LimiterConfig, logger logging.Logger) *RateLimiter {
	if cfg.DefaultPerMinute <= 0 {
		cfg.DefaultPerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &RateLimiter{
		cfg:    cfg,
		hosts:  make(map[string]*hostState),
		now:    time.Now,
		logger: logger.WithField("component", "rate_limiter"),
	}
}

// Wait blocks until host may be called or ctx is done. perMinute applies when
// the host is first seen; 0 uses the default.
func (rl *RateLimiter) Wait(ctx context.Context, host string, perMinute int) error {
	host = strings.ToLower(host)

	rl.mu.Lock()
	hs := rl.host(host, perMinute)
	if !rl.admit(host, hs) {
		rl.mu.Unlock()
		return errors.Wrapf(ErrCircuitOpen, "host %s", host)
	}
	hs.requests++
	limiter := hs.limiter
	rl.mu.Unlock()

	return limiter.Wait(ctx)
}

// RecordSuccess closes a half-open breaker
func (rl *RateLimiter) RecordSuccess(host string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	hs, ok := rl.hosts[strings.ToLower(host)]
	if !ok {
		return
	}
	if hs.state == CircuitHalfOpen {
		rl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{"host": host})
	}
	hs.state = CircuitClosed
	hs.failureCount = 0
}

// RecordFailure counts a failed request and opens the breaker at the threshold
func (rl *RateLimiter) RecordFailure(host string, err error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	hs := rl.host(strings.ToLower(host), 0)
	hs.failures++
	hs.failureCount++
	hs.lastFailure = rl.now()

	if hs.state == CircuitHalfOpen || (hs.state == CircuitClosed && hs.failureCount >= rl.cfg.MaxFailures) {
		hs.state = CircuitOpen
		rl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"host":     host,
			"failures": hs.failureCount,
			"error":    err.Error(),
		})
	}
}

// HostStats are the counters and breaker state of one upstream host
type HostStats struct {
	Host      string  `json:"host"`
	Requests  int64   `json:"requests"`
	Failures  int64   `json:"failures"`
	State     string  `json:"circuitState"`
	PerSecond float64 `json:"perSecond"`
	Burst     int     `json:"burst"`
}

// Stats returns every host seen so far, sorted by host
func (rl *RateLimiter) Stats() []HostStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := make([]HostStats, 0, len(rl.hosts))
	for host, hs := range rl.hosts {
		stats = append(stats, HostStats{
			Host:      host,
			Requests:  hs.requests,
			Failures:  hs.failures,
			State:     hs.state.String(),
			PerSecond: float64(hs.limiter.Limit()),
			Burst:     hs.limiter.Burst(),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Host < stats[j].Host })
	return stats
}

// host must be called with rl.mu held
func (rl *RateLimiter) host(host string, perMinute int) *hostState {
	if hs, ok := rl.hosts[host]; ok {
		return hs
	}
	if perMinute <= 0 {
		perMinute = rl.cfg.DefaultPerMinute
	}
	hs := &hostState{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), rl.cfg.Burst),
	}
	rl.hosts[host] = hs
	return hs
}

// admit must be called with rl.mu held
func (rl *RateLimiter) admit(host string, hs *hostState) bool {
	switch hs.state {
	case CircuitOpen:
		if rl.now().Sub(hs.lastFailure) < rl.cfg.ResetTimeout {
			return false
		}
		hs.state = CircuitHalfOpen
		rl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{"host": host})
		return true
	default:
		return true
	}
}
