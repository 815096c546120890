package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
)

func newTestLimiter(t *testing.T, cfg LimiterConfig) (*RateLimiter, *time.Time) {
	t.Helper()
	logger, _ := logging.NewMemoryLogger()
	rl := NewRateLimiter(cfg, logger)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

// breaker reads host's state from Stats; unseen hosts are closed
func breaker(rl *RateLimiter, host string) string {
	for _, hs := range rl.Stats() {
		if hs.Host == host {
			return hs.State
		}
	}
	return CircuitClosed.String()
}

func TestRateLimiter_CircuitBreaker(t *testing.T) {
	rl, now := newTestLimiter(t, LimiterConfig{MaxFailures: 2, ResetTimeout: time.Minute, DefaultPerMinute: 6000})
	ctx := context.Background()
	boom := errors.New("503")

	require.NoError(t, rl.Wait(ctx, "api.example.com", 0))
	rl.RecordFailure("api.example.com", boom)
	assert.Equal(t, CircuitClosed.String(), breaker(rl, "api.example.com"))

	rl.RecordFailure("API.example.com", boom)
	assert.Equal(t, CircuitOpen.String(), breaker(rl, "api.example.com"), "hosts are case-insensitive")

	err := rl.Wait(ctx, "api.example.com", 0)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.NoError(t, rl.Wait(ctx, "other.example.com", 0), "breakers are per host")

	*now = now.Add(time.Minute)
	require.NoError(t, rl.Wait(ctx, "api.example.com", 0))
	assert.Equal(t, CircuitHalfOpen.String(), breaker(rl, "api.example.com"))

	rl.RecordSuccess("api.example.com")
	assert.Equal(t, CircuitClosed.String(), breaker(rl, "api.example.com"))

	stats := rl.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "api.example.com", stats[0].Host)
	assert.Equal(t, int64(2), stats[0].Requests)
	assert.Equal(t, int64(2), stats[0].Failures)
	assert.Equal(t, "closed", stats[0].State)
	assert.Equal(t, float64(100), stats[0].PerSecond)
	assert.Equal(t, 5, stats[0].Burst)
	assert.Equal(t, "other.example.com", stats[1].Host)
}

func TestRateLimiter_HalfOpenFailureReopens(t *testing.T) {
	rl, now := newTestLimiter(t, LimiterConfig{MaxFailures: 1, ResetTimeout: time.Second, DefaultPerMinute: 6000})
	ctx := context.Background()

	rl.RecordFailure("h", errors.New("down"))
	assert.Equal(t, CircuitOpen.String(), breaker(rl, "h"))

	*now = now.Add(2 * time.Second)
	require.NoError(t, rl.Wait(ctx, "h", 0))
	rl.RecordFailure("h", errors.New("still down"))
	assert.Equal(t, CircuitOpen.String(), breaker(rl, "h"))
	assert.ErrorIs(t, rl.Wait(ctx, "h", 0), ErrCircuitOpen)
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl, _ := newTestLimiter(t, LimiterConfig{DefaultPerMinute: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, rl.Wait(ctx, "slow", 0), "burst admits the first request")
	cancel()
	assert.Error(t, rl.Wait(ctx, "slow", 0))
}
