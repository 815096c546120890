package retry

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
)

// recordingSleeper captures requested delays without waiting.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewExecutor(3, Backoff{}, WithSleeper(sleeper.sleep))

	calls := 0
	err := exec.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestExecute_AlwaysRetryableExhaustsAttempts(t *testing.T) {
	for _, maxAttempts := range []int{1, 3, 5} {
		sleeper := &recordingSleeper{}
		exec := NewExecutor(maxAttempts, Backoff{}, WithSleeper(sleeper.sleep))

		calls := 0
		err := exec.Execute(context.Background(), func(context.Context) error {
			calls++
			return FromStatus("stub", "search", http.StatusServiceUnavailable)
		})

		assert.Equal(t, maxAttempts, calls)
		assert.Len(t, sleeper.delays, maxAttempts-1)
		require.ErrorIs(t, err, ErrExhaustedRetries)

		var exhausted *ExhaustedRetriesError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, maxAttempts, exhausted.Attempts)

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream, "the final underlying error stays reachable")
		assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	}
}

func TestExecute_TerminalErrorInvokedOnce(t *testing.T) {
	terminal := []error{
		FromStatus("stub", "search", http.StatusUnauthorized),
		FromStatus("stub", "search", http.StatusNotFound),
		NewTerminal("stub", "decode", stderrors.New("unexpected end of JSON input")),
		stderrors.New("untagged failure"),
	}

	for _, want := range terminal {
		sleeper := &recordingSleeper{}
		exec := NewExecutor(3, Backoff{}, WithSleeper(sleeper.sleep))

		calls := 0
		err := exec.Execute(context.Background(), func(context.Context) error {
			calls++
			return want
		})

		assert.Equal(t, 1, calls)
		assert.Same(t, want, err, "terminal errors propagate unchanged")
		assert.NotErrorIs(t, err, ErrExhaustedRetries)
		assert.Empty(t, sleeper.delays)
	}
}

func TestDo_RateLimitedTwiceThenSucceeds(t *testing.T) {
	sleeper := &recordingSleeper{}
	var observed []Attempt
	exec := NewExecutor(3, Backoff{Base: time.Second}, WithSleeper(sleeper.sleep), WithObserver(func(a Attempt) {
		observed = append(observed, a)
	}))

	calls := 0
	result, err := Do(context.Background(), exec, func(context.Context) ([]string, error) {
		calls++
		if calls <= 2 {
			return nil, FromStatus("stub", "search", http.StatusTooManyRequests)
		}
		return []string{"posting"}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"posting"}, result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, sleeper.delays)

	require.Len(t, observed, 2)
	for i, a := range observed {
		assert.Equal(t, i+1, a.Number)
		assert.True(t, a.WillRetry)
	}
}

func TestExecute_ExplicitTransientTag(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewExecutor(2, Backoff{}, WithSleeper(sleeper.sleep))

	calls := 0
	err := exec.Execute(context.Background(), func(context.Context) error {
		calls++
		return NewTransient("stub", "fetch", stderrors.New("connection reset by peer"))
	})

	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrExhaustedRetries)
}

func TestExecute_CancelledDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := NewExecutor(3, Backoff{}, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	calls := 0
	err := exec.Execute(ctx, func(context.Context) error {
		calls++
		return FromStatus("stub", "search", http.StatusBadGateway)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_StateIsPerInvocation(t *testing.T) {
	sleeper := &recordingSleeper{}
	exec := NewExecutor(2, Backoff{}, WithSleeper(sleeper.sleep))

	failing := func(context.Context) error {
		return FromStatus("stub", "search", http.StatusGatewayTimeout)
	}
	for i := 0; i < 3; i++ {
		calls := 0
		_ = exec.Execute(context.Background(), func(ctx context.Context) error {
			calls++
			return failing(ctx)
		})
		assert.Equal(t, 2, calls, "every call starts from attempt one")
	}
}

func TestBackoff_ShouldRetry(t *testing.T) {
	policy := Backoff{}

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, policy.ShouldRetry(FromStatus("s", "op", code), 1), "status %d", code)
	}
	for _, code := range []int{400, 401, 403, 404, 409, 422, 501} {
		assert.False(t, policy.ShouldRetry(FromStatus("s", "op", code), 1), "status %d", code)
	}

	tagged := &UpstreamError{Source: "s", StatusCode: http.StatusServiceUnavailable, Class: Terminal}
	assert.False(t, policy.ShouldRetry(tagged, 1), "explicit tag overrides the status")

	assert.False(t, policy.ShouldRetry(FromStatus("s", "op", 503), 0))
	assert.False(t, policy.ShouldRetry(context.Canceled, 1))
}

func TestBackoff_DelayStrategies(t *testing.T) {
	tests := []struct {
		name     string
		policy   Backoff
		expected []time.Duration
	}{
		{
			name:     "zero value is fixed one second",
			policy:   Backoff{},
			expected: []time.Duration{time.Second, time.Second, time.Second},
		},
		{
			name:     "linear",
			policy:   Backoff{Base: 500 * time.Millisecond, Strategy: Linear},
			expected: []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond},
		},
		{
			name:     "exponential capped",
			policy:   Backoff{Base: time.Second, Strategy: Exponential, Max: 3 * time.Second},
			expected: []time.Duration{time.Second, 2 * time.Second, 3 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.expected {
				assert.Equal(t, want, tt.policy.DelayFor(i+1))
			}
		})
	}
}

func TestBackoff_Jitter(t *testing.T) {
	low := Backoff{Base: time.Second, Jitter: 0.5, rand: func() float64 { return 0 }}
	high := Backoff{Base: time.Second, Jitter: 0.5, rand: func() float64 { return 1 }}

	assert.Equal(t, 500*time.Millisecond, low.DelayFor(1))
	assert.Equal(t, 1500*time.Millisecond, high.DelayFor(1))
}

func TestNewFromConfig(t *testing.T) {
	exec := NewFromConfig(config.RetryConfig{MaxAttempts: 4, BaseDelay: 10 * time.Millisecond, Strategy: "linear"})
	assert.Equal(t, 4, exec.MaxAttempts())

	backoff, ok := exec.policy.(Backoff)
	require.True(t, ok)
	assert.Equal(t, Linear, backoff.Strategy)

	assert.Equal(t, DefaultMaxAttempts, NewFromConfig(config.RetryConfig{}).MaxAttempts())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Fixed, s)

	_, err = ParseStrategy("random")
	assert.Error(t, err)
}

func TestClassOf(t *testing.T) {
	assert.Equal(t, "transient", ClassOf(FromStatus("s", "op", http.StatusTooManyRequests)))
	assert.Equal(t, "terminal", ClassOf(FromStatus("s", "op", http.StatusNotFound)))
	assert.Equal(t, "exhausted", ClassOf(&ExhaustedRetriesError{Attempts: 3}))
	assert.Equal(t, "cancelled", ClassOf(context.Canceled))
	assert.Equal(t, "timeout", ClassOf(context.DeadlineExceeded))
	assert.Equal(t, "terminal", ClassOf(stderrors.New("boom")))
}
