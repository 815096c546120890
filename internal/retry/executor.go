package retry

import (
	"context"
	"time"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
)

// DefaultMaxAttempts bounds an Executor built without an explicit limit.
const DefaultMaxAttempts = 3

// Attempt describes one failed invocation.
type Attempt struct {
	Number    int
	Err       error
	Delay     time.Duration
	WillRetry bool
}

// Observer is notified after every failed attempt.
type Observer func(Attempt)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor runs an operation under a Policy. It holds configuration only;
// all attempt state lives on the stack of a single Execute call.
type Executor struct {
	maxAttempts int
	policy      Policy
	sleep       Sleeper
	observers   []Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithObserver adds a callback for failed attempts.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithSleeper replaces the real timer, used by tests.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) {
		if s != nil {
			e.sleep = s
		}
	}
}

// NewExecutor builds an Executor. maxAttempts < 1 falls back to DefaultMaxAttempts
// and a nil policy to a fixed one-second Backoff.
func NewExecutor(maxAttempts int, policy Policy, opts ...Option) *Executor {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if policy == nil {
		policy = Backoff{}
	}
	e := &Executor{
		maxAttempts: maxAttempts,
		policy:      policy,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig builds an Executor with a Backoff policy from the retry section.
func NewFromConfig(cfg config.RetryConfig, opts ...Option) *Executor {
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		strategy = Fixed
	}
	policy := Backoff{
		Base:     cfg.BaseDelay,
		Max:      cfg.MaxDelay,
		Strategy: strategy,
		Jitter:   cfg.Jitter,
	}
	return NewExecutor(cfg.MaxAttempts, policy, opts...)
}

// MaxAttempts returns the attempt bound.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Execute runs op until it succeeds, fails terminally or runs out of attempts.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, e, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do is Execute for operations that return a value.
func Do[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !e.policy.ShouldRetry(err, attempt) {
			e.notify(Attempt{Number: attempt, Err: err})
			return zero, err
		}

		if attempt >= e.maxAttempts {
			e.notify(Attempt{Number: attempt, Err: err})
			return zero, &ExhaustedRetriesError{Attempts: attempt, Last: err}
		}

		delay := e.policy.DelayFor(attempt)
		e.notify(Attempt{Number: attempt, Err: err, Delay: delay, WillRetry: true})

		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return zero, errors.WithSecondaryError(
				errors.Wrapf(sleepErr, "retry interrupted after attempt %d", attempt), err)
		}
	}
}

func (e *Executor) notify(a Attempt) {
	for _, o := range e.observers {
		o(a)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
