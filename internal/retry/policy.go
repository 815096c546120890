package retry

import (
	"math"
	"math/rand/v2"
	"time"

	"ats-aggregator/internal/errors"
)

// Strategy selects how the delay grows with the attempt number.
type Strategy string

const (
	Fixed       Strategy = "fixed"
	Linear      Strategy = "linear"
	Exponential Strategy = "exponential"
)

// DefaultBaseDelay is the wait between attempts when none is configured.
const DefaultBaseDelay = time.Second

// ParseStrategy validates a configured strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case "", Fixed:
		return Fixed, nil
	case Linear, Exponential:
		return Strategy(name), nil
	default:
		return "", errors.Newf("unknown backoff strategy %q", name)
	}
}

// Policy decides whether a failed attempt is retried and how long to wait first.
type Policy interface {
	ShouldRetry(err error, attempt int) bool
	DelayFor(attempt int) time.Duration
}

// Backoff is the default Policy. The zero value waits one second between attempts.
type Backoff struct {
	Base     time.Duration
	Max      time.Duration
	Strategy Strategy
	// Jitter spreads each delay by a random factor in [1-Jitter, 1+Jitter].
	Jitter float64

	rand func() float64
}

// ShouldRetry reports whether err is transient. Attempt bounds belong to the Executor.
func (b Backoff) ShouldRetry(err error, attempt int) bool {
	if attempt < 1 {
		return false
	}
	return IsRetryable(err)
}

// DelayFor returns the wait before the attempt after the given 1-based attempt.
func (b Backoff) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := b.Base
	if base <= 0 {
		base = DefaultBaseDelay
	}

	delay := float64(base)
	switch b.Strategy {
	case Linear:
		delay *= float64(attempt)
	case Exponential:
		delay *= math.Pow(2, float64(attempt-1))
	}

	if b.Jitter > 0 {
		r := rand.Float64
		if b.rand != nil {
			r = b.rand
		}
		delay *= 1 + b.Jitter*(2*r()-1)
	}

	if b.Max > 0 && delay > float64(b.Max) {
		delay = float64(b.Max)
	}
	return time.Duration(delay)
}
