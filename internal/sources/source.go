// Package sources defines the job-board adapter contract, the registry that
// builds adapters from configuration, and the helpers adapters share.
package sources

import (
	"context"
	"fmt"
	"net/http"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging"
	"ats-aggregator/internal/retry"
	"ats-aggregator/pkg/models"
)

// Source is one applicant tracking system. Search returns normalized postings
// whose Source field equals ID(). Zero matches is an empty slice, not an error.
type Source interface {
	ID() string
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Posting, error)
}

// Constructor builds a ready-to-search adapter or rejects its configuration.
type Constructor func(id string, cfg config.SourceConfig, deps Deps) (Source, error)

// Deps are the process-level collaborators handed to every constructor.
type Deps struct {
	Config     *config.Config
	Logger     logging.Logger
	Limiter    *RateLimiter
	HTTPClient *http.Client
	// Observer receives every failed upstream attempt, tagged with the source id.
	Observer func(source string, attempt retry.Attempt)
	// RetryOptions are appended to every executor built from these deps.
	RetryOptions []retry.Option
}

// NewExecutor builds the retrying executor an adapter owns, logging each
// failed attempt and forwarding it to deps.Observer.
func (d Deps) NewExecutor(source string, opts ...retry.Option) *retry.Executor {
	cfg := config.RetryConfig{}
	if d.Config != nil {
		cfg = d.Config.Retry
	}
	logger := d.logger().WithField("source", source)

	observe := func(a retry.Attempt) {
		fields := map[string]interface{}{
			"attempt":    a.Number,
			"error":      a.Err.Error(),
			"will_retry": a.WillRetry,
		}
		if a.WillRetry {
			fields["delay_ms"] = a.Delay.Milliseconds()
		}
		logger.Warn("upstream attempt failed", fields)
		if d.Observer != nil {
			d.Observer(source, a)
		}
	}

	all := append([]retry.Option{retry.WithObserver(observe)}, d.RetryOptions...)
	return retry.NewFromConfig(cfg, append(all, opts...)...)
}

// SourceLogger returns the deps logger tagged with the source id.
func (d Deps) SourceLogger(source string) logging.Logger {
	return d.logger().WithField("source", source)
}

func (d Deps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.GetGlobalLogger()
}

var (
	// ErrUnsupportedSource is returned for ids with no registered constructor.
	ErrUnsupportedSource = errors.New("unsupported ATS source")
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("source configuration error")
)

// ConfigurationError excludes a source before any network activity.
type ConfigurationError struct {
	Source string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("source %s: %s", e.Source, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Misconfigured builds a ConfigurationError.
func Misconfigured(source, format string, args ...interface{}) error {
	return &ConfigurationError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
