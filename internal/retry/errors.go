package retry

import (
	"context"
	"fmt"
	"net/http"

	"ats-aggregator/internal/errors"
)

// Class is the retryability tag carried by an UpstreamError.
type Class int

const (
	// Unclassified errors are judged by their status code.
	Unclassified Class = iota
	// Transient errors are worth another attempt.
	Transient
	// Terminal errors propagate immediately.
	Terminal
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Terminal:
		return "terminal"
	default:
		return "unclassified"
	}
}

// ErrExhaustedRetries matches every *ExhaustedRetriesError.
var ErrExhaustedRetries = errors.New("retry attempts exhausted")

// retryableStatus lists the upstream statuses that are retried without an explicit tag.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryableStatus reports whether an HTTP status is transient.
func RetryableStatus(code int) bool {
	return retryableStatus[code]
}

// UpstreamError is a failed call to an external job board.
type UpstreamError struct {
	Source     string
	Op         string
	StatusCode int
	Class      Class
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Source
	if e.Op != "" {
		msg += " " + e.Op
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable resolves the classification, falling back to the status code.
func (e *UpstreamError) Retryable() bool {
	switch e.Class {
	case Transient:
		return true
	case Terminal:
		return false
	default:
		return RetryableStatus(e.StatusCode)
	}
}

// Auth reports whether the upstream rejected our credentials.
func (e *UpstreamError) Auth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NewTransient tags err as retryable.
func NewTransient(source, op string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Op: op, Class: Transient, Err: err}
}

// NewTerminal tags err as non-retryable.
func NewTerminal(source, op string, err error) *UpstreamError {
	return &UpstreamError{Source: source, Op: op, Class: Terminal, Err: err}
}

// FromStatus builds an unclassified error that is judged by its status code.
func FromStatus(source, op string, code int) *UpstreamError {
	return &UpstreamError{
		Source:     source,
		Op:         op,
		StatusCode: code,
		Err:        errors.Newf("unexpected status %s", http.StatusText(code)),
	}
}

// ExhaustedRetriesError is returned once every attempt failed with a retryable error.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error { return e.Last }

func (e *ExhaustedRetriesError) Is(target error) bool {
	return target == ErrExhaustedRetries
}

// IsRetryable classifies any error in a chain. Only a tagged UpstreamError
// can be retryable; anything else is treated as terminal.
func IsRetryable(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable()
	}
	return false
}

// ClassOf reports the effective class of err, for logs and metrics.
func ClassOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	if errors.Is(err, ErrExhaustedRetries) {
		return "exhausted"
	}
	if IsRetryable(err) {
		return Transient.String()
	}
	return Terminal.String()
}
