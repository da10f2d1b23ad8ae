package upstream

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Error is returned for any transport-level failure talking to an upstream API.
// StatusCode is zero when no HTTP response was received.
type Error struct {
	Upstream   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Upstream, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Upstream, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasStatus reports whether the upstream answered with a non-2xx response,
// as opposed to the request never completing.
func (e *Error) HasStatus() bool {
	return e.StatusCode > 0
}

// outage reports whether the failure says something about the upstream's
// health: transport failures, 429 and 5xx. Cancelled requests do not.
func (e *Error) outage() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	return e.retryable()
}

func (e *Error) retryable() bool {
	if !e.HasStatus() {
		return !errors.Is(e.Err, ErrCircuitOpen)
	}
	return errors.Is(e.Err, ErrRateLimited) || errors.Is(e.Err, ErrServerError)
}
