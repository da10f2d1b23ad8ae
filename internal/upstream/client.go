package upstream

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of zero disables retries entirely.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// StateDisabled is reported by State when no breaker is configured.
const StateDisabled = "disabled"

// BreakerConfig controls the optional circuit breaker. A disabled breaker
// keeps every call independent of the calls before it.
type BreakerConfig struct {
	Enabled bool
	// Consecutive failures that open the circuit. Zero means 5.
	FailureThreshold uint32
	// Calls let through while half-open. Zero means 1.
	HalfOpenRequests uint32
	// How long the circuit stays open. Zero means 2 minutes.
	OpenTimeout time.Duration
}

// Config describes one upstream API.
type Config struct {
	Name    string
	Timeout time.Duration
	Backoff BackoffConfig
	Breaker BreakerConfig
}

// Client performs GET requests against a single upstream with a circuit breaker
// and optional retries.
type Client struct {
	name    string
	http    *resty.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient builds a Client. A zero Timeout leaves resty's default in place.
func NewClient(cfg Config) *Client {
	rc := resty.New().SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		rc.SetTimeout(cfg.Timeout)
	}

	return &Client{
		name:    cfg.Name,
		http:    rc,
		backoff: cfg.Backoff,
		circuit: newBreaker(cfg.Name, cfg.Breaker),
	}
}

func newBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 2 * time.Minute
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    1 * time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only upstream outages count; a 4xx is the caller's problem.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var upErr *Error
			return errors.As(err, &upErr) && !upErr.outage()
		},
	})
}

func (c *Client) Name() string {
	return c.name
}

// State returns the circuit breaker state ("closed", "half-open" or "open"),
// or "disabled" when the client runs without a breaker.
func (c *Client) State() string {
	if c.circuit == nil {
		return StateDisabled
	}
	return c.circuit.State().String()
}

func (c *Client) execute(fn func() (interface{}, error)) (interface{}, error) {
	if c.circuit == nil {
		return fn()
	}
	return c.circuit.Execute(fn)
}

// GetJSON issues GET endpoint?params and decodes a 2xx body into out.
// Transport failures and non-2xx responses are returned as *Error; a body that
// does not decode is returned as a plain wrapped error.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s response", c.name)
	}
	return nil
}

// get executes the request with retries, exponential backoff and the circuit breaker.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.backoff.MaxRetries < 0 || (c.backoff.MaxRetries > 0 && c.backoff.InitialInterval <= 0) {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, &Error{Upstream: c.name, Err: ctx.Err()}
		}

		result, err := c.execute(func() (interface{}, error) {
			resp, execErr := c.http.R().
				SetContext(ctx).
				SetQueryParamsFromValues(params).
				Get(endpoint)
			if execErr != nil {
				return nil, &Error{Upstream: c.name, Err: execErr}
			}

			// Handle rate limiting and server errors explicitly.
			code := resp.StatusCode()
			if code == http.StatusTooManyRequests {
				return nil, &Error{Upstream: c.name, StatusCode: code, Err: ErrRateLimited}
			}
			if code >= 500 {
				return nil, &Error{Upstream: c.name, StatusCode: code, Err: ErrServerError}
			}
			if code < 200 || code >= 300 {
				return nil, &Error{Upstream: c.name, StatusCode: code, Err: ErrUnexpected}
			}

			return resp.Body(), nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Upstream: c.name, Err: errors.Wrap(ErrCircuitOpen, err.Error())}
		}

		var upErr *Error
		if !errors.As(err, &upErr) {
			return nil, err
		}
		if attempt >= c.backoff.MaxRetries || !upErr.retryable() {
			return nil, upErr
		}

		// Backoff with exponential delay.
		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.backoff.MaxInterval && c.backoff.MaxInterval > 0 {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &Error{Upstream: c.name, Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}
