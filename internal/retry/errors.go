// Package retry implements the resilient call executor every network-facing
// component builds on: typed error classification, bounded exponential
// backoff, and a hard per-call timeout that is distinguishable from ordinary
// transient failures.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TimeoutError indicates the executor's overall timeout budget was exceeded.
// Callers treat it differently from generic transient errors: the verify
// orchestrator's circuit breaker trips on this type and on nothing else.
type TimeoutError struct {
	Operation string
	Budget    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %v", e.Operation, e.Budget)
}

// RateLimitError indicates the provider returned a rate limit response.
// Callers can use errors.As to detect this type and back off.
type RateLimitError struct {
	Provider    string
	RetryAfter  time.Duration
	RawResponse string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limit exceeded, retry after %v", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s rate limit exceeded", e.Provider)
}

// AuthError indicates a 401/403 from the provider. Never retried: the call
// cannot succeed until the operator fixes the credential.
type AuthError struct {
	Provider   string
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed (status %d): check the configured API credential", e.Provider, e.StatusCode)
}

// HTTPError carries a non-2xx provider status that is neither a rate limit
// nor an auth failure.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsTimeout reports whether err is (or wraps) an executor timeout or a
// context deadline. This is the breaker-tripping class.
func IsTimeout(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsAuth reports whether err is (or wraps) an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsRetryable is the default retry predicate: transient network errors,
// rate limits, and 5xx statuses are retryable; auth failures, other 4xx,
// timeouts, and context cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsTimeout(err) || IsAuth(err) || errors.Is(err, context.Canceled) {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500
	}
	var ne net.Error
	return errors.As(err, &ne)
}
