package retry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Policy controls how Do executes an operation.
type Policy struct {
	MaxAttempts int           // total attempts, not retries; minimum 1
	BaseDelay   time.Duration // first backoff sleep
	Multiplier  float64       // backoff growth factor per attempt
	MaxDelay    time.Duration // backoff ceiling; 0 means uncapped
	Jitter      bool          // randomize each sleep in [delay/2, delay)
	Timeout     time.Duration // hard budget for the whole attempt sequence; 0 means none
	RetryIf     func(error) bool
}

// DefaultPolicy matches the provider clients' historical behavior: three
// retries with 1s/2s/4s backoff under a two minute budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
		Timeout:     2 * time.Minute,
	}
}

// Outcome is the tagged result of an executed operation: either Value is
// valid (Err == nil) or Err describes the final failure. Never both.
// Attempts counts how many times the operation ran.
type Outcome[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// OK reports whether the operation ultimately succeeded.
func (o Outcome[T]) OK() bool { return o.Err == nil }

// Do executes op under the policy and returns an Outcome. It never returns
// an error and never panics outward, so every caller is forced to branch on
// the outcome explicitly. The only side effect is one structured log line
// per attempt.
func Do[T any](ctx context.Context, logger *zap.Logger, name string, p Policy, op func(context.Context) (T, error)) Outcome[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 1
	}
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = IsRetryable
	}

	var cancel context.CancelFunc
	if p.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var zero T
	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			sleep := delay
			if p.MaxDelay > 0 && sleep > p.MaxDelay {
				sleep = p.MaxDelay
			}
			if p.Jitter && sleep > 0 {
				sleep = sleep/2 + time.Duration(rand.Int63n(int64(sleep/2)+1))
			}
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return Outcome[T]{Value: zero, Err: budgetErr(ctx, name, p.Timeout), Attempts: attempt - 1}
			}
			delay = time.Duration(float64(delay) * p.Multiplier)
		}

		value, err := op(ctx)
		if err == nil {
			logger.Debug("operation succeeded",
				zap.String("operation", name),
				zap.Int("attempt", attempt))
			return Outcome[T]{Value: value, Attempts: attempt}
		}
		lastErr = err
		logger.Warn("operation attempt failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if ctx.Err() != nil {
			return Outcome[T]{Value: zero, Err: budgetErr(ctx, name, p.Timeout), Attempts: attempt}
		}
		if !retryIf(err) {
			return Outcome[T]{Value: zero, Err: err, Attempts: attempt}
		}
	}

	return Outcome[T]{Value: zero, Err: lastErr, Attempts: p.MaxAttempts}
}

// budgetErr converts a context expiry into the distinguishable timeout type
// when a deadline was the cause; caller cancellation is passed through
// untouched.
func budgetErr(ctx context.Context, name string, budget time.Duration) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &TimeoutError{Operation: name, Budget: budget}
	}
	return ctx.Err()
}
