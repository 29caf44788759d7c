// Package retry provides bounded retry with backoff for the external
// calls on the recommendation path. Everything user-facing here is
// capped: a call is retried at most once unless configured otherwise.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts     int              // Total attempts, including the first
	InitialDelay    time.Duration    // Delay before the first retry
	MaxDelay        time.Duration    // Upper bound on any delay
	Multiplier      float64          // Backoff multiplier
	RandomizeFactor float64          // Jitter factor (0-1)
	RetryIf         func(error) bool // Predicate deciding retryability
}

// DefaultConfig returns the default configuration for request-path
// calls: one retry with a fixed short backoff.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:     2,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        2 * time.Second,
		Multiplier:      1.0,
		RandomizeFactor: 0.1,
		RetryIf:         DefaultRetryIf,
	}
}

// Operation is a retryable operation.
type Operation func(ctx context.Context) error

// Result contains the outcome of a retried operation.
type Result struct {
	Attempts int
	Duration time.Duration
	Err      error
}

// Retrier executes operations under a retry policy.
type Retrier struct {
	config *Config
}

// New creates a retrier, normalizing degenerate configuration values.
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.RandomizeFactor < 0 {
		config.RandomizeFactor = 0
	} else if config.RandomizeFactor > 1 {
		config.RandomizeFactor = 1
	}
	if config.RetryIf == nil {
		config.RetryIf = DefaultRetryIf
	}
	return &Retrier{config: config}
}

// Do executes the operation, retrying per the configured policy.
func (r *Retrier) Do(ctx context.Context, op Operation) *Result {
	start := time.Now()
	result := &Result{}

	var lastErr error
	delay := r.config.InitialDelay

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result.Attempts = attempt

		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("context cancelled: %w", err)
			break
		}

		err := op(ctx)
		if err == nil {
			result.Duration = time.Since(start)
			return result
		}
		lastErr = err

		if !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			break
		}

		select {
		case <-time.After(r.jitter(delay)):
			delay = r.next(delay)
		case <-ctx.Done():
			lastErr = fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
			result.Duration = time.Since(start)
			result.Err = lastErr
			return result
		}
	}

	result.Duration = time.Since(start)
	result.Err = lastErr
	return result
}

func (r *Retrier) jitter(delay time.Duration) time.Duration {
	if r.config.RandomizeFactor == 0 {
		return delay
	}
	delta := float64(delay) * r.config.RandomizeFactor
	return time.Duration(float64(delay) - delta + rand.Float64()*2*delta)
}

func (r *Retrier) next(current time.Duration) time.Duration {
	nextDelay := time.Duration(float64(current) * r.config.Multiplier)
	if nextDelay > r.config.MaxDelay {
		return r.config.MaxDelay
	}
	return nextDelay
}

// TemporaryError marks an error as retryable.
type TemporaryError struct {
	Err error
}

func (e *TemporaryError) Error() string {
	return fmt.Sprintf("temporary error: %v", e.Err)
}

func (e *TemporaryError) Unwrap() error { return e.Err }

func (e *TemporaryError) Temporary() bool { return true }

// PermanentError marks an error as non-retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// DefaultRetryIf is the default retry predicate: honor Temporary(),
// refuse PermanentError, otherwise retry.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	type temporary interface {
		Temporary() bool
	}
	var te temporary
	if errors.As(err, &te) {
		return te.Temporary()
	}

	var permErr *PermanentError
	if errors.As(err, &permErr) {
		return false
	}

	return true
}

// Retry executes the operation with the default request-path policy.
func Retry(ctx context.Context, op Operation) error {
	result := New(DefaultConfig()).Do(ctx, op)
	return result.Err
}
