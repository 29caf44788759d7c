package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts:     maxAttempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		Multiplier:      1.0,
		RandomizeFactor: 0,
		RetryIf:         func(error) bool { return true },
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	r := New(fastConfig(3))

	calls := 0
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUpToMaxAttempts(t *testing.T) {
	r := New(fastConfig(2))

	calls := 0
	opErr := errors.New("still failing")
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		return opErr
	})

	assert.Equal(t, 2, calls, "at most one retry on the request path")
	assert.Equal(t, 2, result.Attempts)
	assert.ErrorIs(t, result.Err, opErr)
}

func TestDoRecoversOnRetry(t *testing.T) {
	r := New(fastConfig(2))

	calls := 0
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Attempts)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = func(error) bool { return false }
	r := New(cfg)

	calls := 0
	result := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("permanent")
	})

	assert.Equal(t, 1, calls)
	assert.Error(t, result.Err)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	r := New(fastConfig(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := r.Do(ctx, func(context.Context) error {
		t.Fatal("operation must not run after cancellation")
		return nil
	})
	assert.Error(t, result.Err)
}

func TestDefaultRetryIf(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, DefaultRetryIf(&TemporaryError{Err: base}))
	assert.False(t, DefaultRetryIf(&PermanentError{Err: base}))
}

func TestTemporaryErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := &TemporaryError{Err: base}

	assert.ErrorIs(t, wrapped, base)
	assert.True(t, wrapped.Temporary())
}

func TestDefaultConfigBoundsAttempts(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.MaxAttempts)
}
