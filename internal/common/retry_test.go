package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remitware/remit/internal/service"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &RetryableError{Err: errors.New("database is locked"), Retryable: true}
		}
		return nil
	}, fastRetry(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid transition")
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: permanent, Retryable: false}
	}, fastRetry(3))

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "permanent errors must not be retried")
	assert.True(t, errors.Is(err, permanent))
	assert.False(t, errors.Is(err, ErrMaxRetries))
}

func TestWithRetryStopsOnUnmarkedError(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return errors.New("boom")
	}, fastRetry(3))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("still locked"), Retryable: true}
	}, fastRetry(2))

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.True(t, errors.Is(err, ErrMaxRetries))
}

func TestRetryableErrorUnwraps(t *testing.T) {
	inner := errors.New("inner")
	wrapped := &RetryableError{Err: inner, Retryable: false}
	assert.True(t, errors.Is(wrapped, inner))
}
