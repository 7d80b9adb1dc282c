package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserErrorMessage(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewUserError("failed to open database", cause)

	assert.Equal(t, "failed to open database: disk I/O error", err.Error())

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "failed to open database", userErr.UserMessage)
	assert.True(t, errors.Is(err, cause))
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := NewUserError("nothing to import", nil)
	assert.Equal(t, "nothing to import", err.Error())
}

func TestUserErrorWrapsSentinel(t *testing.T) {
	err := NewUserError("no claim with that number", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"plain error", errors.New("boom"), false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, true},
		{"marked retryable", &RetryableError{Err: errors.New("db locked"), Retryable: true}, true},
		{"marked permanent", &RetryableError{Err: errors.New("invalid transition"), Retryable: false}, false},
		{"not found", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
