package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/the-cart-must-flow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "succeeds first time", failures: 0, err: errBoom, attempts: 3, wantCalls: 1},
		{name: "succeeds after transient failures", failures: 2, err: errBoom, attempts: 3, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, err: errBoom, attempts: 3, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "stops on non-retryable error",
			failures:  5,
			err:       &RetryableError{Err: errBoom, Retryable: false},
			attempts:  3,
			wantCalls: 1,
			wantErr:   errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), "write", func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, "write", func(context.Context) error {
		return errors.New("transient")
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRetry_ErrorNamesOperation(t *testing.T) {
	errBoom := errors.New("boom")
	err := WithRetry(context.Background(), "format sheet", func(context.Context) error {
		return errBoom
	}, fastRetry(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "format sheet")
}

func TestWithRetry_RateLimitWaitsMaxDelay(t *testing.T) {
	calls := 0
	started := time.Now()
	err := WithRetry(context.Background(), "write", func(context.Context) error {
		calls++
		if calls == 1 {
			return ErrRateLimit
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 20 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
}

func TestWithRetry_LogsTransientErrors(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLoggerTo(&buf, slog.LevelWarn, "console"))

	errs := []error{ErrSheetsUnavailable, errors.New("boom")}
	calls := 0
	err := WithRetry(context.Background(), "write", func(context.Context) error {
		calls++
		if calls <= len(errs) {
			return errs[calls-1]
		}
		return nil
	}, fastRetry(3))

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "transient=true")
	assert.Contains(t, out, "transient=false")
	assert.Contains(t, out, "operation=write")
}

func TestPermanent(t *testing.T) {
	assert.NoError(t, Permanent(nil))

	errBoom := errors.New("boom")
	err := Permanent(errBoom)
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(ErrSheetsUnavailable))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(ErrInvalidConfig))
}

func TestUserError(t *testing.T) {
	err := NewUserError("could not load rules", ErrNotFound)
	assert.Equal(t, "could not load rules: not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	bare := NewUserError("nothing to do", nil)
	assert.Equal(t, "nothing to do", bare.Error())
}

func TestInvalidConfigf(t *testing.T) {
	err := InvalidConfigf("min_support must be in (0,1], got %g", 1.5)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "1.5")
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error"} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
