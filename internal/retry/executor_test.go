package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyOperation fails with transientErr until call number succeedAt.
type flakyOperation struct {
	calls     int
	succeedAt int
	failWith  error
}

func (f *flakyOperation) run(context.Context) error {
	f.calls++
	if f.calls >= f.succeedAt {
		return nil
	}
	if f.failWith != nil {
		return f.failWith
	}
	return &pgconn.PgError{Code: "08006", Message: "connection failure"}
}

func fastBackoff(attempts int) *ExponentialBackoff {
	return NewExponentialBackoff(attempts, WithInitialDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond), WithJitter(0))
}

func TestExecutor_SuccessOnFirstAttempt(t *testing.T) {
	op := &flakyOperation{succeedAt: 1}
	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(3)).Execute(context.Background(), op.run)

	require.NoError(t, err)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_SuccessAfterRetries(t *testing.T) {
	op := &flakyOperation{succeedAt: 3}
	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).Execute(context.Background(), op.run)

	require.NoError(t, err)
	assert.Equal(t, 3, op.calls)
}

func TestExecutor_FatalErrorNotRetried(t *testing.T) {
	fatal := &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	op := &flakyOperation{succeedAt: 10, failWith: fatal}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5)).Execute(context.Background(), op.run)

	assert.Same(t, fatal, err)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_Exhausted(t *testing.T) {
	op := &flakyOperation{succeedAt: 100}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(2)).Execute(context.Background(), op.run)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, 3, op.calls)
}

func TestExecutor_NoRetries(t *testing.T) {
	op := &flakyOperation{succeedAt: 100}

	err := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(0)).Execute(context.Background(), op.run)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := NewExponentialBackoff(5, WithInitialDelay(time.Hour), WithMaxDelay(time.Hour), WithJitter(0))
	executor := NewExecutor(NewPostgreSQLErrorClassifier(), slow).WithOnRetry(func(int, error, time.Duration) {
		cancel()
	})

	op := &flakyOperation{succeedAt: 100}
	err := executor.Execute(ctx, op.run)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_OnRetryCallback(t *testing.T) {
	var attempts []int
	var delays []time.Duration
	base := NewExecutor(NewPostgreSQLErrorClassifier(), fastBackoff(5))
	executor := base.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	})

	op := &flakyOperation{succeedAt: 4}
	require.NoError(t, executor.Execute(context.Background(), op.run))

	assert.Equal(t, []int{0, 1, 2}, attempts)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
	assert.Nil(t, base.onRetry, "WithOnRetry must not modify the receiver")
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, fastBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewPostgreSQLErrorClassifier(), nil) })
}
