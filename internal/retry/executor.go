package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Executor runs an operation, retrying it while the classifier reports the
// failure as transient and the strategy allows another attempt.
type Executor struct {
	classifier pgstage.ErrorClassifier
	strategy   pgstage.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier pgstage.ErrorClassifier, strategy pgstage.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a copy of the executor that calls callback before each
// backoff wait. The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation once, then retries transient failures.
// A fatal error is returned unchanged. When retries are exhausted the last
// error is wrapped with the number of attempts made.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	if err == nil || !e.classifier.IsTransient(err) {
		return err
	}

	maxAttempts := e.strategy.MaxAttempts()
	if maxAttempts == 0 {
		return err
	}

	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
		if err == nil || !e.classifier.IsTransient(err) {
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts+1, err)
}
