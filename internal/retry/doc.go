// Package retry retries connection establishment with exponential backoff.
//
// Only connecting to PostgreSQL is retried. Loads are never retried: a failed
// COPY is rolled back and surfaced to the caller as is.
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    pool, err = pgxpool.New(ctx, connStr)
//	    return err
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a copy.
package retry
