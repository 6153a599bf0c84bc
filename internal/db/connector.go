package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/internal/retry"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool. A load holds one connection at a time;
	// the rest serve concurrent jobs of a `run`.
	DefaultMaxConns = 4

	// DefaultMinConns keeps no idle connection open between jobs.
	DefaultMinConns = 0

	// DefaultMaxConnIdleTime keeps connections alive across a multi-job run.
	DefaultMaxConnIdleTime = 30 * time.Minute

	// tokenExpiryWarning is the remaining lifetime below which a token warning is logged.
	tokenExpiryWarning = 5 * time.Minute
)

// configurePool applies pool limits and routes server notices to the logger.
func configurePool(poolConfig *pgxpool.Config, logger pgstage.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("%s: %s", notice.Severity, notice.Message)
	}
}

// newRetryExecutor builds the executor shared by all password-style connectors.
func newRetryExecutor(logger pgstage.Logger) *retry.Executor {
	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(pgstage.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgstage.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgstage.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(classifier, strategy).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("connection attempt %d failed, retrying in %v: %v", attempt+1, delay, err)
	})
}

// openPool parses connStr, creates the pool and pings it once.
func openPool(ctx context.Context, connStr string, config *pgstage.ConnectionConfig, logger pgstage.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	configurePool(poolConfig, logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}

	return pool, nil
}

// StandardConnector implements the Connector interface for standard
// username/password authentication with automatic retry on transient failures.
type StandardConnector struct {
	config        *pgstage.ConnectionConfig
	logger        pgstage.Logger
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
// Retry behavior uses pgstage defaults: DefaultRetryMaxAttempts attempts,
// exponential backoff starting at DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *pgstage.ConnectionConfig, logger pgstage.Logger) *StandardConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &StandardConnector{
		config:        config,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	connStr := BuildConnectionString(c.config)

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		var err error
		pool, err = openPool(ctx, connStr, c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *pgstage.ConnectionConfig, logger pgstage.Logger) (pgstage.Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	switch config.AuthMethod {
	case pgstage.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case pgstage.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case pgstage.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case pgstage.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, pgstage.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The result always matches pgstage.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s: %w

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port
  - Firewall blocking the connection

Original error: %w`, addr, pgstage.ErrConnectionFailed, host, port, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s": %w

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, host, pgstage.ErrConnectionFailed, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s": %w

Possible causes:
  - Wrong password (check $PGPASSWORD or ~/.pgpass)
  - Wrong username
  - User does not have access to the database

Original error: %w`, database, pgstage.ErrConnectionFailed, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist: %w

To create it:
  createdb %s

Original error: %w`, database, pgstage.ErrConnectionFailed, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s: %w

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, addr, pgstage.ErrConnectionFailed, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		return fmt.Errorf(`SSL/TLS connection error: %w

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (try --sslmode=require)
  - Client certificates missing (check sslcert, sslkey in the connection string)

Original error: %w`, pgstage.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to database "%s": %w

Possible causes:
  - max_connections limit reached in postgresql.conf
  - Stale connections from previous loads

Try: SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s';

Original error: %w`, database, pgstage.ErrConnectionFailed, database, err)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", pgstage.ErrConnectionFailed, err)
	}
}

// newAWSConnector creates a token-based connector signing RDS IAM tokens.
func newAWSConnector(config *pgstage.ConnectionConfig, logger pgstage.Logger) (pgstage.Connector, error) {
	provider, err := newRDSTokenProvider(config)
	if err != nil {
		return nil, err
	}
	return NewTokenBasedConnector(config, provider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *pgstage.ConnectionConfig, logger pgstage.Logger) (pgstage.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", pgstage.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", pgstage.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector creates a token-based connector requesting Entra ID tokens.
func newAzureConnector(config *pgstage.ConnectionConfig, logger pgstage.Logger) (pgstage.Connector, error) {
	provider, err := newAzureTokenProvider(config)
	if err != nil {
		return nil, err
	}
	return NewTokenBasedConnector(config, provider, "Azure", logger), nil
}
