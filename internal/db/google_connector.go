package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/internal/retry"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// GoogleCloudSQLConnector connects to a Cloud SQL instance through the Cloud
// SQL Go connector with automatic IAM database authentication.
//
// It implements io.Closer; Close must run after the pool is closed.
type GoogleCloudSQLConnector struct {
	config        *pgstage.ConnectionConfig
	instance      string // project:region:instance
	logger        pgstage.Logger
	retryExecutor *retry.Executor
	dialer        *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for the given instance connection name.
func NewGoogleCloudSQLConnector(config *pgstage.ConnectionConfig, instance string, logger pgstage.Logger) *GoogleCloudSQLConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &GoogleCloudSQLConnector{
		config:        config,
		instance:      instance,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

// poolConfig builds a pool config whose connections are dialed through d.
// The dialer provides TLS, so PostgreSQL-level SSL is disabled.
func (c *GoogleCloudSQLConnector) poolConfig(d *cloudsqlconn.Dialer) (*pgxpool.Config, error) {
	dsn := fmt.Sprintf("user=%s dbname=%s sslmode=disable", c.config.Username, c.config.Database)
	if c.config.AppName != "" {
		dsn += " application_name=" + c.config.AppName
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	cfg.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return d.Dial(ctx, c.instance)
	}
	configurePool(cfg, c.logger)
	return cfg, nil
}

// Connect creates the dialer once and retries opening the pool on transient failures.
func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	d, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", pgstage.ErrConnectionFailed, err)
	}

	cfg, err := c.poolConfig(d)
	if err != nil {
		d.Close()
		return nil, err
	}

	var pool *pgxpool.Pool
	err = c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return wrapConnectionError(err, c.instance, 0, c.config.Database)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return wrapConnectionError(err, c.instance, 0, c.config.Database)
		}
		pool = p
		return nil
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	c.logger.Verbose("connected to Cloud SQL instance %s as %s", c.instance, c.config.Username)
	c.dialer = d
	return pool, nil
}

// Close releases the Cloud SQL dialer. It is safe to call more than once.
func (c *GoogleCloudSQLConnector) Close() error {
	if c.dialer == nil {
		return nil
	}
	err := c.dialer.Close()
	c.dialer = nil
	return err
}
