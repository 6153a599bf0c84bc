package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/internal/retry"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// A fresh token is acquired for every attempt and used as the password.
type TokenBasedConnector struct {
	config        *pgstage.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	logger        pgstage.Logger
	retryExecutor *retry.Executor
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error and warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *pgstage.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger pgstage.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		logger:        logger,
		retryExecutor: newRetryExecutor(logger),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		c.logger.Verbose("acquired token from %s", c.tokenProvider)

		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		withToken := *c.config
		withToken.Password = token

		pool, err = openPool(ctx, BuildConnectionString(&withToken), c.config, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
