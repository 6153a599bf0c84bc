package cli

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// connectionFlags holds the connection-related flag values shared by
// load, run and config.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	azure          bool
	azureTenantID  string
	azureClientID  string
	aws            bool
	awsRegion      string
	google         bool
	googleInstance string
}

// register adds the connection flags to cmd.
func (f *connectionFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username).\n"+
			"Alternative: Use PGSTAGE_CONNECTION_STRING or DATABASE_URL environment variable.\n"+
			"Example: postgresql://loader@localhost:5432/covid")

	// Precedence: flag > environment variable > pgstage.yaml > default
	flags.StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > 5432")
	flags.StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Target database (overrides the database of a connection string, default: $PGDATABASE)")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: prefer, or $PGSSLMODE)")

	flags.BoolVar(&f.azure, "azure", false,
		"Enable Azure Entra ID authentication\n"+
			"Uses DefaultAzureCredential chain (Managed Identity, Azure CLI, etc.)")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "",
		"Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "",
		"Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")

	flags.BoolVar(&f.aws, "aws", false,
		"Enable AWS RDS IAM authentication (uses the default AWS credential chain)")
	flags.StringVar(&f.awsRegion, "aws-region", "",
		"AWS region of the RDS instance (overrides $AWS_REGION)")

	flags.BoolVar(&f.google, "google", false,
		"Enable Google Cloud SQL IAM authentication")
	flags.StringVar(&f.googleInstance, "google-instance", "",
		"Cloud SQL instance connection name (project:region:instance)")

	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
}

func (f connectionFlags) granular() *db.GranularConnFlags {
	return &db.GranularConnFlags{
		Host:     f.host,
		Port:     f.port,
		Username: f.username,
		Database: f.database,
		SSLMode:  f.sslMode,
	}
}

func (f connectionFlags) cloud() *db.CloudFlags {
	return &db.CloudFlags{
		Azure:          f.azure,
		AzureTenantID:  f.azureTenantID,
		AzureClientID:  f.azureClientID,
		AWS:            f.aws,
		AWSRegion:      f.awsRegion,
		Google:         f.google,
		GoogleInstance: f.googleInstance,
	}
}

// resolveConnection resolves flags, environment and pgstage.yaml into a
// ConnectionConfig. A nil env reads the process environment.
func resolveConnection(flags connectionFlags, env *db.EnvVars, projectCfg *config.ProjectConfig) (*pgstage.ConnectionConfig, error) {
	if env == nil {
		env = db.LoadFromEnvironment()
	}
	return db.ResolveConnectionParams(flags.connection, flags.granular(), flags.cloud(), env, projectCfg)
}

// logConnectionVerbose logs the resolved connection. The password is never logged.
func logConnectionVerbose(logger pgstage.Logger, cfg *pgstage.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", cfg.Host)
	logger.Verbose("  Port: %d", cfg.Port)
	logger.Verbose("  User: %s", cfg.Username)
	logger.Verbose("  Database: %s", cfg.Database)
	logger.Verbose("  SSL Mode: %s", cfg.SSLMode)
	logger.Verbose("  Auth Method: %s", cfg.AuthMethod)
}

// connect opens a pool with the connector matching cfg.AuthMethod. The
// returned cleanup closes the pool and then the connector, if it holds resources.
func connect(ctx context.Context, cfg *pgstage.ConnectionConfig, logger pgstage.Logger) (*pgxpool.Pool, func(), error) {
	connector, err := db.NewConnector(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, nil, err
	}

	return pool, func() {
		pool.Close()
		if c, ok := connector.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Verbose("closing connector: %v", err)
			}
		}
	}, nil
}
