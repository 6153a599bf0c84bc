package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is deliberately not a flag. Use $PGPASSWORD, ~/.pgpass or a
// connection string instead.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no connection-related granular flags were provided.
// Database is excluded: -d may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects a token-based authentication method from the CLI.
// The Azure client secret is only read from $AZURE_CLIENT_SECRET.
type CloudFlags struct {
	Azure         bool
	AzureTenantID string
	AzureClientID string

	AWS       bool
	AWSRegion string

	Google         bool
	GoogleInstance string
}

func (c *CloudFlags) count() int {
	n := 0
	for _, on := range []bool{c.Azure || c.AzureTenantID != "" || c.AzureClientID != "", c.AWS, c.Google} {
		if on {
			n++
		}
	}
	return n
}

// EnvVars represents the environment variables consulted during resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	PGSTAGE_CONNECTION_STRING string
	DATABASE_URL              string // Heroku/Rails convention

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string

	AWS_REGION string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                    os.Getenv("PGHOST"),
		PGPORT:                    os.Getenv("PGPORT"),
		PGUSER:                    os.Getenv("PGUSER"),
		PGPASSWORD:                os.Getenv("PGPASSWORD"),
		PGDATABASE:                os.Getenv("PGDATABASE"),
		PGSSLMODE:                 os.Getenv("PGSSLMODE"),
		PGSTAGE_CONNECTION_STRING: os.Getenv("PGSTAGE_CONNECTION_STRING"),
		DATABASE_URL:              os.Getenv("DATABASE_URL"),
		AZURE_TENANT_ID:           os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:           os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:       os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                os.Getenv("AWS_REGION"),
	}
}

// ConnectionString returns PGSTAGE_CONNECTION_STRING, falling back to DATABASE_URL.
func (e *EnvVars) ConnectionString() string {
	if e.PGSTAGE_CONNECTION_STRING != "" {
		return e.PGSTAGE_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves connection parameters using this precedence:
//
//  1. --connection flag
//  2. $PGSTAGE_CONNECTION_STRING, then $DATABASE_URL (only when no granular flags are set)
//  3. Granular flags (-h, -p, -U, -d, --sslmode)
//  4. PG* environment variables
//  5. The connection block of pgstage.yaml
//  6. Defaults (localhost:5432, sslmode=prefer)
//
// A -d flag always overrides the database named in a connection string.
// The auth method is taken from cloud flags, then pgstage.yaml, then the
// presence of Azure environment variables.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgstage.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/covid\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U loader -d covid\n"+
				"  3. Environment variables: export PGHOST=localhost PGUSER=loader PGDATABASE=covid: %w",
			pgstage.ErrInvalidConfig,
		)
	}
	if cloudFlags.count() > 1 {
		return nil, fmt.Errorf("choose at most one of --azure, --aws, --google: %w", pgstage.ErrInvalidConfig)
	}

	connStr := connStringFlag
	if connStr == "" && granularFlags.IsEmpty() {
		connStr = envVars.ConnectionString()
	}

	var cfg *pgstage.ConnectionConfig
	var err error
	if connStr != "" {
		cfg, err = resolveFromConnectionString(connStr, envVars)
		if err == nil && granularFlags.Database != "" {
			cfg.Database = granularFlags.Database
		}
	} else {
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if err := applyAuthMethod(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyAuthMethod selects the auth method and fills in its provider settings.
func applyAuthMethod(cfg *pgstage.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method := pgstage.AuthMethodStandard
	switch {
	case flags.AWS:
		method = pgstage.AuthMethodAWSIAM
	case flags.Google:
		method = pgstage.AuthMethodGoogleIAM
	case flags.Azure || flags.AzureTenantID != "" || flags.AzureClientID != "":
		method = pgstage.AuthMethodAzureEntraID
	case pc.AuthMethod != "":
		parsed, err := pgstage.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return fmt.Errorf("invalid auth_method in %s: %w", config.ConfigFileName, err)
		}
		method = parsed
	case env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != "":
		method = pgstage.AuthMethodAzureEntraID
	}
	cfg.AuthMethod = method

	switch method {
	case pgstage.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case pgstage.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	case pgstage.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

// resolveFromConnectionString parses connStr and applies $PGSSLMODE when the
// string itself names no sslmode.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*pgstage.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	if envVars.PGSSLMODE != "" && !hasExplicitSSLMode(connStr) {
		cfg.SSLMode = envVars.PGSSLMODE
	}
	return cfg, nil
}

// hasExplicitSSLMode reports whether connStr names an sslmode in any of the
// supported formats.
func hasExplicitSSLMode(connStr string) bool {
	lower := strings.ToLower(connStr)
	return strings.Contains(lower, "sslmode") || strings.Contains(lower, "ssl mode")
}

// resolveFromGranularParams builds a ConnectionConfig from flags, PG* variables
// and pgstage.yaml, in that order of precedence.
func resolveFromGranularParams(flags *GranularConnFlags, envVars *EnvVars, pc config.ConnectionConfig) (*pgstage.ConnectionConfig, error) {
	cfg := &pgstage.ConnectionConfig{
		AuthMethod:       pgstage.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	cfg.Host = firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, defaultHost)

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", envVars.PGPORT, pgstage.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = defaultPort
	}

	cfg.Username = firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Password = envVars.PGPASSWORD
	cfg.Database = firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database)
	cfg.SSLMode = firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, defaultSSLMode)

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
