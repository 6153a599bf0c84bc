package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestResolveConnectionParams_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Host: "yaml-host", Port: 6000, Username: "yaml-user", Database: "yaml-db", SSLMode: "require",
	}}

	tests := []struct {
		name     string
		connStr  string
		flags    *GranularConnFlags
		env      *EnvVars
		project  *config.ProjectConfig
		wantHost string
		wantPort int
		wantUser string
		wantDB   string
		wantSSL  string
	}{
		{
			name:     "defaults",
			env:      &EnvVars{PGUSER: "me"},
			wantHost: "localhost", wantPort: 5432, wantUser: "me", wantSSL: "prefer",
		},
		{
			name:     "connection flag",
			connStr:  "postgresql://flag@flaghost:5433/flagdb?sslmode=disable",
			env:      &EnvVars{DATABASE_URL: "postgresql://env@envhost/envdb", PGHOST: "pghost"},
			wantHost: "flaghost", wantPort: 5433, wantUser: "flag", wantDB: "flagdb", wantSSL: "disable",
		},
		{
			name:     "PGSTAGE_CONNECTION_STRING beats DATABASE_URL",
			env:      &EnvVars{PGSTAGE_CONNECTION_STRING: "postgresql://a@ahost/adb", DATABASE_URL: "postgresql://b@bhost/bdb"},
			wantHost: "ahost", wantPort: 5432, wantUser: "a", wantDB: "adb", wantSSL: "prefer",
		},
		{
			name:     "DATABASE_URL with PGSSLMODE fallback",
			env:      &EnvVars{DATABASE_URL: "postgresql://b@bhost/bdb", PGSSLMODE: "verify-full"},
			wantHost: "bhost", wantPort: 5432, wantUser: "b", wantDB: "bdb", wantSSL: "verify-full",
		},
		{
			name:     "explicit sslmode beats PGSSLMODE",
			connStr:  "postgresql://b@bhost/bdb?sslmode=prefer",
			env:      &EnvVars{PGSSLMODE: "verify-full"},
			wantHost: "bhost", wantPort: 5432, wantUser: "b", wantDB: "bdb", wantSSL: "prefer",
		},
		{
			name:     "database flag overrides connection string",
			connStr:  "postgresql://u@h/postgres",
			flags:    &GranularConnFlags{Database: "covid"},
			wantHost: "h", wantPort: 5432, wantUser: "u", wantDB: "covid", wantSSL: "prefer",
		},
		{
			name:     "granular flags skip DATABASE_URL",
			flags:    &GranularConnFlags{Host: "flaghost"},
			env:      &EnvVars{DATABASE_URL: "postgresql://b@bhost/bdb", PGUSER: "envuser", PGDATABASE: "envdb"},
			wantHost: "flaghost", wantPort: 5432, wantUser: "envuser", wantDB: "envdb", wantSSL: "prefer",
		},
		{
			name:     "env beats yaml",
			env:      &EnvVars{PGHOST: "envhost", PGPORT: "7000"},
			project:  project,
			wantHost: "envhost", wantPort: 7000, wantUser: "yaml-user", wantDB: "yaml-db", wantSSL: "require",
		},
		{
			name:     "yaml beats defaults",
			project:  project,
			wantHost: "yaml-host", wantPort: 6000, wantUser: "yaml-user", wantDB: "yaml-db", wantSSL: "require",
		},
		{
			name:     "flags beat everything",
			flags:    &GranularConnFlags{Host: "f", Port: 1, Username: "fu", Database: "fd", SSLMode: "disable"},
			env:      &EnvVars{PGHOST: "e", PGPORT: "2", PGUSER: "eu", PGDATABASE: "ed", PGSSLMODE: "allow"},
			project:  project,
			wantHost: "f", wantPort: 1, wantUser: "fu", wantDB: "fd", wantSSL: "disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams(tt.connStr, tt.flags, nil, tt.env, tt.project)
			require.NoError(t, err)

			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, tt.wantPort, cfg.Port)
			assert.Equal(t, tt.wantUser, cfg.Username)
			assert.Equal(t, tt.wantDB, cfg.Database)
			assert.Equal(t, tt.wantSSL, cfg.SSLMode)
			assert.Equal(t, pgstage.AuthMethodStandard, cfg.AuthMethod)
		})
	}
}

func TestResolveConnectionParams_PasswordFromEnvOnly(t *testing.T) {
	cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "h"}, nil, &EnvVars{PGPASSWORD: "s3cret"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Password)
}

func TestResolveConnectionParams_Errors(t *testing.T) {
	tests := []struct {
		name    string
		connStr string
		flags   *GranularConnFlags
		cloud   *CloudFlags
		env     *EnvVars
		project *config.ProjectConfig
	}{
		{name: "connection and granular", connStr: "postgresql://h/db", flags: &GranularConnFlags{Host: "x"}},
		{name: "invalid PGPORT", env: &EnvVars{PGPORT: "abc"}},
		{name: "invalid connection string", connStr: "garbage"},
		{name: "two cloud providers", cloud: &CloudFlags{AWS: true, Google: true}},
		{name: "unknown yaml auth method", project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "kerberos"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveConnectionParams(tt.connStr, tt.flags, tt.cloud, tt.env, tt.project)
			require.Error(t, err)
		})
	}
}

func TestResolveConnectionParams_AuthMethod(t *testing.T) {
	tests := []struct {
		name    string
		cloud   *CloudFlags
		env     *EnvVars
		project *config.ProjectConfig
		check   func(t *testing.T, cfg *pgstage.ConnectionConfig)
	}{
		{
			name:  "aws flag with region from env",
			cloud: &CloudFlags{AWS: true},
			env:   &EnvVars{AWS_REGION: "eu-central-1"},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, pgstage.AuthMethodAWSIAM, cfg.AuthMethod)
				assert.Equal(t, "eu-central-1", cfg.AWSRegion)
			},
		},
		{
			name:  "aws region flag beats env",
			cloud: &CloudFlags{AWS: true, AWSRegion: "us-east-1"},
			env:   &EnvVars{AWS_REGION: "eu-central-1"},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, "us-east-1", cfg.AWSRegion)
			},
		},
		{
			name:    "google from yaml",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i"}},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, pgstage.AuthMethodGoogleIAM, cfg.AuthMethod)
				assert.Equal(t, "p:r:i", cfg.GoogleInstance)
			},
		},
		{
			name: "azure from env",
			env: &EnvVars{
				AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "env-secret",
			},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, pgstage.AuthMethodAzureEntraID, cfg.AuthMethod)
				assert.Equal(t, "env-tenant", cfg.AzureTenantID)
				assert.Equal(t, "env-client", cfg.AzureClientID)
				assert.Equal(t, "env-secret", cfg.AzureClientSecret)
			},
		},
		{
			name:  "azure flags beat env, secret only from env",
			cloud: &CloudFlags{AzureTenantID: "flag-tenant"},
			env: &EnvVars{
				AZURE_TENANT_ID: "env-tenant", AZURE_CLIENT_ID: "env-client", AZURE_CLIENT_SECRET: "env-secret",
			},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, pgstage.AuthMethodAzureEntraID, cfg.AuthMethod)
				assert.Equal(t, "flag-tenant", cfg.AzureTenantID)
				assert.Equal(t, "env-client", cfg.AzureClientID)
				assert.Equal(t, "env-secret", cfg.AzureClientSecret)
			},
		},
		{
			name: "yaml standard ignores azure env",
			env:  &EnvVars{AZURE_TENANT_ID: "env-tenant"},
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "standard"}},
			check: func(t *testing.T, cfg *pgstage.ConnectionConfig) {
				assert.Equal(t, pgstage.AuthMethodStandard, cfg.AuthMethod)
				assert.Empty(t, cfg.AzureTenantID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnectionParams("", &GranularConnFlags{Host: "h", Username: "u"}, tt.cloud, tt.env, tt.project)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
