package cli

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/db"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestResolveConnection_ConnectionStringSources(t *testing.T) {
	tests := []struct {
		name     string
		flags    connectionFlags
		env      db.EnvVars
		wantHost string
		wantDB   string
	}{
		{
			name:     "flag takes precedence over environment",
			flags:    connectionFlags{connection: "postgresql://user@localhost:5432/flagdb"},
			env:      db.EnvVars{PGSTAGE_CONNECTION_STRING: "postgresql://user@envhost:5433/envdb"},
			wantHost: "localhost",
			wantDB:   "flagdb",
		},
		{
			name:     "use environment when flag not provided",
			env:      db.EnvVars{PGSTAGE_CONNECTION_STRING: "postgresql://user@envhost:5433/envdb"},
			wantHost: "envhost",
			wantDB:   "envdb",
		},
		{
			name:     "DATABASE_URL is the last connection string source",
			env:      db.EnvVars{DATABASE_URL: "postgresql://user@herokuhost/herokudb"},
			wantHost: "herokuhost",
			wantDB:   "herokudb",
		},
		{
			name:     "database flag overrides connection string",
			flags:    connectionFlags{connection: "postgresql://user@localhost/postgres", database: "covid"},
			wantHost: "localhost",
			wantDB:   "covid",
		},
		{
			name:     "defaults when nothing is provided",
			wantHost: "localhost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			cfg, err := resolveConnection(tt.flags, &env, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, cfg.Host)
			if tt.wantDB != "" {
				assert.Equal(t, tt.wantDB, cfg.Database)
			}
		})
	}
}

func TestResolveConnection_GranularFlags(t *testing.T) {
	flags := connectionFlags{
		host:     "customhost",
		port:     5433,
		username: "customuser",
		database: "customdb",
		sslMode:  "require",
	}

	cfg, err := resolveConnection(flags, &db.EnvVars{PGHOST: "envhost"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "customhost", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "customuser", cfg.Username)
	assert.Equal(t, "customdb", cfg.Database)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, pgstage.AuthMethodStandard, cfg.AuthMethod)
}

func TestResolveConnection_ProjectConfigFallback(t *testing.T) {
	projectCfg := &config.ProjectConfig{
		Connection: config.ConnectionConfig{Host: "yamlhost", Port: 6432, Database: "yamldb"},
	}

	cfg, err := resolveConnection(connectionFlags{}, &db.EnvVars{}, projectCfg)
	require.NoError(t, err)
	assert.Equal(t, "yamlhost", cfg.Host)
	assert.Equal(t, 6432, cfg.Port)
	assert.Equal(t, "yamldb", cfg.Database)
}

func TestResolveConnection_Conflicts(t *testing.T) {
	t.Run("connection string with granular flags", func(t *testing.T) {
		_, err := resolveConnection(connectionFlags{connection: "postgresql://localhost/db", host: "other"}, &db.EnvVars{}, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pgstage.ErrInvalidConfig))
	})

	t.Run("two cloud providers", func(t *testing.T) {
		_, err := resolveConnection(connectionFlags{aws: true, google: true}, &db.EnvVars{}, nil)
		require.Error(t, err)
		assert.Equal(t, pgstage.ExitConfigError, pgstage.ExitCodeForError(err))
	})
}

func TestResolveConnection_CloudFlags(t *testing.T) {
	cfg, err := resolveConnection(connectionFlags{aws: true, awsRegion: "eu-west-1", host: "db.rds.amazonaws.com"}, &db.EnvVars{}, nil)
	require.NoError(t, err)
	assert.Equal(t, pgstage.AuthMethodAWSIAM, cfg.AuthMethod)
	assert.Equal(t, "eu-west-1", cfg.AWSRegion)

	cfg, err = resolveConnection(connectionFlags{google: true, googleInstance: "proj:us-east1:beds"}, &db.EnvVars{}, nil)
	require.NoError(t, err)
	assert.Equal(t, pgstage.AuthMethodGoogleIAM, cfg.AuthMethod)
	assert.Equal(t, "proj:us-east1:beds", cfg.GoogleInstance)
}

func TestConnectionFlags_Register(t *testing.T) {
	cmd := &cobra.Command{Use: "load"}
	var flags connectionFlags
	flags.register(cmd)

	require.NoError(t, cmd.ParseFlags([]string{"-h", "dbhost", "-p", "6543", "-U", "loader", "-d", "covid", "--sslmode", "disable"}))
	assert.Equal(t, "dbhost", flags.host)
	assert.Equal(t, 6543, flags.port)
	assert.Equal(t, "loader", flags.username)
	assert.Equal(t, "covid", flags.database)
	assert.Equal(t, "disable", flags.sslMode)
}

func TestLogConnectionVerbose_OmitsPassword(t *testing.T) {
	logger := logging.NewRecordingLogger()
	logConnectionVerbose(logger, &pgstage.ConnectionConfig{
		Host:     "localhost",
		Port:     5432,
		Username: "loader",
		Password: "s3cret",
		Database: "covid",
	})

	assert.True(t, logger.Contains("verbose", "Database: covid"))
	for _, e := range logger.Entries() {
		assert.NotContains(t, e.Message, "s3cret")
	}
}
