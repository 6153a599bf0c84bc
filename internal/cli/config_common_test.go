package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestAuthMethodToString(t *testing.T) {
	tests := []struct {
		method pgstage.AuthMethod
		want   string
	}{
		{pgstage.AuthMethodStandard, ""},
		{pgstage.AuthMethodAzureEntraID, "azure"},
		{pgstage.AuthMethodAWSIAM, "aws"},
		{pgstage.AuthMethodGoogleIAM, "google"},
	}

	for _, tt := range tests {
		got := authMethodToString(tt.method)
		if got != tt.want {
			t.Errorf("authMethodToString(%v) = %q, want %q", tt.method, got, tt.want)
		}
		parsed, err := pgstage.ParseAuthMethod(got)
		if err != nil || parsed != tt.method {
			t.Errorf("ParseAuthMethod(%q) = %v, %v; want %v", got, parsed, err, tt.method)
		}
	}
}

func readSavedConfig(t *testing.T, dir string) config.ProjectConfig {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)

	var cfg config.ProjectConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	return cfg
}

func TestSaveConnectionToConfig_CloudAuth(t *testing.T) {
	dir := t.TempDir()

	path, err := saveConnectionToConfig(dir, &pgstage.ConnectionConfig{
		Host:              "myhost.postgres.database.azure.com",
		Port:              5432,
		Username:          "loader@myhost",
		Database:          "covid",
		SSLMode:           "require",
		AuthMethod:        pgstage.AuthMethodAzureEntraID,
		AzureTenantID:     "my-tenant",
		AzureClientID:     "my-client",
		AzureClientSecret: "do-not-write",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, config.ConfigFileName), path)

	cfg := readSavedConfig(t, dir)
	assert.Equal(t, "azure", cfg.Connection.AuthMethod)
	assert.Equal(t, "my-tenant", cfg.Connection.AzureTenantID)
	assert.Equal(t, "my-client", cfg.Connection.AzureClientID)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "do-not-write")
}

func TestSaveConnectionToConfig_AWSAuth(t *testing.T) {
	dir := t.TempDir()

	_, err := saveConnectionToConfig(dir, &pgstage.ConnectionConfig{
		Host:       "beds.rds.amazonaws.com",
		Port:       5432,
		Username:   "loader",
		Database:   "covid",
		SSLMode:    "require",
		AuthMethod: pgstage.AuthMethodAWSIAM,
		AWSRegion:  "us-east-1",
	})
	require.NoError(t, err)

	cfg := readSavedConfig(t, dir)
	assert.Equal(t, "aws", cfg.Connection.AuthMethod)
	assert.Equal(t, "us-east-1", cfg.Connection.AWSRegion)
}

func TestSaveConnectionToConfig_GoogleAuth(t *testing.T) {
	dir := t.TempDir()

	_, err := saveConnectionToConfig(dir, &pgstage.ConnectionConfig{
		Host:           "10.0.0.1",
		Port:           5432,
		Username:       "loader",
		Database:       "covid",
		AuthMethod:     pgstage.AuthMethodGoogleIAM,
		GoogleInstance: "proj:region:inst",
	})
	require.NoError(t, err)

	cfg := readSavedConfig(t, dir)
	assert.Equal(t, "google", cfg.Connection.AuthMethod)
	assert.Equal(t, "proj:region:inst", cfg.Connection.GoogleInstance)
}

func TestSaveConnectionToConfig_StandardAuth_OmitsCloudFields(t *testing.T) {
	dir := t.TempDir()

	_, err := saveConnectionToConfig(dir, &pgstage.ConnectionConfig{
		Host:          "localhost",
		Port:          5432,
		Username:      "postgres",
		Database:      "covid",
		SSLMode:       "prefer",
		AuthMethod:    pgstage.AuthMethodStandard,
		AzureTenantID: "leftover",
	})
	require.NoError(t, err)

	cfg := readSavedConfig(t, dir)
	assert.Empty(t, cfg.Connection.AuthMethod)
	assert.Empty(t, cfg.Connection.AzureTenantID)
}

func TestSaveConnectionToConfig_KeepsLoads(t *testing.T) {
	dir := t.TempDir()
	existing := "timeout: 5m\nloads:\n  - source: beds.csv\n    table: public.beds\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(existing), 0644))

	_, err := saveConnectionToConfig(dir, &pgstage.ConnectionConfig{Host: "newhost", Port: 5432})
	require.NoError(t, err)

	cfg := readSavedConfig(t, dir)
	assert.Equal(t, "newhost", cfg.Connection.Host)
	assert.Equal(t, "5m", cfg.Timeout)
	require.Len(t, cfg.Loads, 1)
	assert.Equal(t, "public.beds", cfg.Loads[0].Table)
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		cfg, err := loadProjectConfig(t.TempDir())
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("malformed file is a config error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("loads: [unclosed"), 0644))

		_, err := loadProjectConfig(dir)
		require.Error(t, err)
		assert.True(t, errors.Is(err, pgstage.ErrInvalidConfig))
	})
}

func TestResolveEffectiveTimeout(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "load"}
		cmd.Flags().Duration("timeout", pgstage.DefaultTimeout, "")
		return cmd
	}

	t.Run("flag default without config", func(t *testing.T) {
		got, err := resolveEffectiveTimeout(newCmd(), nil, pgstage.DefaultTimeout)
		require.NoError(t, err)
		assert.Equal(t, pgstage.DefaultTimeout, got)
	})

	t.Run("config wins over unset flag", func(t *testing.T) {
		got, err := resolveEffectiveTimeout(newCmd(), &config.ProjectConfig{Timeout: "90s"}, pgstage.DefaultTimeout)
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, got)
	})

	t.Run("explicit flag wins over config", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("timeout", "2m"))
		got, err := resolveEffectiveTimeout(cmd, &config.ProjectConfig{Timeout: "90s"}, 2*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 2*time.Minute, got)
	})

	t.Run("invalid config timeout", func(t *testing.T) {
		_, err := resolveEffectiveTimeout(newCmd(), &config.ProjectConfig{Timeout: "soon"}, pgstage.DefaultTimeout)
		assert.True(t, errors.Is(err, pgstage.ErrInvalidConfig))
	})

	t.Run("non-positive flag", func(t *testing.T) {
		_, err := resolveEffectiveTimeout(newCmd(), nil, 0)
		assert.True(t, errors.Is(err, pgstage.ErrInvalidConfig))
	})
}
