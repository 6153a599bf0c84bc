package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// loadProjectConfig loads .env and the project's pgstage.yaml.
// Returns nil config if pgstage.yaml does not exist (not an error).
func loadProjectConfig(projectPath string) (*config.ProjectConfig, error) {
	_ = godotenv.Load(filepath.Join(projectPath, ".env"))

	projectCfg, err := config.Load(projectPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", config.ConfigFileName, pgstage.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// resolveEffectiveTimeout returns the effective timeout, preferring pgstage.yaml if the flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if !cmd.Flags().Changed("timeout") {
		fromFile, err := projectCfg.TimeoutDuration()
		if err != nil {
			return 0, err
		}
		if fromFile > 0 {
			return fromFile, nil
		}
	}
	if flagTimeout <= 0 {
		return 0, fmt.Errorf("--timeout must be positive, got %v: %w", flagTimeout, pgstage.ErrInvalidConfig)
	}
	return flagTimeout, nil
}

// authMethodToString returns the pgstage.yaml spelling of an auth method.
// Standard auth is written as an empty (omitted) value.
func authMethodToString(m pgstage.AuthMethod) string {
	switch m {
	case pgstage.AuthMethodAzureEntraID:
		return "azure"
	case pgstage.AuthMethodAWSIAM:
		return "aws"
	case pgstage.AuthMethodGoogleIAM:
		return "google"
	default:
		return ""
	}
}

// saveConnectionToConfig writes connConfig into the connection block of
// pgstage.yaml, keeping any existing timeout and loads. Secrets are never written.
func saveConnectionToConfig(projectPath string, connConfig *pgstage.ConnectionConfig) (string, error) {
	configPath := filepath.Join(projectPath, config.ConfigFileName)

	cfg, err := config.Load(projectPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return "", err
		}
		cfg = &config.ProjectConfig{}
	}

	cc := config.ConnectionConfig{
		Host:       connConfig.Host,
		Port:       connConfig.Port,
		Username:   connConfig.Username,
		Database:   connConfig.Database,
		SSLMode:    connConfig.SSLMode,
		AuthMethod: authMethodToString(connConfig.AuthMethod),
	}
	switch connConfig.AuthMethod {
	case pgstage.AuthMethodAzureEntraID:
		cc.AzureTenantID = connConfig.AzureTenantID
		cc.AzureClientID = connConfig.AzureClientID
	case pgstage.AuthMethodAWSIAM:
		cc.AWSRegion = connConfig.AWSRegion
	case pgstage.AuthMethodGoogleIAM:
		cc.GoogleInstance = connConfig.GoogleInstance
	}
	cfg.Connection = cc

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return configPath, os.WriteFile(configPath, data, 0644)
}
