// Package config reads the pgstage.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/pgstage/pkg/pgstage"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// Job is one entry of the `loads:` list.
type Job struct {
	Source       string   `yaml:"source"`
	Table        string   `yaml:"table"`
	Policy       string   `yaml:"policy,omitempty"`
	Index        []string `yaml:"index,omitempty"`
	IncludeIndex bool     `yaml:"include_index,omitempty"`
	Columns      []string `yaml:"columns,omitempty"`
	Temporary    bool     `yaml:"temporary,omitempty"`
	CopyMode     string   `yaml:"copy_mode,omitempty"`
	Format       string   `yaml:"format,omitempty"`
	Sheet        string   `yaml:"sheet,omitempty"`
	Delimiter    string   `yaml:"delimiter,omitempty"`
}

// Options converts the job into loader options.
func (j Job) Options() (pgstage.LoadOptions, error) {
	table, err := pgstage.ParseTable(j.Table)
	if err != nil {
		return pgstage.LoadOptions{}, err
	}
	policy, err := pgstage.ParsePolicy(j.Policy)
	if err != nil {
		return pgstage.LoadOptions{}, err
	}
	mode, err := pgstage.ParseCopyMode(j.CopyMode)
	if err != nil {
		return pgstage.LoadOptions{}, err
	}

	opts := pgstage.LoadOptions{
		Table:        table,
		IncludeIndex: j.IncludeIndex,
		Policy:       policy,
		Columns:      j.Columns,
		Temporary:    j.Temporary,
		CopyMode:     mode,
	}
	if err := opts.Validate(); err != nil {
		return pgstage.LoadOptions{}, err
	}
	return opts, nil
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Timeout    string           `yaml:"timeout"`
	Loads      []Job            `yaml:"loads"`
}

// TimeoutDuration parses Timeout. An empty value returns zero.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c == nil || c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q in %s: %w", c.Timeout, ConfigFileName, pgstage.ErrInvalidConfig)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative in %s: %w", ConfigFileName, pgstage.ErrInvalidConfig)
	}
	return d, nil
}

// Validate checks every job. Source paths are not checked for existence.
func (c *ProjectConfig) Validate() error {
	var errs []error
	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	for i, job := range c.Loads {
		if job.Source == "" {
			errs = append(errs, fmt.Errorf("loads[%d]: source is required: %w", i, pgstage.ErrInvalidConfig))
		}
		if _, err := job.Options(); err != nil {
			errs = append(errs, fmt.Errorf("loads[%d]: %w", i, err))
		}
		if len([]rune(job.Delimiter)) > 1 {
			errs = append(errs, fmt.Errorf("loads[%d]: delimiter must be a single character: %w", i, pgstage.ErrInvalidConfig))
		}
	}
	return errors.Join(errs...)
}

const ConfigFileName = "pgstage.yaml"

func Load(projectPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(projectPath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}
