package pgstage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Table identifies a destination table. Schema is optional.
type Table struct {
	Schema string
	Name   string
}

// ParseTable splits "schema.name" or "name" into a Table.
// Only the first dot separates schema from name.
func ParseTable(s string) (Table, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Table{}, fmt.Errorf("table name is required: %w", ErrInvalidConfig)
	}
	var t Table
	if schema, name, ok := strings.Cut(s, "."); ok {
		t = Table{Schema: schema, Name: name}
	} else {
		t = Table{Name: s}
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks that both parts are usable PostgreSQL identifiers.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is required: %w", ErrInvalidConfig)
	}
	parts := []string{t.Name}
	if t.Schema != "" {
		parts = append(parts, t.Schema)
	}
	for _, p := range parts {
		if len(p) > MaxIdentifierLength {
			return fmt.Errorf("identifier %q exceeds %d bytes: %w", p, MaxIdentifierLength, ErrInvalidConfig)
		}
		if strings.ContainsRune(p, 0) {
			return fmt.Errorf("identifier %q contains a NUL byte: %w", p, ErrInvalidConfig)
		}
	}
	return nil
}

// Identifier returns the pgx identifier for the table.
func (t Table) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted, fully-qualified name used in every statement.
func (t Table) Sanitize() string {
	return t.Identifier().Sanitize()
}

// String returns the unquoted dotted form for messages.
func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ExistencePolicy governs how a load interacts with existing table contents.
type ExistencePolicy int

const (
	PolicyAppend  ExistencePolicy = iota // Keep existing rows, add the dataset
	PolicyReplace                        // Drop/empty the table, then load
)

// ParsePolicy converts "append" or "replace" into an ExistencePolicy.
// The empty string selects PolicyAppend.
func ParsePolicy(s string) (ExistencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return PolicyAppend, nil
	case "replace":
		return PolicyReplace, nil
	default:
		return 0, fmt.Errorf("unknown existence policy %q (expected append or replace): %w", s, ErrInvalidConfig)
	}
}

func (p ExistencePolicy) String() string {
	switch p {
	case PolicyAppend:
		return "append"
	case PolicyReplace:
		return "replace"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// IsValid returns true if the policy is a defined value.
func (p ExistencePolicy) IsValid() bool {
	return p == PolicyAppend || p == PolicyReplace
}

// CopyMode selects the COPY wire format used to stage rows.
type CopyMode int

const (
	CopyBinary CopyMode = iota // pgx binary COPY
	CopyText                   // tab-delimited text COPY
)

// ParseCopyMode converts "binary" or "text" into a CopyMode.
func ParseCopyMode(s string) (CopyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary":
		return CopyBinary, nil
	case "text", "tsv":
		return CopyText, nil
	default:
		return 0, fmt.Errorf("unknown copy mode %q (expected binary or text): %w", s, ErrInvalidConfig)
	}
}

func (m CopyMode) String() string {
	switch m {
	case CopyBinary:
		return "binary"
	case CopyText:
		return "text"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// LoadOptions configures a single bulk load.
type LoadOptions struct {
	// Table is the destination table.
	Table Table

	// IncludeIndex loads the dataset's index columns ahead of the data columns.
	IncludeIndex bool

	// Policy is the existence policy (default append).
	Policy ExistencePolicy

	// Columns restricts the loaded columns. Empty means all columns.
	Columns []string

	// Temporary creates a session-scoped TEMP table in pg_temp. Plain loads
	// require a SingleConnection handle; OpenTempTable accepts either.
	Temporary bool

	// CopyMode selects the COPY format (default binary).
	CopyMode CopyMode
}

// Validate checks LoadOptions for consistency. It performs no I/O.
// It returns a multi-error if multiple validation failures occur.
func (o *LoadOptions) Validate() error {
	var errs []error

	if err := o.Table.Validate(); err != nil {
		errs = append(errs, err)
	}

	if !o.Policy.IsValid() {
		errs = append(errs, fmt.Errorf("invalid existence policy %v: %w", o.Policy, ErrInvalidConfig))
	}

	if o.CopyMode != CopyBinary && o.CopyMode != CopyText {
		errs = append(errs, fmt.Errorf("invalid copy mode %v: %w", o.CopyMode, ErrInvalidConfig))
	}

	if o.Temporary && o.Table.Schema != "" && o.Table.Schema != TempSchema {
		errs = append(errs, fmt.Errorf("temporary table %s cannot live in schema %q: %w", o.Table, o.Table.Schema, ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(o.Columns))
	for _, c := range o.Columns {
		if seen[c] {
			errs = append(errs, fmt.Errorf("column %q listed more than once: %w", c, ErrInvalidConfig))
		}
		seen[c] = true
	}

	return errors.Join(errs...)
}

// Target returns the table every statement of the load addresses.
// A temporary table is qualified with pg_temp.
func (o LoadOptions) Target() Table {
	if o.Temporary && o.Table.Schema == "" {
		return Table{Schema: TempSchema, Name: o.Table.Name}
	}
	return o.Table
}

// LoadResult describes a completed load.
type LoadResult struct {
	Table   Table
	Columns []string
	Rows    int64
}

// LoadConfig contains everything the CLI needs to load one dataset file.
type LoadConfig struct {
	// SourcePath is the dataset file (CSV, TSV, Parquet, XLSX; optionally compressed)
	SourcePath string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	ConnectionString string

	// Options are passed to the loader unchanged
	Options LoadOptions

	// Index names the dataset columns treated as the index
	Index []string

	// Sheet selects the XLSX sheet (default: first sheet)
	Sheet string

	// Force bypasses interactive approval for the replace policy
	Force bool

	// Timeout bounds the whole load
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if err := c.Options.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS IAM authentication (AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL IAM authentication (AuthMethodGoogleIAM), project:region:instance
	GoogleInstance string

	// Azure Entra ID authentication (AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// Otherwise the DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// ParseAuthMethod converts a config/flag value into an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return 0, fmt.Errorf("unknown auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}
