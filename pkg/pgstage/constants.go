package pgstage

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Load completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration or connection handle
	ExitConnectionError   = 11 // Failed to connect to database
	ExitApprovalDenied    = 12 // User denied replace approval
	ExitLoadFailed        = 13 // Staging the dataset failed
	ExitUnsupportedType   = 14 // Dataset column has no type mapping
	ExitUnsupportedFormat = 15 // Dataset file format not recognized
)

const (
	// DefaultForceApprovalCountdown is the countdown duration before force approval proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of connection retries.
	DefaultRetryMaxAttempts = 3

	// DefaultTimeout bounds a whole CLI invocation.
	DefaultTimeout = 10 * time.Minute

	// MaxIdentifierLength is PostgreSQL's NAMEDATALEN-1.
	MaxIdentifierLength = 63

	// PlaceholderTableName is used by DDL drafts when no table name is given.
	PlaceholderTableName = "REPLACE_NAME"

	// TempSchema is the session's own schema. Temporary tables are always
	// addressed through it so a persistent table of the same name is never hit.
	TempSchema = "pg_temp"

	// TempTablePrefix prefixes generated scoped-session table names.
	TempTablePrefix = "pgstage_tmp_"
)
