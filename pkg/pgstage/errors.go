package pgstage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := l.Load(ctx, pgstage.Pooled{Pool: pool}, f, opts)
//	if errors.Is(err, pgstage.ErrUnsupportedType) {
//	    // Cast the column or extend the type mapping
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfiguration indicates the connection handle cannot be used by the loader.
	ErrConfiguration = errors.New("unsupported connection handle")

	// ErrUnsupportedType indicates a dataset column has no PostgreSQL type mapping.
	ErrUnsupportedType = errors.New("unsupported column type")

	// ErrLoadFailed indicates staging failed after the connection was established.
	ErrLoadFailed = errors.New("load failed")

	// ErrUnsupportedFormat indicates a dataset file format is not recognized.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrApprovalDenied indicates the user denied approval for a destructive load.
	ErrApprovalDenied = errors.New("approval denied")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// ConfigurationError reports a connection handle the loader cannot resolve
// into a live connection. It is a programming error and is never retried.
type ConfigurationError struct {
	Handle string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cannot use connection handle of type %s: %s", e.Handle, e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnsupportedTypeError reports a dataset column whose type has no entry in
// the PostgreSQL type mapping. It is always raised before any network I/O.
type UnsupportedTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("don't know how to handle type %s for column %q; cast the column or extend the type mapping", e.Type, e.Column)
}

// Is reports whether target is ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// LoadError wraps a driver error raised while staging a dataset.
// The staging transaction has been rolled back when a LoadError is returned.
type LoadError struct {
	Table string
	Op    string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load into %s failed during %s: %v", e.Table, e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLoadFailed.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

// usageErrorPrefixes are the messages cobra/pflag produce for command-line misuse.
var usageErrorPrefixes = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrConfiguration):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrUnsupportedType):
		return ExitUnsupportedType
	case errors.Is(err, ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrLoadFailed):
		return ExitLoadFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	for _, prefix := range usageErrorPrefixes {
		if strings.HasPrefix(errStr, prefix) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
