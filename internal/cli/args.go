package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RequireSourcePath validates that exactly one dataset file argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireSourcePath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <file>

Usage: %s

Example:
  %s ./data/beds.csv --table public.hospital_beds`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

// OptionalProjectPath accepts zero or one project directory argument.
func OptionalProjectPath(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most 1 arg(s), received %d", len(args))
	}
	return nil
}

// projectDir returns the project directory argument, defaulting to ".".
func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
