package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgstage",
	Short: "Bulk-load tabular datasets into PostgreSQL",
	Long: `pgstage stages tabular datasets (CSV, TSV, Parquet, XLSX) into PostgreSQL
tables through COPY. The destination table is created from the dataset's
column types when it does not exist yet.

Existence policies:
  append   add the dataset's rows to the table (default)
  replace  drop and recreate the table, then load

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or connection handle
  11 - Database connection failed
  12 - User denied replace approval
  13 - Load failed (transaction rolled back)
  14 - Dataset column type has no PostgreSQL mapping
  15 - Dataset file format not recognized`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for pgstage")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
