package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/ddl"
	"github.com/vvka-141/pgstage/internal/source"
)

var ddlCmd = &cobra.Command{
	Use:   "ddl <file>",
	Short: "Print a CREATE TABLE draft for a dataset file",
	Long: `Ddl reads a dataset file and prints a CREATE TABLE statement with one
column per data column, followed by empty COMMENT ON statements to fill in.
No database connection is made.

Without --table the statement uses the REPLACE_NAME placeholder.

Examples:
  pgstage ddl ./data/beds.csv --table covid.hospital_beds > beds.sql
  pgstage ddl capacity.xlsx --sheet ICU`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDatasetFiles,
	RunE:              runDDL,
}

type ddlFlagValues struct {
	table     string
	index     []string
	format    string
	sheet     string
	delimiter string
}

var ddlFlags ddlFlagValues

func init() {
	rootCmd.AddCommand(ddlCmd)

	ddlCmd.Flags().StringVarP(&ddlFlags.table, "table", "t", "",
		"Table name used in the statement (default: REPLACE_NAME)")
	ddlCmd.Flags().StringSliceVar(&ddlFlags.index, "index", nil,
		"Dataset columns forming the index; they are left out of the draft")
	ddlCmd.Flags().StringVar(&ddlFlags.format, "format", "",
		"Dataset format: csv|tsv|parquet|xlsx (default: from the file extension)")
	ddlCmd.Flags().StringVar(&ddlFlags.sheet, "sheet", "",
		"XLSX sheet to read (default: first sheet)")
	ddlCmd.Flags().StringVar(&ddlFlags.delimiter, "delimiter", "",
		"Field separator for delimited files")

	_ = ddlCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// draftFile reads sourcePath and writes its DDL draft to w.
func draftFile(ctx context.Context, w io.Writer, sourcePath string, f ddlFlagValues) error {
	// Table is validated by Draft itself; the placeholder keeps planJob happy.
	plan, err := planJob(config.Job{
		Source:    sourcePath,
		Table:     "draft",
		Index:     f.index,
		Format:    f.format,
		Sheet:     f.sheet,
		Delimiter: f.delimiter,
	}, "")
	if err != nil {
		return err
	}

	frame, err := source.Read(ctx, plan.source, plan.read)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", plan.source, err)
	}
	defer frame.Release()

	stmt, err := ddl.Draft(frame, f.table)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, stmt)
	return err
}

func runDDL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return draftFile(ctx, cmd.OutOrStdout(), args[0], ddlFlags)
}
