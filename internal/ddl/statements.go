package ddl

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// CreateStatement renders an idempotent CREATE TABLE for the given columns.
func CreateStatement(table pgstage.Table, defs []ColumnDef, temporary bool) string {
	var sb strings.Builder
	if temporary {
		sb.WriteString("CREATE TEMP TABLE IF NOT EXISTS ")
	} else {
		sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	}
	sb.WriteString(table.Sanitize())
	sb.WriteString(" (")
	for i, d := range defs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.SQL())
	}
	sb.WriteString(")")
	return sb.String()
}

// DropStatement renders DROP TABLE IF EXISTS.
func DropStatement(table pgstage.Table) string {
	return "DROP TABLE IF EXISTS " + table.Sanitize()
}

// DeleteStatement renders an unconditional DELETE.
func DeleteStatement(table pgstage.Table) string {
	return "DELETE FROM " + table.Sanitize()
}

// TruncateStatement renders TRUNCATE TABLE.
func TruncateStatement(table pgstage.Table) string {
	return "TRUNCATE TABLE " + table.Sanitize()
}

// CopyStatement renders COPY ... FROM STDIN for the given columns.
// Text mode uses PostgreSQL's default text format: tab delimiter, \N for null.
func CopyStatement(table pgstage.Table, cols []string, mode pgstage.CopyMode) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	stmt := "COPY " + table.Sanitize() + " (" + strings.Join(quoted, ", ") + ") FROM STDIN"
	if mode == pgstage.CopyBinary {
		stmt += " (FORMAT binary)"
	}
	return stmt
}
