package ddl

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Draft returns a CREATE TABLE statement replicating the frame's data columns,
// followed by empty COMMENT ON statements for the table and every column.
// An empty name is rendered as the REPLACE_NAME placeholder.
//
// Draft is meant to be reviewed and edited by hand before it is run.
func Draft(f *frame.Frame, name string) (string, error) {
	tableName := pgstage.PlaceholderTableName
	if name != "" {
		table, err := pgstage.ParseTable(name)
		if err != nil {
			return "", err
		}
		tableName = table.Sanitize()
	}

	defs, err := ColumnDefs(f, f.Columns())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE " + tableName + " (\n")
	for i, d := range defs {
		sb.WriteString("    " + d.SQL())
		if i < len(defs)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(");\n\n")
	sb.WriteString("COMMENT ON TABLE " + tableName + " IS E'';\n")

	if len(defs) > 0 {
		sb.WriteString("\n")
	}
	for _, d := range defs {
		sb.WriteString("COMMENT ON COLUMN " + tableName + "." + pgx.Identifier{d.Name}.Sanitize() + " IS E'';\n")
	}
	return sb.String(), nil
}
