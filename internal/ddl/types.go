package ddl

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

var typeMap = map[frame.Kind]string{
	frame.KindFloat64:        "numeric(12, 6)",
	frame.KindFloat32:        "numeric(10, 4)",
	frame.KindInt64:          "INT",
	frame.KindInt32:          "SMALLINT",
	frame.KindTimestampNaive: "TIMESTAMP WITHOUT TIME ZONE",
	frame.KindTimestampUTC:   "TIMESTAMPTZ",
	frame.KindText:           "TEXT",
}

// TypeFor returns the PostgreSQL column type for a kind.
func TypeFor(k frame.Kind) (string, error) {
	t, ok := typeMap[k]
	if !ok {
		return "", fmt.Errorf("no PostgreSQL type for kind %s: %w", k, pgstage.ErrUnsupportedType)
	}
	return t, nil
}

// ColumnDef is one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name string
	Type string
}

// SQL returns the quoted column definition, e.g. "beds" INT.
func (c ColumnDef) SQL() string {
	return pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
}

// ColumnDefs derives column definitions for the named frame columns.
func ColumnDefs(f *frame.Frame, cols []string) ([]ColumnDef, error) {
	kinds, err := f.Kinds(cols)
	if err != nil {
		return nil, err
	}

	defs := make([]ColumnDef, len(cols))
	for i, name := range cols {
		pgType, err := TypeFor(kinds[i])
		if err != nil {
			return nil, &pgstage.UnsupportedTypeError{Column: name, Type: kinds[i].String()}
		}
		defs[i] = ColumnDef{Name: name, Type: pgType}
	}
	return defs, nil
}
