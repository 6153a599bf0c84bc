package ddl

import (
	"errors"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

func TestDraft(t *testing.T) {
	f, err := frame.FromColumns([]string{"dt"},
		frame.Column{Name: "dt", Kind: frame.KindTimestampNaive, Values: []any{nil}},
		frame.Column{Name: "beds", Kind: frame.KindInt64, Values: []any{nil}},
		frame.Column{Name: "occupancy", Kind: frame.KindFloat64, Values: []any{nil}},
	)
	require.NoError(t, err)
	defer f.Release()

	got, err := Draft(f, "covid.beds")
	require.NoError(t, err)

	want := `CREATE TABLE "covid"."beds" (
    "beds" INT,
    "occupancy" numeric(12, 6)
);

COMMENT ON TABLE "covid"."beds" IS E'';

COMMENT ON COLUMN "covid"."beds"."beds" IS E'';
COMMENT ON COLUMN "covid"."beds"."occupancy" IS E'';
`
	assert.Equal(t, want, got)
}

func TestDraft_PlaceholderName(t *testing.T) {
	f, err := frame.FromColumns(nil, frame.Column{Name: "county", Kind: frame.KindText, Values: []any{"Adams"}})
	require.NoError(t, err)
	defer f.Release()

	got, err := Draft(f, "")
	require.NoError(t, err)
	assert.Contains(t, got, "CREATE TABLE REPLACE_NAME (\n")
	assert.Contains(t, got, `COMMENT ON COLUMN REPLACE_NAME."county" IS E'';`)
}

func TestDraft_UnsupportedType(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "beds", Type: arrow.PrimitiveTypes.Int64},
		{Name: "open", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)
	f, err := frame.New(schema, nil)
	require.NoError(t, err)
	defer f.Release()

	_, err = Draft(f, "beds")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pgstage.ErrUnsupportedType))
	assert.Contains(t, err.Error(), `"open"`)
	assert.Contains(t, err.Error(), "bool")
}
