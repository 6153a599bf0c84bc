package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Column describes one column for FromColumns. A nil entry in Values is a null.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// FromColumns builds a single-batch frame from Go values. The named index
// columns must be among cols.
func FromColumns(index []string, cols ...Column) (*Frame, error) {
	mem := memory.DefaultAllocator

	rows := -1
	fields := make([]arrow.Field, 0, len(cols))
	arrays := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, arr := range arrays {
			arr.Release()
		}
	}()

	for _, col := range cols {
		if rows >= 0 && len(col.Values) != rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d: %w",
				col.Name, len(col.Values), rows, pgstage.ErrInvalidConfig)
		}
		rows = len(col.Values)

		dt, err := col.Kind.ArrowType()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		arr, err := buildArray(mem, dt, col)
		if err != nil {
			return nil, err
		}
		arrays = append(arrays, arr)
		fields = append(fields, arrow.Field{Name: col.Name, Type: dt, Nullable: true})
	}
	if rows < 0 {
		rows = 0
	}

	schema := arrow.NewSchema(fields, nil)
	batch := array.NewRecord(schema, arrays, int64(rows))
	defer batch.Release()

	return New(schema, []arrow.Record{batch}, index...)
}

func buildArray(mem memory.Allocator, dt arrow.DataType, col Column) (arrow.Array, error) {
	mismatch := func(v any) error {
		return fmt.Errorf("column %q of kind %s cannot hold %T: %w", col.Name, col.Kind, v, pgstage.ErrInvalidConfig)
	}

	switch col.Kind {
	case KindInt32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case int32:
				b.Append(x)
			case int:
				if x < math.MinInt32 || x > math.MaxInt32 {
					return nil, fmt.Errorf("column %q of kind %s cannot hold %d: out of range: %w",
						col.Name, col.Kind, x, pgstage.ErrInvalidConfig)
				}
				b.Append(int32(x))
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil

	case KindInt64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case int64:
				b.Append(x)
			case int:
				b.Append(int64(x))
			case int32:
				b.Append(int64(x))
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil

	case KindFloat32:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case float32:
				b.Append(x)
			case float64:
				b.Append(float32(x))
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil

	case KindFloat64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case float64:
				b.Append(x)
			case float32:
				b.Append(float64(x))
			case int:
				b.Append(float64(x))
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil

	case KindText:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case string:
				b.Append(x)
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil

	case KindTimestampNaive, KindTimestampUTC:
		b := array.NewTimestampBuilder(mem, dt.(*arrow.TimestampType))
		defer b.Release()
		for _, v := range col.Values {
			switch x := v.(type) {
			case nil:
				b.AppendNull()
			case time.Time:
				b.Append(toTimestamp(x, col.Kind))
			default:
				return nil, mismatch(v)
			}
		}
		return b.NewArray(), nil
	}

	return nil, fmt.Errorf("column %q: %s: %w", col.Name, col.Kind, pgstage.ErrUnsupportedType)
}
