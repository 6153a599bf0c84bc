package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Value returns the Go value stored at row, or nil for a null slot.
// NaN floats are reported as nil. Timestamps are returned in UTC; for naive
// timestamps the UTC wall clock is the stored local wall clock.
func Value(arr arrow.Array, row int) (any, error) {
	if arr.IsNull(row) {
		return nil, nil
	}

	switch a := arr.(type) {
	case *array.Int32:
		return a.Value(row), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Float32:
		v := a.Value(row)
		if math.IsNaN(float64(v)) {
			return nil, nil
		}
		return v, nil
	case *array.Float64:
		v := a.Value(row)
		if math.IsNaN(v) {
			return nil, nil
		}
		return v, nil
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(row).ToTime(unit), nil
	default:
		return nil, fmt.Errorf("no value reader for %s", arr.DataType())
	}
}

// toTimestamp converts t into microseconds since the epoch. Naive kinds keep
// the wall clock of t regardless of its location.
func toTimestamp(t time.Time, kind Kind) arrow.Timestamp {
	if kind == KindTimestampNaive {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return arrow.Timestamp(t.UnixMicro())
}
