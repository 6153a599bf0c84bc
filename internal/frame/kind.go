package frame

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Kind is the semantic type of a column, independent of its storage.
type Kind int

const (
	KindUnknown Kind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	KindTimestampNaive
	KindTimestampUTC
)

// Kinds lists every supported kind in declaration order.
var Kinds = []Kind{
	KindInt32,
	KindInt64,
	KindFloat32,
	KindFloat64,
	KindText,
	KindTimestampNaive,
	KindTimestampUTC,
}

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindText:
		return "text"
	case KindTimestampNaive:
		return "timestamp"
	case KindTimestampUTC:
		return "timestamp[UTC]"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// utcZones are the Arrow timestamp zone spellings treated as UTC.
var utcZones = map[string]bool{
	"UTC":     true,
	"Etc/UTC": true,
	"Z":       true,
}

// Classify maps an Arrow data type to its Kind.
// Types outside the closed mapping return an error wrapping pgstage.ErrUnsupportedType.
func Classify(dt arrow.DataType) (Kind, error) {
	if dt == nil {
		return KindUnknown, fmt.Errorf("nil data type: %w", pgstage.ErrUnsupportedType)
	}

	switch dt.ID() {
	case arrow.INT32:
		return KindInt32, nil
	case arrow.INT64:
		return KindInt64, nil
	case arrow.FLOAT32:
		return KindFloat32, nil
	case arrow.FLOAT64:
		return KindFloat64, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return KindText, nil
	case arrow.TIMESTAMP:
		ts := dt.(*arrow.TimestampType)
		if ts.TimeZone == "" {
			return KindTimestampNaive, nil
		}
		if utcZones[ts.TimeZone] {
			return KindTimestampUTC, nil
		}
	}

	return KindUnknown, fmt.Errorf("%s: %w", dt, pgstage.ErrUnsupportedType)
}

// ArrowType returns the Arrow type used to store a Kind.
// Timestamps are stored with microsecond precision, matching PostgreSQL.
func (k Kind) ArrowType() (arrow.DataType, error) {
	switch k {
	case KindInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case KindInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case KindFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case KindText:
		return arrow.BinaryTypes.String, nil
	case KindTimestampNaive:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case KindTimestampUTC:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	default:
		return nil, fmt.Errorf("%s: %w", k, pgstage.ErrUnsupportedType)
	}
}
