package loader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/vvka-141/pgstage/internal/frame"
)

// textNull is the COPY text-format null marker. Empty strings are sent as
// empty fields, so they stay distinct from nulls.
const textNull = `\N`

const (
	naiveTimestampLayout = "2006-01-02 15:04:05.999999"
	utcTimestampLayout   = "2006-01-02 15:04:05.999999-07:00"
)

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\t", `\t`,
	"\n", `\n`,
	"\r", `\r`,
)

// textReader renders frame rows in COPY text format on demand.
type textReader struct {
	cursor *rowCursor
	kinds  []frame.Kind
	buf    bytes.Buffer
	rows   int64
	done   bool
}

var _ io.Reader = (*textReader)(nil)

func newTextReader(batches []arrow.Record, positions []int, kinds []frame.Kind) *textReader {
	return &textReader{
		cursor: newRowCursor(batches, positions),
		kinds:  kinds,
	}
}

func (r *textReader) Read(p []byte) (int, error) {
	for r.buf.Len() < len(p) && !r.done {
		if !r.cursor.next() {
			r.done = true
			break
		}
		if err := r.writeRow(); err != nil {
			return 0, err
		}
	}
	if r.buf.Len() == 0 && r.done {
		return 0, io.EOF
	}
	return r.buf.Read(p)
}

func (r *textReader) writeRow() error {
	for i, kind := range r.kinds {
		if i > 0 {
			r.buf.WriteByte('\t')
		}
		v, err := r.cursor.value(i)
		if err != nil {
			return err
		}
		field, err := formatText(v, kind)
		if err != nil {
			return err
		}
		r.buf.WriteString(field)
	}
	r.buf.WriteByte('\n')
	r.rows++
	return nil
}

// formatText renders one value as a COPY text field.
func formatText(v any, kind frame.Kind) (string, error) {
	if v == nil {
		return textNull, nil
	}

	switch x := v.(type) {
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return textEscaper.Replace(x), nil
	case time.Time:
		if kind == frame.KindTimestampNaive {
			return x.Format(naiveTimestampLayout), nil
		}
		return x.UTC().Format(utcTimestampLayout), nil
	}
	return "", fmt.Errorf("cannot render %T as COPY text", v)
}
