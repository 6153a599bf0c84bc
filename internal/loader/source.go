package loader

import (
	"fmt"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/internal/frame"
)

// rowCursor walks the rows of a set of batches, exposing the selected columns.
type rowCursor struct {
	batches   []arrow.Record
	positions []int
	batch     int
	row       int
}

func newRowCursor(batches []arrow.Record, positions []int) *rowCursor {
	return &rowCursor{batches: batches, positions: positions, row: -1}
}

func (c *rowCursor) next() bool {
	for c.batch < len(c.batches) {
		c.row++
		if int64(c.row) < c.batches[c.batch].NumRows() {
			return true
		}
		c.batch++
		c.row = -1
	}
	return false
}

func (c *rowCursor) value(i int) (any, error) {
	col := c.batches[c.batch].Column(c.positions[i])
	v, err := frame.Value(col, c.row)
	if err != nil {
		return nil, fmt.Errorf("batch %d row %d: %w", c.batch, c.row, err)
	}
	return v, nil
}

// copySource feeds frame rows to pgx's binary COPY.
type copySource struct {
	cursor *rowCursor
	values []any
	err    error
}

var _ pgx.CopyFromSource = (*copySource)(nil)

func newCopySource(batches []arrow.Record, positions []int) *copySource {
	return &copySource{
		cursor: newRowCursor(batches, positions),
		values: make([]any, len(positions)),
	}
}

func (s *copySource) Next() bool {
	if s.err != nil {
		return false
	}
	return s.cursor.next()
}

func (s *copySource) Values() ([]any, error) {
	for i := range s.values {
		v, err := s.cursor.value(i)
		if err != nil {
			s.err = err
			return nil, err
		}
		s.values[i] = v
	}
	return s.values, nil
}

func (s *copySource) Err() error {
	return s.err
}
