package frame

import (
	"fmt"
	"sync/atomic"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Frame is an ordered set of named columns stored as Arrow record batches.
// All batches share the frame's schema.
type Frame struct {
	refs    atomic.Int64
	schema  *arrow.Schema
	batches []arrow.Record
	index   []string
	rows    int64
}

// New builds a frame from a schema and batches sharing it. The named fields
// become the index. New retains every batch; the caller keeps its own
// references and releases them as usual.
func New(schema *arrow.Schema, batches []arrow.Record, index ...string) (*Frame, error) {
	if schema == nil {
		return nil, fmt.Errorf("frame schema is required: %w", pgstage.ErrInvalidConfig)
	}

	seen := make(map[string]bool, schema.NumFields())
	for _, field := range schema.Fields() {
		if field.Name == "" {
			return nil, fmt.Errorf("frame has an unnamed column: %w", pgstage.ErrInvalidConfig)
		}
		if seen[field.Name] {
			return nil, fmt.Errorf("column %q appears more than once: %w", field.Name, pgstage.ErrInvalidConfig)
		}
		seen[field.Name] = true
	}

	indexSeen := make(map[string]bool, len(index))
	for _, name := range index {
		if !seen[name] {
			return nil, fmt.Errorf("index %q is not a column of the frame: %w", name, pgstage.ErrInvalidConfig)
		}
		if indexSeen[name] {
			return nil, fmt.Errorf("index %q listed more than once: %w", name, pgstage.ErrInvalidConfig)
		}
		indexSeen[name] = true
	}

	var rows int64
	for i, batch := range batches {
		if !batch.Schema().Equal(schema) {
			return nil, fmt.Errorf("batch %d schema %s does not match frame schema %s: %w",
				i, batch.Schema(), schema, pgstage.ErrInvalidConfig)
		}
		rows += batch.NumRows()
	}

	for _, batch := range batches {
		batch.Retain()
	}

	f := &Frame{
		schema:  schema,
		batches: append([]arrow.Record(nil), batches...),
		index:   append([]string(nil), index...),
		rows:    rows,
	}
	f.refs.Store(1)
	return f, nil
}

// Retain increases the reference count by 1.
func (f *Frame) Retain() {
	f.refs.Add(1)
}

// Release decreases the reference count by 1 and frees the batches when it reaches zero.
func (f *Frame) Release() {
	if f.refs.Add(-1) == 0 {
		for _, batch := range f.batches {
			batch.Release()
		}
		f.batches = nil
	}
}

// Schema returns the Arrow schema shared by every batch.
func (f *Frame) Schema() *arrow.Schema { return f.schema }

// Batches returns the record batches. The frame keeps ownership.
func (f *Frame) Batches() []arrow.Record { return f.batches }

// NumRows returns the total row count across batches.
func (f *Frame) NumRows() int64 { return f.rows }

// IndexNames returns the index column names in declared order.
func (f *Frame) IndexNames() []string {
	return append([]string(nil), f.index...)
}

// Columns returns the data column names in schema order, index excluded.
func (f *Frame) Columns() []string {
	isIndex := make(map[string]bool, len(f.index))
	for _, name := range f.index {
		isIndex[name] = true
	}
	cols := make([]string, 0, f.schema.NumFields())
	for _, field := range f.schema.Fields() {
		if !isIndex[field.Name] {
			cols = append(cols, field.Name)
		}
	}
	return cols
}

// FieldIndex returns the schema position of a column, or -1.
func (f *Frame) FieldIndex(name string) int {
	indices := f.schema.FieldIndices(name)
	if len(indices) == 0 {
		return -1
	}
	return indices[0]
}

// Select resolves the columns a load writes. With no explicit list it returns
// the data columns, prefixed by the index names when includeIndex is set.
// An explicit list must only name data columns, or index names when
// includeIndex is set.
func (f *Frame) Select(includeIndex bool, cols []string) ([]string, error) {
	if len(cols) == 0 {
		var selected []string
		if includeIndex {
			selected = append(selected, f.index...)
		}
		return append(selected, f.Columns()...), nil
	}

	allowed := make(map[string]bool, f.schema.NumFields())
	for _, name := range f.Columns() {
		allowed[name] = true
	}
	if includeIndex {
		for _, name := range f.index {
			allowed[name] = true
		}
	}

	for _, name := range cols {
		if !allowed[name] {
			return nil, fmt.Errorf("column %q is not in the dataset: %w", name, pgstage.ErrInvalidConfig)
		}
	}
	return append([]string(nil), cols...), nil
}

// Kinds classifies the named columns. The first column without a mapping is
// reported as a *pgstage.UnsupportedTypeError.
func (f *Frame) Kinds(cols []string) ([]Kind, error) {
	kinds := make([]Kind, len(cols))
	for i, name := range cols {
		idx := f.FieldIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q is not in the dataset: %w", name, pgstage.ErrInvalidConfig)
		}
		dt := f.schema.Field(idx).Type
		kind, err := Classify(dt)
		if err != nil {
			return nil, &pgstage.UnsupportedTypeError{Column: name, Type: dt.String()}
		}
		kinds[i] = kind
	}
	return kinds, nil
}
