package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgstage/internal/ddl"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// SQLSTATE codes treated as "the object is already gone".
const (
	pgCodeUndefinedTable    = "42P01"
	pgCodeInvalidSchemaName = "3F000"
)

// isUndefinedObject reports whether err means the table or its schema does not exist.
func isUndefinedObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgCodeUndefinedTable || pgErr.Code == pgCodeInvalidSchemaName
}

// TempTable is a table that holds a frame for the life of a session.
// The connection it was loaded through stays reserved until Close.
type TempTable struct {
	loader  *Loader
	conn    *pgx.Conn
	release func()
	table   pgstage.Table
	result  pgstage.LoadResult
	destroy bool
	closed  bool
}

// Conn returns the connection the table was loaded through. Session-scoped
// tables are only visible on it.
func (t *TempTable) Conn() *pgx.Conn { return t.conn }

// Table returns the table holding the frame.
func (t *TempTable) Table() pgstage.Table { return t.table }

// Result returns the outcome of the load.
func (t *TempTable) Result() pgstage.LoadResult { return t.result }

// Destroy reports whether Close drops the table.
func (t *TempTable) Destroy() bool { return t.destroy }

// OpenTempTable empties the table, loads the frame into it and returns the
// open session. An empty opts.Table.Name gets a generated unique name.
//
// If the load fails, the table is emptied (and dropped when destroy is set)
// before the load error is returned.
func (l *Loader) OpenTempTable(ctx context.Context, h pgstage.Handle, f *frame.Frame, opts pgstage.LoadOptions, destroy bool) (*TempTable, error) {
	if opts.Table.Name == "" {
		opts.Table.Name = TempTableName()
	}

	p, err := l.prepare(f, h, opts)
	if err != nil {
		return nil, err
	}

	conn, release, err := acquire(ctx, h)
	if err != nil {
		return nil, err
	}

	t := &TempTable{
		loader:  l,
		conn:    conn,
		release: release,
		table:   p.opts.Table,
		destroy: destroy,
	}

	if err := t.truncate(ctx); err != nil {
		t.closed = true
		release()
		return nil, err
	}

	result, err := l.load(ctx, conn, f, p)
	if err != nil {
		if cerr := t.Close(context.WithoutCancel(ctx)); cerr != nil {
			l.logger.Error("Cleanup of %s after failed load: %v", t.table, cerr)
		}
		return nil, err
	}
	t.result = result

	l.logger.Verbose("Opened scoped table %s (destroy=%t)", t.table, destroy)
	return t, nil
}

// Close empties the table, drops it when Destroy is set, and releases the
// connection. It is safe to call more than once.
func (t *TempTable) Close(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	defer t.release()

	var errs []error
	if err := t.truncate(ctx); err != nil {
		errs = append(errs, err)
	}

	if t.destroy {
		t.loader.logger.Verbose("Dropping %s", t.table)
		if _, err := t.conn.Exec(ctx, ddl.DropStatement(t.table)); err != nil && !isUndefinedObject(err) {
			errs = append(errs, fmt.Errorf("drop %s: %w", t.table, err))
		}
	}

	return errors.Join(errs...)
}

// truncate empties the table. A missing table or schema is not an error.
func (t *TempTable) truncate(ctx context.Context) error {
	_, err := t.conn.Exec(ctx, ddl.TruncateStatement(t.table))
	if err == nil || isUndefinedObject(err) {
		return nil
	}
	return fmt.Errorf("truncate %s: %w", t.table, err)
}

// WithTempTable runs fn against a freshly loaded TempTable and always runs
// the release steps afterwards, including when fn fails or panics.
// The error returned by fn is passed through unchanged; a cleanup failure
// that follows a body failure is logged instead of returned.
func (l *Loader) WithTempTable(ctx context.Context, h pgstage.Handle, f *frame.Frame, opts pgstage.LoadOptions, destroy bool, fn func(context.Context, *TempTable) error) (err error) {
	t, err := l.OpenTempTable(ctx, h, f, opts, destroy)
	if err != nil {
		return err
	}

	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if r := recover(); r != nil {
			if cerr := t.Close(cleanupCtx); cerr != nil {
				l.logger.Error("Cleanup of %s after panic: %v", t.table, cerr)
			}
			panic(r)
		}

		cerr := t.Close(cleanupCtx)
		if cerr == nil {
			return
		}
		if err != nil {
			l.logger.Error("Cleanup of %s after failed body: %v", t.table, cerr)
			return
		}
		err = cerr
	}()

	return fn(ctx, t)
}

// TempTableName returns a fresh table name for a scoped session.
func TempTableName() string {
	return pgstage.TempTablePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
