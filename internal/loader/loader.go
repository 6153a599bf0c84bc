package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/pgstage/internal/ddl"
	"github.com/vvka-141/pgstage/internal/frame"
	"github.com/vvka-141/pgstage/internal/logging"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// Loader stages frames into PostgreSQL. It holds no connection state and is
// safe to share; each call owns the connection it resolves.
type Loader struct {
	logger pgstage.Logger
}

// New creates a Loader. A nil logger discards all messages.
func New(logger pgstage.Logger) *Loader {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Loader{logger: logger}
}

// plan is a validated load: everything Load needs that requires no I/O.
type plan struct {
	opts      pgstage.LoadOptions
	columns   []string
	kinds     []frame.Kind
	defs      []ddl.ColumnDef
	positions []int
}

// Check validates opts against the frame without touching any connection.
// It reports the same option, column and type errors Load would.
func (l *Loader) Check(f *frame.Frame, opts pgstage.LoadOptions) error {
	_, err := l.buildPlan(f, opts)
	return err
}

func (l *Loader) prepare(f *frame.Frame, h pgstage.Handle, opts pgstage.LoadOptions) (*plan, error) {
	p, err := l.buildPlan(f, opts)
	if err != nil {
		return nil, err
	}
	if err := checkHandle(h); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Loader) buildPlan(f *frame.Frame, opts pgstage.LoadOptions) (*plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, &pgstage.ConfigurationError{Handle: "frame", Reason: "no dataset given"}
	}
	opts.Table = opts.Target()

	cols, err := f.Select(opts.IncludeIndex, opts.Columns)
	if err != nil {
		return nil, err
	}

	kinds, err := f.Kinds(cols)
	if err != nil {
		return nil, err
	}

	defs, err := ddl.ColumnDefs(f, cols)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(cols))
	for i, c := range cols {
		positions[i] = f.FieldIndex(c)
	}

	return &plan{opts: opts, columns: cols, kinds: kinds, defs: defs, positions: positions}, nil
}

// Load creates the destination table if needed, applies the existence policy
// and copies the frame into it, all inside one transaction.
//
// Validation failures are returned before any I/O. A temporary load through
// a Pooled handle is a *pgstage.ConfigurationError. Failures after the
// connection is resolved roll back and return a *pgstage.LoadError.
func (l *Loader) Load(ctx context.Context, h pgstage.Handle, f *frame.Frame, opts pgstage.LoadOptions) (pgstage.LoadResult, error) {
	p, err := l.prepare(f, h, opts)
	if err != nil {
		return pgstage.LoadResult{}, err
	}
	if opts.Temporary && isPooled(h) {
		return pgstage.LoadResult{}, &pgstage.ConfigurationError{
			Handle: fmt.Sprintf("%T", h),
			Reason: "a temporary table is only visible on the connection that created it; use SingleConnection or OpenTempTable",
		}
	}

	conn, release, err := acquire(ctx, h)
	if err != nil {
		return pgstage.LoadResult{}, err
	}
	defer release()

	return l.load(ctx, conn, f, p)
}

func (l *Loader) load(ctx context.Context, conn *pgx.Conn, f *frame.Frame, p *plan) (pgstage.LoadResult, error) {
	table := p.opts.Table
	start := time.Now()
	fail := func(op string, err error) (pgstage.LoadResult, error) {
		return pgstage.LoadResult{}, &pgstage.LoadError{Table: table.String(), Op: op, Err: err}
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fail("begin", err)
	}
	defer func() {
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	if p.opts.Policy == pgstage.PolicyReplace {
		l.logger.Verbose("Dropping %s", table)
		if _, err := tx.Exec(ctx, ddl.DropStatement(table)); err != nil {
			return fail("drop", err)
		}
	}

	create := ddl.CreateStatement(table, p.defs, p.opts.Temporary)
	l.logger.Verbose("Executing: %s", create)
	if _, err := tx.Exec(ctx, create); err != nil {
		return fail("create", err)
	}

	if p.opts.Policy == pgstage.PolicyReplace {
		if _, err := tx.Exec(ctx, ddl.DeleteStatement(table)); err != nil {
			return fail("delete", err)
		}
	}

	l.logger.Verbose("Copying %d rows into %s (%s)", f.NumRows(), table, p.opts.CopyMode)
	var rows int64
	switch p.opts.CopyMode {
	case pgstage.CopyText:
		r := newTextReader(f.Batches(), p.positions, p.kinds)
		tag, err := tx.Conn().PgConn().CopyFrom(ctx, r, ddl.CopyStatement(table, p.columns, pgstage.CopyText))
		if err != nil {
			return fail("copy", err)
		}
		rows = tag.RowsAffected()
	default:
		rows, err = tx.CopyFrom(ctx, table.Identifier(), p.columns, newCopySource(f.Batches(), p.positions))
		if err != nil {
			return fail("copy", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fail("commit", err)
	}

	l.logger.Info("Loaded %d rows into %s (%s, %s) in %v",
		rows, table, p.opts.Policy, p.opts.CopyMode, time.Since(start).Round(time.Millisecond))

	return pgstage.LoadResult{
		Table:   table,
		Columns: append([]string(nil), p.columns...),
		Rows:    rows,
	}, nil
}
