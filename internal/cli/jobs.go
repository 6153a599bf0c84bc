package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vvka-141/pgstage/internal/config"
	"github.com/vvka-141/pgstage/internal/loader"
	"github.com/vvka-141/pgstage/internal/source"
	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/internal/ui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// jobPlan is a load job with its file path and options resolved.
type jobPlan struct {
	source  string
	read    source.Options
	options pgstage.LoadOptions
}

// planJob validates a job and resolves its source relative to baseDir.
func planJob(job config.Job, baseDir string) (jobPlan, error) {
	if job.Source == "" {
		return jobPlan{}, fmt.Errorf("source file is required: %w", pgstage.ErrInvalidConfig)
	}

	opts, err := job.Options()
	if err != nil {
		return jobPlan{}, err
	}

	format, err := source.ParseFormat(job.Format)
	if err != nil {
		return jobPlan{}, err
	}

	var delim rune
	if job.Delimiter != "" {
		runes := []rune(job.Delimiter)
		if len(runes) != 1 {
			return jobPlan{}, fmt.Errorf("delimiter %q must be a single character: %w", job.Delimiter, pgstage.ErrInvalidConfig)
		}
		delim = runes[0]
	}

	path := job.Source
	if baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return jobPlan{
		source: path,
		read: source.Options{
			Format:    format,
			Index:     job.Index,
			Sheet:     job.Sheet,
			Delimiter: delim,
		},
		options: opts,
	}, nil
}

// progressFunc runs a task behind a progress indicator.
type progressFunc func(ctx context.Context, message string, task tui.Task) error

// loadSession holds what the jobs of one invocation share.
type loadSession struct {
	handle   pgstage.Handle
	loader   *loader.Loader
	approver pgstage.Approver
	logger   pgstage.Logger
	progress progressFunc
}

// needsApproval reports whether a job destroys persistent data.
func needsApproval(opts pgstage.LoadOptions) bool {
	return opts.Policy == pgstage.PolicyReplace && !opts.Temporary
}

// execute reads the job's dataset, validates it, asks for approval when the
// job replaces a table, and loads it.
func (s *loadSession) execute(ctx context.Context, p jobPlan) (pgstage.LoadResult, error) {
	s.logger.Verbose("Reading %s", p.source)
	f, err := source.Read(ctx, p.source, p.read)
	if err != nil {
		return pgstage.LoadResult{}, fmt.Errorf("failed to read %s: %w", p.source, err)
	}
	defer f.Release()
	s.logger.Verbose("Read %d rows, columns: %v", f.NumRows(), f.Columns())

	if err := s.loader.Check(f, p.options); err != nil {
		return pgstage.LoadResult{}, err
	}

	if needsApproval(p.options) {
		if s.approver == nil {
			return pgstage.LoadResult{}, fmt.Errorf("replace of %s requires approval: %w", p.options.Table, pgstage.ErrApprovalDenied)
		}
		approved, err := s.approver.RequestApproval(ctx, p.options.Table.String())
		if err != nil {
			return pgstage.LoadResult{}, fmt.Errorf("approval failed: %w", err)
		}
		if !approved {
			return pgstage.LoadResult{}, fmt.Errorf("replace of %s was not approved: %w", p.options.Table, pgstage.ErrApprovalDenied)
		}
	}

	var result pgstage.LoadResult
	message := fmt.Sprintf("Loading %s into %s (%s)", filepath.Base(p.source), p.options.Table, p.options.Policy)
	err = s.progress(ctx, message, func(ctx context.Context) (string, error) {
		h, done, err := s.handleFor(ctx, p.options)
		if err != nil {
			return "", err
		}
		defer done()

		r, err := s.loader.Load(ctx, h, f, p.options)
		if err != nil {
			return "", err
		}
		result = r
		return fmt.Sprintf("%d rows loaded into %s", r.Rows, r.Table), nil
	})
	return result, err
}

// handleFor returns the handle a job loads through. A temporary table is
// loaded on a connection taken out of the pool and closed afterwards, so the
// table never outlives the load.
func (s *loadSession) handleFor(ctx context.Context, opts pgstage.LoadOptions) (pgstage.Handle, func(), error) {
	pooled, ok := s.handle.(pgstage.Pooled)
	if !opts.Temporary || !ok || pooled.Pool == nil {
		return s.handle, func() {}, nil
	}

	pc, err := pooled.Pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire connection: %w: %w", pgstage.ErrConnectionFailed, err)
	}
	conn := pc.Hijack()
	s.logger.Verbose("Loading %s on a dedicated connection; it is discarded when the load ends", opts.Table)

	return pgstage.SingleConnection{Conn: conn}, func() {
		_ = conn.Close(context.WithoutCancel(ctx))
	}, nil
}

// selectApprover picks the approver for replace loads.
// Without --force a terminal is required to type the table name.
func selectApprover(force, verbose bool) pgstage.Approver {
	if force {
		return ui.NewForcedApprover(verbose)
	}
	if tui.IsInteractive() {
		return ui.NewInteractiveApprover(verbose)
	}
	return nil
}

// commandContext bounds a command by timeout and cancels it on SIGINT/SIGTERM.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
