package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// ForcedApprover implements the Approver interface for forced (non-interactive)
// approval. It displays a countdown and approves when it runs out.
// Used when --force is given together with --policy replace.
type ForcedApprover struct {
	verbose   bool
	output    io.Writer
	sleepFn   func(time.Duration)
	countdown time.Duration
}

// NewForcedApprover creates a ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) pgstage.Approver {
	return &ForcedApprover{
		verbose:   verbose,
		output:    os.Stderr,
		sleepFn:   time.Sleep,
		countdown: pgstage.DefaultForceApprovalCountdown,
	}
}

// RequestApproval displays a countdown and approves after it.
func (a *ForcedApprover) RequestApproval(ctx context.Context, table string) (bool, error) {
	countdown := a.countdown
	if countdown <= 0 {
		countdown = pgstage.DefaultForceApprovalCountdown
	}

	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, tui.ErrorStyle.Render(fmt.Sprintf("DANGER: table %s will be dropped and reloaded", table)))
	fmt.Fprintln(a.output)

	for i := int(countdown.Seconds()); i > 0; i-- {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(a.output)
			return false, err
		}
		fmt.Fprintf(a.output, "\rReplacing in: %d seconds... (Press Ctrl+C to cancel)", i)
		a.sleepFn(time.Second)
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r%s Proceeding with table replace...                              \n", tui.SymbolCheck)
	return true, nil
}

var _ pgstage.Approver = (*ForcedApprover)(nil)
