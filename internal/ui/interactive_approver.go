package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgstage/internal/tui"
	"github.com/vvka-141/pgstage/pkg/pgstage"
)

// InteractiveApprover implements the Approver interface for console-based
// confirmation. The user must type the table name to confirm a replace.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates an InteractiveApprover reading stdin.
func NewInteractiveApprover(verbose bool) pgstage.Approver {
	return &InteractiveApprover{
		verbose: verbose,
		input:   os.Stdin,
		output:  os.Stderr,
	}
}

// RequestApproval prompts the user to type the table name to confirm.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, table string) (bool, error) {
	fmt.Fprintf(a.output, "\n%s\n", tui.WarningStyle.Render(fmt.Sprintf("WARNING: You are about to DROP and RELOAD the table '%s'", table)))
	fmt.Fprintln(a.output, "This will permanently delete all rows currently in this table!")
	fmt.Fprintf(a.output, "\nTo confirm, type the table name '%s' and press Enter: ", table)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == table {
			fmt.Fprintf(a.output, "%s Confirmed. Proceeding with table replace...\n", tui.SymbolCheck)
			return true, nil
		}
		fmt.Fprintf(a.output, "%s Input '%s' does not match table name '%s'. Load cancelled.\n", tui.SymbolCross, input, table)
		return false, nil
	}
}

var _ pgstage.Approver = (*InteractiveApprover)(nil)
