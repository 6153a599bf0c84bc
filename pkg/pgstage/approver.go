package pgstage

import "context"

// Approver handles user interaction for destructive loads,
// i.e. a replace that drops the destination table.
//
// Implementations:
//   - ForcedApprover: Shows countdown and automatically approves
//   - InteractiveApprover: Prompts user to type the table name for confirmation
type Approver interface {
	// RequestApproval prompts for confirmation before replacing a table.
	// Returns true if approved, false if denied.
	RequestApproval(ctx context.Context, table string) (bool, error)
}
