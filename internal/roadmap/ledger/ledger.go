// Package ledger stores per-user credit balances. Every backend enforces the
// non-negative balance with a conditional write inside the store itself;
// Check is an advisory pre-filter only.
package ledger

import (
	"context"
)

// Ledger is the credit store used by the generation workflow.
type Ledger interface {
	// Check reports whether the user holds at least one credit. A missing
	// record is created with zero credits. Storage errors report false.
	Check(ctx context.Context, userID string) bool
	// Decrement removes one credit only if at least one is available at the
	// moment of the write. It fails with domain.ErrInsufficientCredits or
	// domain.ErrLedgerUnavailable.
	Decrement(ctx context.Context, userID string) (int64, error)
}
