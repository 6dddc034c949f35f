package checkin

import (
	"context"
	"time"
)

// Ledger is the append-only store of accepted check-ins.
type Ledger interface {
	// WithinAccount runs fn as one atomic unit scoped to (accountID, branchID).
	// Concurrent units for the same pair are serialized; other pairs never wait.
	WithinAccount(ctx context.Context, accountID, branchID string, fn func(tx LedgerTx) error) error
	LastAccepted(ctx context.Context, accountID, branchID string) (*Event, error)
	ListByAccount(ctx context.Context, accountID string, from, to time.Time) ([]Event, error)
}

type LedgerTx interface {
	// LatestSince returns the newest accepted event at or after since, or nil.
	LatestSince(ctx context.Context, accountID, branchID string, since time.Time) (*Event, error)
	Append(ctx context.Context, e *Event) error
	// ConsumeCode consumes the code issuance with the given id, committing
	// or rolling back together with Append.
	ConsumeCode(ctx context.Context, codeID string, asOf time.Time) error
}
