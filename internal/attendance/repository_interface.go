package attendance

import (
	"context"
	"time"
)

type Repository interface {
	// InsertIfFree stores c unless a live code with the same value exists in
	// the branch at asOf. Stale holders of the value are replaced.
	InsertIfFree(ctx context.Context, c *Code, asOf time.Time) error
	Find(ctx context.Context, code, branchID string) (*Code, error)
	// Consume marks the issuance identified by id consumed, provided it is
	// still live at asOf.
	Consume(ctx context.Context, id string, asOf time.Time) error
	DeleteStale(ctx context.Context, asOf time.Time) (int64, error)
}
