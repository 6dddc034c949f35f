package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gymgate/internal/attendance"

	"github.com/jmoiron/sqlx"
)

type ledger struct {
	db *sqlx.DB
}

// NewLedger returns the PostgreSQL ledger. Units for one (account, branch)
// pair are serialized with a transaction-scoped advisory lock.
func NewLedger(db *sqlx.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithinAccount(ctx context.Context, accountID, branchID string, fn func(tx LedgerTx) error) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey(accountID, branchID)); err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	if err := fn(&ledgerTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

func lockKey(accountID, branchID string) string {
	return "checkin:" + accountID + ":" + branchID
}

func (l *ledger) LastAccepted(ctx context.Context, accountID, branchID string) (*Event, error) {
	return latestSince(ctx, l.db, accountID, branchID, time.Time{})
}

func (l *ledger) ListByAccount(ctx context.Context, accountID string, from, to time.Time) ([]Event, error) {
	query := `
		SELECT id, account_id, branch_id, method, outcome, occurred_at
		FROM checkin_events
		WHERE account_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at DESC
	`

	events := []Event{}
	if err := l.db.SelectContext(ctx, &events, query, accountID, from, to); err != nil {
		return nil, err
	}
	return events, nil
}

type ledgerTx struct {
	tx *sqlx.Tx
}

func (t *ledgerTx) LatestSince(ctx context.Context, accountID, branchID string, since time.Time) (*Event, error) {
	return latestSince(ctx, t.tx, accountID, branchID, since)
}

func (t *ledgerTx) Append(ctx context.Context, e *Event) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO checkin_events (id, account_id, branch_id, method, outcome, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.AccountID, e.BranchID, e.Method, e.Outcome, e.Timestamp)
	return err
}

func (t *ledgerTx) ConsumeCode(ctx context.Context, codeID string, asOf time.Time) error {
	return attendance.ConsumeWith(ctx, t.tx, codeID, asOf)
}

func latestSince(ctx context.Context, q sqlx.QueryerContext, accountID, branchID string, since time.Time) (*Event, error) {
	query := `
		SELECT id, account_id, branch_id, method, outcome, occurred_at
		FROM checkin_events
		WHERE account_id = $1 AND branch_id = $2 AND occurred_at >= $3
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	var e Event
	if err := sqlx.GetContext(ctx, q, &e, query, accountID, branchID, since); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
