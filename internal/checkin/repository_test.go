package checkin

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"gymgate/internal/attendance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Ledger, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewLedger(sqlxDB), mock, func() { sqlxDB.Close() }
}

var eventColumns = []string{"id", "account_id", "branch_id", "method", "outcome", "occurred_at"}

func TestLedger_WithinAccount_AppendsAndConsumes(t *testing.T) {
	ledger, mock, close := setupMock(t)
	defer close()

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	since := now.Add(-10 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("checkin:acc-1:branch-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM checkin_events WHERE account_id = $1 AND branch_id = $2 AND occurred_at >= $3")).
		WithArgs("acc-1", "branch-1", since).
		WillReturnRows(sqlmock.NewRows(eventColumns))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_codes SET consumed_at = $2")).
		WithArgs("code-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkin_events (id, account_id, branch_id, method, outcome, occurred_at)")).
		WithArgs("evt-1", "acc-1", "branch-1", "code", "accepted", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ledger.WithinAccount(context.Background(), "acc-1", "branch-1", func(tx LedgerTx) error {
		last, err := tx.LatestSince(context.Background(), "acc-1", "branch-1", since)
		require.NoError(t, err)
		assert.Nil(t, last)

		require.NoError(t, tx.ConsumeCode(context.Background(), "code-1", now))
		return tx.Append(context.Background(), &Event{
			ID: "evt-1", AccountID: "acc-1", BranchID: "branch-1",
			Method: MethodCode, Outcome: OutcomeAccepted, Timestamp: now,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_WithinAccount_RollsBackOnError(t *testing.T) {
	ledger, mock, close := setupMock(t)
	defer close()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_codes")).
		WithArgs("code-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ledger.WithinAccount(context.Background(), "acc-1", "branch-1", func(tx LedgerTx) error {
		return tx.ConsumeCode(context.Background(), "code-1", now)
	})
	assert.ErrorIs(t, err, attendance.ErrCodeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_WithinAccount_LockFailure(t *testing.T) {
	ledger, mock, close := setupMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock")).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	called := false
	err := ledger.WithinAccount(context.Background(), "acc-1", "branch-1", func(LedgerTx) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_LastAccepted(t *testing.T) {
	ledger, mock, close := setupMock(t)
	defer close()

	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(eventColumns).AddRow("evt-1", "acc-1", "branch-1", "scan", "accepted", at)

	mock.ExpectQuery(regexp.QuoteMeta("FROM checkin_events WHERE account_id = $1 AND branch_id = $2")).
		WithArgs("acc-1", "branch-1", time.Time{}).
		WillReturnRows(rows)

	e, err := ledger.LastAccepted(context.Background(), "acc-1", "branch-1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "evt-1", e.ID)
	assert.Equal(t, MethodScan, e.Method)
	assert.Equal(t, at, e.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_ListByAccount(t *testing.T) {
	ledger, mock, close := setupMock(t)
	defer close()

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	rows := sqlmock.NewRows(eventColumns).
		AddRow("evt-2", "acc-1", "branch-1", "code", "accepted", from.Add(3*time.Hour)).
		AddRow("evt-1", "acc-1", "branch-2", "scan", "accepted", from.Add(time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM checkin_events WHERE account_id = $1 AND occurred_at >= $2 AND occurred_at < $3")).
		WithArgs("acc-1", from, to).
		WillReturnRows(rows)

	events, err := ledger.ListByAccount(context.Background(), "acc-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "branch-2", events[1].BranchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
