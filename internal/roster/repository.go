package roster

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type store struct {
	db *sqlx.DB
}

// NewStore returns the PostgreSQL store. A session unit holds the session
// row lock (SELECT ... FOR UPDATE) until commit.
func NewStore(db *sqlx.DB) Store {
	return &store{db: db}
}

func (s *store) CreateSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO class_sessions (id, branch_id, capacity, start_time)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	return s.db.QueryRowxContext(ctx, query, session.ID, session.BranchID, session.Capacity, session.StartTime).
		Scan(&session.CreatedAt)
}

func (s *store) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return getSession(ctx, s.db, sessionID, "")
}

func getSession(ctx context.Context, q sqlx.QueryerContext, sessionID, suffix string) (*Session, error) {
	query := `
		SELECT id, branch_id, capacity, start_time, created_at
		FROM class_sessions
		WHERE id = $1
	` + suffix

	var session Session
	if err := sqlx.GetContext(ctx, q, &session, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *store) CountBookings(ctx context.Context, sessionID string) (int, error) {
	return countBookings(ctx, s.db, sessionID)
}

func countBookings(ctx context.Context, q sqlx.QueryerContext, sessionID string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(*) FROM bookings WHERE session_id = $1`, sessionID)
	return count, err
}

func (s *store) CountWaitlist(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM waitlist_entries WHERE session_id = $1`, sessionID)
	return count, err
}

func (s *store) ListBookings(ctx context.Context, sessionID string) ([]Booking, error) {
	query := `
		SELECT session_id, account_id, booked_at
		FROM bookings
		WHERE session_id = $1
		ORDER BY booked_at
	`

	bookings := []Booking{}
	if err := s.db.SelectContext(ctx, &bookings, query, sessionID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (s *store) ListWaitlist(ctx context.Context, sessionID string) ([]WaitlistEntry, error) {
	query := `
		SELECT session_id, account_id, joined_at, seq
		FROM waitlist_entries
		WHERE session_id = $1
		ORDER BY joined_at, seq
	`

	entries := []WaitlistEntry{}
	if err := s.db.SelectContext(ctx, &entries, query, sessionID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *store) WaitlistHead(ctx context.Context, sessionID string) (*WaitlistEntry, error) {
	query := `
		SELECT session_id, account_id, joined_at, seq
		FROM waitlist_entries
		WHERE session_id = $1
		ORDER BY joined_at, seq
		LIMIT 1
	`

	var e WaitlistEntry
	if err := s.db.GetContext(ctx, &e, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *store) WithinSession(ctx context.Context, sessionID string, fn func(tx SessionTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	session, err := getSession(ctx, tx, sessionID, "FOR UPDATE")
	if err != nil {
		return err
	}

	if err := fn(&sessionTx{tx: tx, session: *session}); err != nil {
		return err
	}

	return tx.Commit()
}

type sessionTx struct {
	tx      *sqlx.Tx
	session Session
}

func (t *sessionTx) Session() Session {
	return t.session
}

func (t *sessionTx) CountBookings(ctx context.Context) (int, error) {
	return countBookings(ctx, t.tx, t.session.ID)
}

func (t *sessionTx) HasBooking(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE session_id = $1 AND account_id = $2)`,
		t.session.ID, accountID)
	return exists, err
}

func (t *sessionTx) InsertBooking(ctx context.Context, b *Booking) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO bookings (session_id, account_id, booked_at)
		VALUES ($1, $2, $3)
	`, b.SessionID, b.AccountID, b.BookedAt)
	return err
}

func (t *sessionTx) DeleteBooking(ctx context.Context, accountID string) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		`DELETE FROM bookings WHERE session_id = $1 AND account_id = $2`,
		t.session.ID, accountID)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	return rowsAffected > 0, err
}

func (t *sessionTx) HasWaitlistEntry(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM waitlist_entries WHERE session_id = $1 AND account_id = $2)`,
		t.session.ID, accountID)
	return exists, err
}

func (t *sessionTx) InsertWaitlistEntry(ctx context.Context, e *WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (session_id, account_id, joined_at)
		VALUES ($1, $2, $3)
		RETURNING seq
	`
	return t.tx.QueryRowxContext(ctx, query, e.SessionID, e.AccountID, e.JoinedAt).Scan(&e.Seq)
}

func (t *sessionTx) DeleteWaitlistEntry(ctx context.Context, accountID string) (bool, error) {
	result, err := t.tx.ExecContext(ctx,
		`DELETE FROM waitlist_entries WHERE session_id = $1 AND account_id = $2`,
		t.session.ID, accountID)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	return rowsAffected > 0, err
}

func (t *sessionTx) PopWaitlistHead(ctx context.Context) (*WaitlistEntry, error) {
	query := `
		DELETE FROM waitlist_entries
		WHERE seq = (
			SELECT seq FROM waitlist_entries
			WHERE session_id = $1
			ORDER BY joined_at, seq
			LIMIT 1
		)
		RETURNING session_id, account_id, joined_at, seq
	`

	var e WaitlistEntry
	if err := t.tx.GetContext(ctx, &e, query, t.session.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (t *sessionTx) UpdateCapacity(ctx context.Context, capacity int) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE class_sessions SET capacity = $2 WHERE id = $1`,
		t.session.ID, capacity)
	if err != nil {
		return err
	}
	t.session.Capacity = capacity
	return nil
}
