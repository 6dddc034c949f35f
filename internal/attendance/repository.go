package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrCodeNotFound       = errors.New("attendance code not found")
	ErrCodeExpired        = errors.New("attendance code expired")
	ErrCodeCollision      = errors.New("attendance code value in use")
	ErrCodeSpaceExhausted = errors.New("no free attendance code value in branch")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertIfFree(ctx context.Context, c *Code, asOf time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM attendance_codes
		WHERE branch_id = $1 AND code = $2
		  AND (consumed_at IS NOT NULL OR expires_at <= $3)
	`, c.BranchID, c.Code, asOf)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_codes (id, code, account_id, branch_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (branch_id, code) DO NOTHING
	`, c.ID, c.Code, c.AccountID, c.BranchID, c.IssuedAt, c.ExpiresAt)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCodeCollision
	}

	return tx.Commit()
}

func (r *repository) Find(ctx context.Context, code, branchID string) (*Code, error) {
	query := `
		SELECT id, code, account_id, branch_id, issued_at, expires_at, consumed_at
		FROM attendance_codes
		WHERE code = $1 AND branch_id = $2
	`

	var c Code
	err := r.db.GetContext(ctx, &c, query, code, branchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) Consume(ctx context.Context, id string, asOf time.Time) error {
	return ConsumeWith(ctx, r.db, id, asOf)
}

// ConsumeWith runs the conditional consume on any executor, so a ledger
// transaction can consume in the same commit as its append.
func ConsumeWith(ctx context.Context, exec sqlx.ExecerContext, id string, asOf time.Time) error {
	result, err := exec.ExecContext(ctx, `
		UPDATE attendance_codes
		SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > $2
	`, id, asOf)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCodeNotFound
	}

	return nil
}

func (r *repository) DeleteStale(ctx context.Context, asOf time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance_codes
		WHERE consumed_at IS NOT NULL OR expires_at <= $1
	`, asOf)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
