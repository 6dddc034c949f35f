package membership

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrAccountNotFound = errors.New("account not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, branch_id, role, status, start_date, end_date, created_at
		FROM accounts
		WHERE id = $1
	`

	var account Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *repository) UpsertAccount(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (id, branch_id, role, status, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date
		RETURNING created_at
	`

	return r.db.GetContext(ctx, &a.CreatedAt, query, a.ID, a.BranchID, a.Role, a.Status, a.StartDate, a.EndDate)
}
