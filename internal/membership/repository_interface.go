package membership

import "context"

type Repository interface {
	GetAccount(ctx context.Context, id string) (*Account, error)
	UpsertAccount(ctx context.Context, a *Account) error
}
