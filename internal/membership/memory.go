package membership

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository keeps accounts in process. Reads return copies.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]Account)}
}

func (r *memoryRepository) GetAccount(_ context.Context, id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (r *memoryRepository) UpsertAccount(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.accounts[a.ID]; ok {
		a.CreatedAt = existing.CreatedAt
	} else if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.accounts[a.ID] = *a
	return nil
}
