package attendance

import (
	"context"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.Mutex
	byBranch map[string]map[string]*Code
	byID     map[string]*Code
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byBranch: make(map[string]map[string]*Code),
		byID:     make(map[string]*Code),
	}
}

func (r *memoryRepository) InsertIfFree(_ context.Context, c *Code, asOf time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes, ok := r.byBranch[c.BranchID]
	if !ok {
		codes = make(map[string]*Code)
		r.byBranch[c.BranchID] = codes
	}

	if existing, ok := codes[c.Code]; ok {
		if existing.Live(asOf) {
			return ErrCodeCollision
		}
		delete(r.byID, existing.ID)
	}

	stored := *c
	codes[c.Code] = &stored
	r.byID[c.ID] = &stored
	return nil
}

func (r *memoryRepository) Find(_ context.Context, code, branchID string) (*Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byBranch[branchID][code]
	if !ok {
		return nil, ErrCodeNotFound
	}
	out := *c
	return &out, nil
}

func (r *memoryRepository) Consume(_ context.Context, id string, asOf time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok || !c.Live(asOf) {
		return ErrCodeNotFound
	}
	consumedAt := asOf
	c.ConsumedAt = &consumedAt
	return nil
}

func (r *memoryRepository) DeleteStale(_ context.Context, asOf time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for branchID, codes := range r.byBranch {
		for value, c := range codes {
			if c.Live(asOf) {
				continue
			}
			delete(codes, value)
			delete(r.byID, c.ID)
			deleted++
		}
		if len(codes) == 0 {
			delete(r.byBranch, branchID)
		}
	}
	return deleted, nil
}
