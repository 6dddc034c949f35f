package attendance

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gymgate/internal/metrics"

	"github.com/google/uuid"
)

const maxIssueAttempts = 32

var ErrInvalidRequest = errors.New("account and branch are required")

// Service issues and verifies attendance codes. Consumption is not exposed
// here; it belongs to the admission unit of work.
type Service struct {
	repo   Repository
	ttl    time.Duration
	length int
	max    *big.Int

	Now    func() time.Time
	Random func(max *big.Int) (*big.Int, error)
}

func NewService(repo Repository, defaultTTL time.Duration, length int) *Service {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	return &Service{
		repo:   repo,
		ttl:    defaultTTL,
		length: length,
		max:    max,
		Now:    time.Now,
		Random: func(max *big.Int) (*big.Int, error) { return rand.Int(rand.Reader, max) },
	}
}

// Issue creates a code for (accountID, branchID). A ttl <= 0 uses the
// service default.
func (s *Service) Issue(ctx context.Context, accountID, branchID string, ttl time.Duration) (*Code, error) {
	if accountID == "" || branchID == "" {
		return nil, ErrInvalidRequest
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.Now()
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		value, err := s.nextValue()
		if err != nil {
			return nil, err
		}

		c := &Code{
			ID:        uuid.NewString(),
			Code:      value,
			AccountID: accountID,
			BranchID:  branchID,
			IssuedAt:  now,
			ExpiresAt: now.Add(ttl),
		}

		err = s.repo.InsertIfFree(ctx, c, now)
		if errors.Is(err, ErrCodeCollision) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store attendance code: %w", err)
		}

		metrics.RecordCodeIssued()
		return c, nil
	}

	return nil, ErrCodeSpaceExhausted
}

func (s *Service) nextValue() (string, error) {
	n, err := s.Random(s.max)
	if err != nil {
		return "", fmt.Errorf("generate attendance code: %w", err)
	}
	return fmt.Sprintf("%0*d", s.length, n.Int64()), nil
}

// Verify looks a code up without consuming it. Consumed codes are reported
// as not found so they can never verify twice.
func (s *Service) Verify(ctx context.Context, code, branchID string, asOf time.Time) (*Code, error) {
	c, err := s.repo.Find(ctx, code, branchID)
	if err != nil {
		return nil, err
	}

	switch c.StateAt(asOf) {
	case StateConsumed:
		return nil, ErrCodeNotFound
	case StateExpired:
		return nil, ErrCodeExpired
	}
	return c, nil
}

// Sweep removes expired and consumed codes. Correctness never depends on it.
func (s *Service) Sweep(ctx context.Context, asOf time.Time) (int64, error) {
	n, err := s.repo.DeleteStale(ctx, asOf)
	if err != nil {
		return 0, err
	}
	metrics.RecordCodesSwept(n)
	return n, nil
}
