package membership

import (
	"context"
	"errors"
	"time"
)

// Validator answers whether an account's access window covers a moment.
// It has no side effects.
type Validator struct {
	repo Repository
}

func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo}
}

// IsEligible reports eligibility as of asOf. A missing account is reported
// as ReasonNotFound; the error is reserved for store failures.
func (v *Validator) IsEligible(ctx context.Context, accountID string, asOf time.Time) (Eligibility, error) {
	account, err := v.repo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Eligibility{Reason: ReasonNotFound}, nil
		}
		return Eligibility{}, err
	}

	return Evaluate(account, asOf), nil
}

func Evaluate(a *Account, asOf time.Time) Eligibility {
	result := Eligibility{Role: a.Role}

	if a.Status == StatusStopped {
		result.Reason = ReasonStopped
		return result
	}

	if a.Role == RoleTrainer {
		result.Eligible = true
		result.Reason = ReasonEligible
		return result
	}

	if a.Status == StatusFrozen {
		result.Reason = ReasonFrozen
		return result
	}

	if a.StartDate == nil || asOf.Before(*a.StartDate) {
		result.Reason = ReasonNotStarted
		return result
	}

	if a.EndDate == nil || !asOf.Before(*a.EndDate) {
		result.Reason = ReasonExpired
		return result
	}

	result.Eligible = true
	result.Reason = ReasonEligible
	return result
}
