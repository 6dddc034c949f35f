package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gymgate/internal/attendance"
	"gymgate/internal/events"
	"gymgate/internal/membership"
	"gymgate/internal/metrics"

	"github.com/google/uuid"
)

type CodeVerifier interface {
	Verify(ctx context.Context, code, branchID string, asOf time.Time) (*attendance.Code, error)
}

type EligibilityChecker interface {
	IsEligible(ctx context.Context, accountID string, asOf time.Time) (membership.Eligibility, error)
}

// Gate decides every check-in, whatever the method. Dedup and the ledger
// append run inside one Ledger.WithinAccount unit.
type Gate struct {
	ledger    Ledger
	codes     CodeVerifier
	members   EligibilityChecker
	publisher events.Publisher
	logger    *slog.Logger
	cooldown  time.Duration

	Now func() time.Time
}

func NewGate(ledger Ledger, codes CodeVerifier, members EligibilityChecker, publisher events.Publisher, logger *slog.Logger, cooldown time.Duration) *Gate {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		ledger:    ledger,
		codes:     codes,
		members:   members,
		publisher: publisher,
		logger:    logger,
		cooldown:  cooldown,
		Now:       time.Now,
	}
}

func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

func (g *Gate) Admit(ctx context.Context, req AdmitRequest) (Decision, error) {
	if err := req.Validate(); err != nil {
		return Decision{}, err
	}
	if req.AsOf.IsZero() {
		req.AsOf = g.Now()
	}

	accountID := req.AccountID
	var code *attendance.Code

	if req.Method == MethodCode {
		c, err := g.codes.Verify(ctx, req.Code, req.BranchID, req.AsOf)
		switch {
		case errors.Is(err, attendance.ErrCodeNotFound):
			return g.reject(req, OutcomeCodeNotFound, ""), nil
		case errors.Is(err, attendance.ErrCodeExpired):
			return g.reject(req, OutcomeCodeExpired, ""), nil
		case err != nil:
			return Decision{}, fmt.Errorf("verify code: %w", err)
		}
		if accountID != "" && accountID != c.AccountID {
			return g.reject(req, OutcomeCodeNotFound, ""), nil
		}
		accountID = c.AccountID
		code = c
	}

	eligibility, err := g.members.IsEligible(ctx, accountID, req.AsOf)
	if err != nil {
		return Decision{}, fmt.Errorf("check membership: %w", err)
	}
	if !eligibility.Eligible {
		return g.reject(req, OutcomeMembershipInvalid, string(eligibility.Reason)), nil
	}

	var decision Decision
	err = g.ledger.WithinAccount(ctx, accountID, req.BranchID, func(tx LedgerTx) error {
		last, err := tx.LatestSince(ctx, accountID, req.BranchID, req.AsOf.Add(-g.cooldown))
		if err != nil {
			return err
		}
		if last != nil {
			retry := last.Timestamp.Add(g.cooldown).Sub(req.AsOf)
			decision = Decision{
				Outcome:           OutcomeDuplicateWithinWindow,
				RetryAfter:        retry,
				RetryAfterSeconds: int64((retry + time.Second - 1) / time.Second),
			}
			return nil
		}

		if code != nil {
			if err := tx.ConsumeCode(ctx, code.ID, req.AsOf); err != nil {
				if errors.Is(err, attendance.ErrCodeNotFound) {
					decision = Decision{Outcome: OutcomeCodeNotFound}
					return nil
				}
				return fmt.Errorf("consume code: %w", err)
			}
		}

		event := &Event{
			ID:        uuid.NewString(),
			AccountID: accountID,
			BranchID:  req.BranchID,
			Method:    req.Method,
			Outcome:   OutcomeAccepted,
			Timestamp: req.AsOf,
		}
		if err := tx.Append(ctx, event); err != nil {
			return fmt.Errorf("append check-in: %w", err)
		}
		decision = Decision{Outcome: OutcomeAccepted, Event: event}
		return nil
	})
	if err != nil {
		g.logger.Error("admission failed", "account_id", accountID, "branch_id", req.BranchID, "method", req.Method, "error", err)
		return Decision{}, err
	}

	decision.Message = decision.Outcome.Message()
	metrics.RecordAdmission(string(req.Method), string(decision.Outcome))

	if decision.Accepted() {
		g.logger.Info("check-in accepted", "account_id", accountID, "branch_id", req.BranchID, "method", req.Method)
		g.publish(ctx, decision.Event)
	} else {
		g.logger.Debug("check-in rejected", "account_id", accountID, "branch_id", req.BranchID, "outcome", decision.Outcome)
	}

	return decision, nil
}

func (g *Gate) reject(req AdmitRequest, outcome Outcome, reason string) Decision {
	metrics.RecordAdmission(string(req.Method), string(outcome))
	g.logger.Debug("check-in rejected", "account_id", req.AccountID, "branch_id", req.BranchID, "outcome", outcome, "reason", reason)
	return Decision{Outcome: outcome, Message: outcome.Message(), Reason: reason}
}

func (g *Gate) publish(ctx context.Context, e *Event) {
	err := g.publisher.Publish(ctx, events.New(events.TypeCheckInAccepted, e.Timestamp, map[string]any{
		"checkin_id": e.ID,
		"account_id": e.AccountID,
		"branch_id":  e.BranchID,
		"method":     string(e.Method),
	}))
	if err != nil {
		g.logger.Warn("failed to publish check-in event", "checkin_id", e.ID, "error", err)
	}
}

// History lists the caller's accepted check-ins in [from, to).
func (g *Gate) History(ctx context.Context, accountID string, from, to time.Time) ([]Event, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", ErrInvalidRequest)
	}
	return g.ledger.ListByAccount(ctx, accountID, from, to)
}

// LastCheckIn returns the latest accepted event for the pair, or nil.
func (g *Gate) LastCheckIn(ctx context.Context, accountID, branchID string) (*Event, error) {
	return g.ledger.LastAccepted(ctx, accountID, branchID)
}
