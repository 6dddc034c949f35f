package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gymgate/internal/events"
	"gymgate/internal/metrics"

	"github.com/google/uuid"
)

// Roster is the capacity-bounded booking ledger for class sessions.
type Roster struct {
	store       Store
	coordinator *Coordinator
	logger      *slog.Logger

	Now func() time.Time
}

func NewRoster(store Store, coordinator *Coordinator, logger *slog.Logger) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Roster{store: store, coordinator: coordinator, logger: logger, Now: time.Now}
}

func (r *Roster) CreateSession(ctx context.Context, branchID string, capacity int, startTime time.Time) (*Session, error) {
	if branchID == "" {
		return nil, fmt.Errorf("%w: branch is required", ErrInvalidRequest)
	}
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	session := &Session{
		ID:        uuid.NewString(),
		BranchID:  branchID,
		Capacity:  capacity,
		StartTime: startTime,
		CreatedAt: r.Now(),
	}
	if err := r.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	r.logger.Info("session created", "session_id", session.ID, "branch_id", branchID, "capacity", capacity)
	return session, nil
}

func (r *Roster) GetSession(ctx context.Context, sessionID string) (*SessionAvailability, error) {
	session, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	booked, err := r.store.CountBookings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	waitlisted, err := r.store.CountWaitlist(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	free := session.Capacity - booked
	if free < 0 {
		free = 0
	}
	return &SessionAvailability{Session: *session, Booked: booked, Free: free, Waitlisted: waitlisted}, nil
}

func (r *Roster) ListBookings(ctx context.Context, sessionID string) ([]Booking, error) {
	if _, err := r.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return r.store.ListBookings(ctx, sessionID)
}

// Book is idempotent: a repeat call by a booked account reports
// already_booked. A waitlisted account that books directly leaves the
// waitlist in the same unit.
func (r *Roster) Book(ctx context.Context, sessionID, accountID string) (BookResult, error) {
	if accountID == "" {
		return BookResult{}, fmt.Errorf("%w: account is required", ErrInvalidRequest)
	}
	now := r.Now()

	var result BookResult
	err := r.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		booked, err := tx.HasBooking(ctx, accountID)
		if err != nil {
			return err
		}
		if booked {
			result = BookResult{Outcome: BookOutcomeAlreadyBooked}
			return nil
		}

		count, err := tx.CountBookings(ctx)
		if err != nil {
			return err
		}
		if err := r.coordinator.checkCapacity(tx.Session(), count); err != nil {
			return err
		}
		if count >= tx.Session().Capacity {
			result = BookResult{Outcome: BookOutcomeFull}
			return nil
		}

		booking := &Booking{SessionID: sessionID, AccountID: accountID, BookedAt: now}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if _, err := tx.DeleteWaitlistEntry(ctx, accountID); err != nil {
			return err
		}
		result = BookResult{Outcome: BookOutcomeBooked, Booking: booking}
		return nil
	})
	if err != nil {
		return BookResult{}, err
	}

	metrics.RecordBooking(string(result.Outcome))
	if result.Outcome == BookOutcomeBooked {
		r.logger.Info("booking created", "session_id", sessionID, "account_id", accountID)
		r.coordinator.publish(ctx, events.New(events.TypeBookingCreated, now, map[string]any{
			"session_id": sessionID,
			"account_id": accountID,
		}))
	}
	return result, nil
}

// Cancel removes the booking and runs a promotion pass in the same unit.
// The pass runs even when there was nothing to cancel.
func (r *Roster) Cancel(ctx context.Context, sessionID, accountID string) (CancelResult, error) {
	now := r.Now()

	var result CancelResult
	err := r.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		removed, err := tx.DeleteBooking(ctx, accountID)
		if err != nil {
			return err
		}
		result.Outcome = CancelOutcomeNotFound
		if removed {
			result.Outcome = CancelOutcomeCancelled
		}

		result.Promoted, err = r.coordinator.promoteWithin(ctx, tx, now)
		return err
	})
	if err != nil {
		return CancelResult{}, err
	}

	if result.Outcome == CancelOutcomeCancelled {
		metrics.RecordBookingCancellation()
		r.logger.Info("booking cancelled", "session_id", sessionID, "account_id", accountID)
		r.coordinator.publish(ctx, events.New(events.TypeBookingCancelled, now, map[string]any{
			"session_id": sessionID,
			"account_id": accountID,
		}))
	}
	r.coordinator.announcePromotions(ctx, sessionID, result.Promoted, now)
	return result, nil
}

// SetCapacity changes a session's capacity and promotes into any slots it
// frees. Shrinking below the current booking count is refused.
func (r *Roster) SetCapacity(ctx context.Context, sessionID string, capacity int) ([]string, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	now := r.Now()

	var promoted []string
	err := r.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		count, err := tx.CountBookings(ctx)
		if err != nil {
			return err
		}
		if capacity < count {
			return fmt.Errorf("%w: %d booked, requested %d", ErrCapacityBelowBookings, count, capacity)
		}
		if err := tx.UpdateCapacity(ctx, capacity); err != nil {
			return err
		}

		promoted, err = r.coordinator.promoteWithin(ctx, tx, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("session capacity changed", "session_id", sessionID, "capacity", capacity, "promoted", len(promoted))
	r.coordinator.announcePromotions(ctx, sessionID, promoted, now)
	return promoted, nil
}
