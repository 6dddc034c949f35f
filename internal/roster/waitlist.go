package roster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"gymgate/internal/events"
	"gymgate/internal/metrics"
)

// Waitlist is the FIFO queue of accounts waiting for a full session.
type Waitlist struct {
	store       Store
	coordinator *Coordinator
	logger      *slog.Logger

	Now func() time.Time
}

func NewWaitlist(store Store, coordinator *Coordinator, logger *slog.Logger) *Waitlist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Waitlist{store: store, coordinator: coordinator, logger: logger, Now: time.Now}
}

// Join queues accountID. When the session still has a free slot the pass
// that follows books the joiner straight away and the result says so. A
// joiner the pass discards as ineligible gets membership_invalid.
func (w *Waitlist) Join(ctx context.Context, sessionID, accountID string) (JoinResult, error) {
	if accountID == "" {
		return JoinResult{}, fmt.Errorf("%w: account is required", ErrInvalidRequest)
	}
	now := w.Now()

	var result JoinResult
	var promoted []string
	err := w.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		booked, err := tx.HasBooking(ctx, accountID)
		if err != nil {
			return err
		}
		if booked {
			result = JoinResult{Outcome: JoinOutcomeAlreadyBooked}
			return nil
		}

		queued, err := tx.HasWaitlistEntry(ctx, accountID)
		if err != nil {
			return err
		}
		if queued {
			result = JoinResult{Outcome: JoinOutcomeAlreadyWaitlisted}
			return nil
		}

		entry := &WaitlistEntry{SessionID: sessionID, AccountID: accountID, JoinedAt: now}
		if err := tx.InsertWaitlistEntry(ctx, entry); err != nil {
			return fmt.Errorf("insert waitlist entry: %w", err)
		}
		result = JoinResult{Outcome: JoinOutcomeJoined, Entry: entry}

		promoted, err = w.coordinator.promoteWithin(ctx, tx, now)
		if err != nil {
			return err
		}
		if slices.Contains(promoted, accountID) {
			result = JoinResult{Outcome: JoinOutcomeJoined, Promoted: true}
			return nil
		}
		still, err := tx.HasWaitlistEntry(ctx, accountID)
		if err != nil {
			return err
		}
		if !still {
			result = JoinResult{Outcome: JoinOutcomeMembershipInvalid}
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	metrics.RecordWaitlist("join", string(result.Outcome))
	if result.Outcome == JoinOutcomeJoined && !result.Promoted {
		w.logger.Info("joined waitlist", "session_id", sessionID, "account_id", accountID)
		w.coordinator.publish(ctx, events.New(events.TypeWaitlistJoined, now, map[string]any{
			"session_id": sessionID,
			"account_id": accountID,
		}))
	}
	w.coordinator.announcePromotions(ctx, sessionID, promoted, now)
	return result, nil
}

// Remove withdraws accountID. It never triggers promotion.
func (w *Waitlist) Remove(ctx context.Context, sessionID, accountID string) (RemoveResult, error) {
	var result RemoveResult
	err := w.store.WithinSession(ctx, sessionID, func(tx SessionTx) error {
		removed, err := tx.DeleteWaitlistEntry(ctx, accountID)
		if err != nil {
			return err
		}
		result.Outcome = RemoveOutcomeNotFound
		if removed {
			result.Outcome = RemoveOutcomeRemoved
		}
		return nil
	})
	if err != nil {
		return RemoveResult{}, err
	}

	metrics.RecordWaitlist("remove", string(result.Outcome))
	return result, nil
}

// PeekHead reads the current head without locking the session.
func (w *Waitlist) PeekHead(ctx context.Context, sessionID string) (*WaitlistEntry, error) {
	if _, err := w.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	head, err := w.store.WaitlistHead(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if head == nil {
		return nil, ErrWaitlistEmpty
	}
	return head, nil
}

func (w *Waitlist) List(ctx context.Context, sessionID string) ([]WaitlistEntry, error) {
	if _, err := w.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return w.store.ListWaitlist(ctx, sessionID)
}
